package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// ErrAuditDisabled is returned by searches when the audit trail is switched off
var ErrAuditDisabled = errors.New("opensearch: notification audit is disabled")

// NotificationLog is the audit record of one inbound notification, authentic or not
type NotificationLog struct {
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"request_id,omitempty"`
	ClientIP       string    `json:"client_ip,omitempty"`
	PaymentID      string    `json:"payment_id,omitempty"`
	ExternalID     string    `json:"external_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	ModifiedAt     string    `json:"modified_at,omitempty"`
	Triggers       []string  `json:"triggers,omitempty"`
	SignatureValid bool      `json:"signature_valid"`
	Error          string    `json:"error,omitempty"`
}

// Logger writes and reads notification audit records
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogNotification indexes a notification record. It is a no-op when auditing is disabled.
func (l *Logger) LogNotification(ctx context.Context, entry NotificationLog) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal notification log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: NotificationIndex,
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index notification log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// SearchNotifications runs query against the notification index, newest first
func (l *Logger) SearchNotifications(ctx context.Context, query map[string]any, size int) ([]NotificationLog, error) {
	if !l.client.IsEnabled() {
		return nil, ErrAuditDisabled
	}
	if size <= 0 || size > 100 {
		size = 100
	}

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": size,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{NotificationIndex},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source NotificationLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]NotificationLog, len(result.Hits.Hits))
	for i, hit := range result.Hits.Hits {
		logs[i] = hit.Source
	}
	return logs, nil
}

// GetPaymentNotifications returns the recorded notifications of one payment
func (l *Logger) GetPaymentNotifications(ctx context.Context, paymentID string) ([]NotificationLog, error) {
	return l.SearchNotifications(ctx, map[string]any{
		"term": map[string]any{"payment_id": paymentID},
	}, 100)
}

// GetRejectedNotifications returns recent notifications whose signature did not verify
func (l *Logger) GetRejectedNotifications(ctx context.Context, hours int) ([]NotificationLog, error) {
	if hours <= 0 {
		hours = 24
	}
	return l.SearchNotifications(ctx, map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{"term": map[string]any{"signature_valid": false}},
				{"range": map[string]any{"timestamp": map[string]any{"gte": fmt.Sprintf("now-%dh", hours)}}},
			},
		},
	}, 100)
}
