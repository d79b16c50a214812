package opensearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mstgnz/paynow/infra/config"
	"github.com/mstgnz/paynow/infra/logger"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// NotificationIndex holds one document per inbound Paynow notification
const NotificationIndex = "paynow-notifications"

// Client wraps the OpenSearch client
type Client struct {
	client  *opensearch.Client
	enabled bool
}

// NewClient creates an OpenSearch client from the application configuration and makes
// sure the notification index exists. A failed index setup is logged, not returned,
// since the cluster may come up after the service.
func NewClient(ctx context.Context, cfg *config.AppConfig) (*Client, error) {
	osConfig := opensearch.Config{
		Addresses:     []string{cfg.OpenSearchURL},
		Transport:     http.DefaultTransport,
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		osConfig.Username = cfg.OpenSearchUser
		osConfig.Password = cfg.OpenSearchPass
	}

	client, err := opensearch.NewClient(osConfig)
	if err != nil {
		return nil, fmt.Errorf("opensearch: %w", err)
	}

	c := &Client{
		client:  client,
		enabled: cfg.EnableAudit,
	}

	if c.enabled {
		if err := c.ensureIndex(ctx); err != nil {
			logger.Warn("failed to set up opensearch index", logger.LogContext{Fields: map[string]any{
				"index": NotificationIndex,
				"error": err.Error(),
			}})
		}
	}

	return c, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// IsEnabled reports whether notifications are written to OpenSearch
func (c *Client) IsEnabled() bool {
	return c != nil && c.enabled
}

// Ping checks that the cluster answers
func (c *Client) Ping(ctx context.Context) error {
	res, err := opensearchapi.PingRequest{}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("opensearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch: ping returned %s", res.Status())
	}
	return nil
}

func (c *Client) ensureIndex(ctx context.Context) error {
	exists, err := c.indexExists(ctx, NotificationIndex)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := c.createNotificationIndex(ctx, NotificationIndex); err != nil {
		return err
	}
	logger.Info("created opensearch index", logger.LogContext{Fields: map[string]any{"index": NotificationIndex}})
	return nil
}

func (c *Client) indexExists(ctx context.Context, indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK, nil
}

func (c *Client) createNotificationIndex(ctx context.Context, indexName string) error {
	mapping := `{
		"mappings": {
			"properties": {
				"timestamp":       {"type": "date", "format": "strict_date_optional_time||epoch_millis"},
				"request_id":      {"type": "keyword"},
				"client_ip":       {"type": "ip"},
				"payment_id":      {"type": "keyword"},
				"external_id":     {"type": "keyword"},
				"status":          {"type": "keyword"},
				"modified_at":     {"type": "keyword"},
				"triggers":        {"type": "keyword"},
				"signature_valid": {"type": "boolean"},
				"error":           {"type": "text"}
			}
		},
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0
		}
	}`

	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}

	return nil
}
