package paynow

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// signaturePayload is the canonical object signed for every outbound request.
// Field order is alphabetical; encoding/json sorts the map keys.
type signaturePayload struct {
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers"`
	Parameters map[string]string `json:"parameters"`
}

// SignatureCalculator computes Paynow V3 request and notification signatures
type SignatureCalculator struct {
	key []byte
}

// NewSignatureCalculator creates a calculator keyed by the merchant signature key
func NewSignatureCalculator(signatureKey string) (*SignatureCalculator, error) {
	if signatureKey == "" {
		return nil, errors.New("paynow: signature key is required")
	}
	return &SignatureCalculator{key: []byte(signatureKey)}, nil
}

// CanonicalPayload returns the exact bytes that RequestSignature signs
func CanonicalPayload(apiKey, idempotencyKey string, body []byte, parameters map[string]string) ([]byte, error) {
	if parameters == nil {
		parameters = map[string]string{}
	}
	return compactJSON(signaturePayload{
		Body: string(body),
		Headers: map[string]string{
			headerAPIKey:         apiKey,
			headerIdempotencyKey: idempotencyKey,
		},
		Parameters: parameters,
	})
}

// RequestSignature signs an outbound request. body must be the exact bytes sent on the wire,
// nil for requests without a body.
func (s *SignatureCalculator) RequestSignature(apiKey, idempotencyKey string, body []byte, parameters map[string]string) (string, error) {
	payload, err := CanonicalPayload(apiKey, idempotencyKey, body, parameters)
	if err != nil {
		return "", fmt.Errorf("paynow: failed to build signature payload: %w", err)
	}
	return s.sign(payload), nil
}

// NotificationSignature signs the raw body of an inbound notification
func (s *SignatureCalculator) NotificationSignature(rawBody []byte) string {
	return s.sign(rawBody)
}

// VerifyNotification reports whether signature matches the raw body, in constant time
func (s *SignatureCalculator) VerifyNotification(rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected := s.NotificationSignature(rawBody)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *SignatureCalculator) sign(data []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// compactJSON encodes v without HTML escaping and without the trailing newline
func compactJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
