package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	validateErr error
	initErr     error
	initialized map[string]string
}

func (s *stubProcessor) Initialize(config map[string]string) error {
	if s.initErr != nil {
		return s.initErr
	}
	s.initialized = config
	return nil
}

func (s *stubProcessor) GetRequiredConfig(environment string) []ConfigField { return nil }

func (s *stubProcessor) ValidateConfig(config map[string]string) error { return s.validateErr }

func (s *stubProcessor) CreatePayment(ctx context.Context, request PaymentRequest) (*PaymentRef, error) {
	return nil, ErrNotImplemented
}

func (s *stubProcessor) VerifyNotification(ctx context.Context, rawBody []byte, signature string) (*Notification, error) {
	return nil, ErrInvalidCallback
}

func (s *stubProcessor) PollStatus(ctx context.Context, ref PaymentRef) ([]Trigger, error) {
	return nil, ErrNotImplemented
}

func (s *stubProcessor) GetPaymentMethods(ctx context.Context, query PaymentMethodsQuery) ([]PaymentMethodGroup, error) {
	return nil, ErrNotImplemented
}

func (s *stubProcessor) StartRefund(ctx context.Context, ref PaymentRef, request RefundRequest) (*RefundRef, error) {
	return nil, ErrNotImplemented
}

func (s *stubProcessor) GetRefundStatus(ctx context.Context, refundID string) (*RefundRef, error) {
	return nil, ErrNotImplemented
}

func (s *stubProcessor) CancelRefund(ctx context.Context, ref RefundRef) error { return ErrNotImplemented }

func (s *stubProcessor) Charge(ctx context.Context, ref PaymentRef, amount decimal.Decimal) error {
	return ErrNotImplemented
}

func (s *stubProcessor) ReleaseLock(ctx context.Context, ref PaymentRef) (decimal.Decimal, error) {
	return decimal.Zero, ErrNotImplemented
}

func (s *stubProcessor) Close() error { return nil }

func TestProcessorRegistry_Register(t *testing.T) {
	registry := NewProcessorRegistry()
	registry.Register("test-processor", func() Processor { return &stubProcessor{} })

	factory, err := registry.Get("test-processor")
	require.NoError(t, err)
	assert.NotNil(t, factory())
}

func TestProcessorRegistry_Get_NotFound(t *testing.T) {
	registry := NewProcessorRegistry()

	factory, err := registry.Get("non-existent")
	assert.Error(t, err)
	assert.Nil(t, factory)
	assert.Contains(t, err.Error(), "is not registered")
}

func TestProcessorRegistry_Names(t *testing.T) {
	registry := NewProcessorRegistry()
	assert.Empty(t, registry.Names())

	factory := func() Processor { return &stubProcessor{} }
	registry.Register("zeta", factory)
	registry.Register("alpha", factory)

	assert.Equal(t, []string{"alpha", "zeta"}, registry.Names())
}

func TestProcessorRegistry_Open(t *testing.T) {
	cfg := map[string]string{"apiKey": "k"}

	t.Run("initializes processor", func(t *testing.T) {
		stub := &stubProcessor{}
		registry := NewProcessorRegistry()
		registry.Register("stub", func() Processor { return stub })

		proc, err := registry.Open("stub", cfg)
		require.NoError(t, err)
		assert.Same(t, stub, proc)
		assert.Equal(t, cfg, stub.initialized)
	})

	t.Run("validation failure skips initialize", func(t *testing.T) {
		stub := &stubProcessor{validateErr: errors.New("missing signatureKey")}
		registry := NewProcessorRegistry()
		registry.Register("stub", func() Processor { return stub })

		_, err := registry.Open("stub", cfg)
		assert.EqualError(t, err, "missing signatureKey")
		assert.Nil(t, stub.initialized)
	})

	t.Run("initialize failure", func(t *testing.T) {
		registry := NewProcessorRegistry()
		registry.Register("stub", func() Processor { return &stubProcessor{initErr: errors.New("boom")} })

		_, err := registry.Open("stub", cfg)
		assert.EqualError(t, err, "boom")
	})

	t.Run("unknown processor", func(t *testing.T) {
		_, err := NewProcessorRegistry().Open("missing", cfg)
		assert.Error(t, err)
	})
}

func TestDefaultRegistry(t *testing.T) {
	Register("default-test", func() Processor { return &stubProcessor{} })

	assert.Contains(t, DefaultRegistry.Names(), "default-test")

	proc, err := Open("default-test", map[string]string{})
	require.NoError(t, err)
	assert.NoError(t, proc.Close())
}
