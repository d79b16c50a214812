package paynow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/paynow/infra/logger"
	"github.com/mstgnz/paynow/provider"
	"github.com/shopspring/decimal"
)

const (
	// Slug is the registry name of the processor
	Slug = "paynow"
	// DisplayName is the human readable processor name
	DisplayName = "Paynow"
)

// Processor drives payments through Paynow and translates provider statuses into
// host triggers. It keeps no per-payment state.
type Processor struct {
	client          *Client
	signer          *SignatureCalculator
	environment     Environment
	continueURL     string
	notificationURL string
	validate        *validator.Validate
	log             *logger.ContextLogger
}

var _ provider.Processor = (*Processor)(nil)

// NewProvider creates an uninitialized Paynow processor
func NewProvider() provider.Processor {
	return &Processor{}
}

// AcceptedCurrencies returns the ISO codes the processor can charge in
func (p *Processor) AcceptedCurrencies() []string {
	codes := make([]string, 0, len(Currencies))
	for _, c := range Currencies {
		codes = append(codes, string(c))
	}
	return codes
}

// GetRequiredConfig returns the configuration fields required for Paynow
func (p *Processor) GetRequiredConfig(environment string) []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "apiKey",
			Required:    true,
			Type:        "string",
			Description: "Paynow API key from the merchant panel",
			Example:     "97a55694-5478-43b5-b406-fb49ebfdd2b5",
			MinLength:   8,
			MaxLength:   100,
		},
		{
			Key:         "signatureKey",
			Required:    true,
			Type:        "string",
			Description: "Paynow signature key from the merchant panel",
			Example:     "b305b996-bca5-4404-a0b7-2ccea3d2b64b",
			MinLength:   8,
			MaxLength:   100,
		},
		{
			Key:         "environment",
			Required:    true,
			Type:        "string",
			Description: "Environment setting (sandbox or production)",
			Example:     "sandbox",
			Pattern:     "^(sandbox|production)$",
		},
		{
			Key:         "continueUrl",
			Required:    false,
			Type:        "url",
			Description: "Where the buyer returns after paying; {payment_id} is replaced with the local payment id",
			Example:     "https://shop.example.com/payments/{payment_id}/done",
		},
		{
			Key:         "notificationUrl",
			Required:    false,
			Type:        "url",
			Description: "Notification endpoint to configure in the Paynow merchant panel",
			Example:     "https://shop.example.com/webhooks/paynow",
		},
		{
			Key:         "timeout",
			Required:    false,
			Type:        "duration",
			Description: "Per-request timeout",
			Example:     "30s",
		},
		{
			Key:         "baseUrl",
			Required:    false,
			Type:        "url",
			Description: "API host override, for tests against a local server",
			Example:     "http://127.0.0.1:8080",
		},
	}
}

// ValidateConfig validates the provided configuration against Paynow requirements
func (p *Processor) ValidateConfig(config map[string]string) error {
	return provider.ValidateConfigFields(Slug, config, p.GetRequiredConfig(config["environment"]))
}

// Initialize sets up the processor. Calling it again replaces the client.
func (p *Processor) Initialize(conf map[string]string) error {
	env, err := ParseEnvironment(conf["environment"])
	if err != nil {
		return err
	}

	var timeout time.Duration
	if raw := conf["timeout"]; raw != "" {
		timeout, err = time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("paynow: invalid timeout: %w", err)
		}
	}

	client, err := NewClient(ClientConfig{
		Credentials: Credentials{
			APIKey:       conf["apiKey"],
			SignatureKey: conf["signatureKey"],
		},
		Environment: env,
		BaseURL:     conf["baseUrl"],
		Timeout:     timeout,
	})
	if err != nil {
		return err
	}

	if p.client != nil {
		_ = p.client.Close()
	}
	p.client = client
	p.signer = client.signer
	p.environment = env
	p.continueURL = conf["continueUrl"]
	p.notificationURL = conf["notificationUrl"]
	p.validate = newValidator()
	p.log = logger.WithProvider(Slug).AddField("environment", string(env))
	return nil
}

// Environment returns the configured environment
func (p *Processor) Environment() Environment {
	return p.environment
}

// NotificationURL resolves the configured notification URL for a local payment id.
// Paynow reads the notification URL from the merchant panel, not from the payment.
func (p *Processor) NotificationURL(paymentID string) string {
	return provider.ResolveURL(p.notificationURL, paymentID)
}

// CreatePayment registers the payment with Paynow and returns its handle
func (p *Processor) CreatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentRef, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if err := p.validate.Struct(request); err != nil {
		return nil, fmt.Errorf("paynow: invalid payment request: %w: %w", provider.ErrInvalidRequest, err)
	}

	body, err := p.buildPaymentRequest(request)
	if err != nil {
		return nil, err
	}

	var opts []RequestOption
	if request.IdempotencyKey != "" {
		opts = append(opts, WithIdempotencyKey(request.IdempotencyKey))
	}

	resp, err := p.client.CreatePayment(ctx, body, opts...)
	if err != nil {
		p.log.Error("create payment failed", err)
		return nil, err
	}

	if _, err := ParsePaymentStatus(resp.Status); err != nil {
		p.log.SetPaymentID(resp.PaymentID).Error("payment created with unknown status", err)
		return nil, fmt.Errorf("paynow: payment %s: %w", resp.PaymentID, err)
	}

	p.log.SetPaymentID(resp.PaymentID).AddField("status", resp.Status).Info("payment created")
	return &provider.PaymentRef{
		PaymentID:      resp.PaymentID,
		RedirectURL:    resp.RedirectURL,
		Status:         resp.Status,
		Currency:       string(body.Currency),
		IdempotencyKey: resp.IdempotencyKey,
	}, nil
}

func (p *Processor) buildPaymentRequest(request provider.PaymentRequest) (CreatePaymentRequest, error) {
	currency, err := ParseCurrency(request.Currency)
	if err != nil {
		return CreatePaymentRequest{}, err
	}
	if !request.Amount.IsPositive() {
		return CreatePaymentRequest{}, &provider.ConversionError{
			Amount: request.Amount.String(), Currency: request.Currency, Reason: "amount must be positive",
		}
	}
	amount, err := ToMinorUnits(request.Amount, currency)
	if err != nil {
		return CreatePaymentRequest{}, err
	}

	items := make([]OrderItem, 0, len(request.OrderItems))
	for _, item := range request.OrderItems {
		price, err := ToMinorUnits(item.Price, currency)
		if err != nil {
			return CreatePaymentRequest{}, err
		}
		items = append(items, OrderItem{
			Name:     item.Name,
			Category: item.Category,
			Quantity: item.Quantity,
			Price:    price,
		})
	}

	continueURL := request.ContinueURL
	if continueURL == "" {
		continueURL = p.continueURL
	}

	return CreatePaymentRequest{
		Amount:      amount,
		Currency:    currency,
		ExternalID:  request.ExternalID,
		Description: request.Description,
		Buyer: BuyerData{
			Email:     request.Buyer.Email,
			FirstName: request.Buyer.FirstName,
			LastName:  request.Buyer.LastName,
			Phone:     request.Buyer.Phone,
			Locale:    request.Buyer.Locale,
		},
		ContinueURL:  provider.ResolveURL(continueURL, request.ExternalID),
		OrderItems:   items,
		ValidityTime: request.ValidityTime,
	}, nil
}

// PollStatus fetches the payment status and maps it the same way as a notification
func (p *Processor) PollStatus(ctx context.Context, ref provider.PaymentRef) ([]provider.Trigger, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	resp, err := p.client.GetPaymentStatus(ctx, ref.PaymentID)
	if err != nil {
		return nil, err
	}

	triggers, err := MapPaymentStatus(resp.Status)
	if err != nil {
		return nil, fmt.Errorf("paynow: %w", err)
	}
	p.log.SetPaymentID(ref.PaymentID).AddField("status", resp.Status).Debug("payment status polled")
	return triggers, nil
}

// GetPaymentMethods lists the payment methods available for the optional amount and currency
func (p *Processor) GetPaymentMethods(ctx context.Context, query provider.PaymentMethodsQuery) ([]provider.PaymentMethodGroup, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	var q PaymentMethodsQuery
	if query.Currency != "" {
		currency, err := ParseCurrency(query.Currency)
		if err != nil {
			return nil, err
		}
		q.Currency = currency
	}
	if !query.Amount.IsZero() {
		if q.Currency == "" {
			return nil, fmt.Errorf("paynow: currency is required with amount: %w", provider.ErrInvalidRequest)
		}
		amount, err := ToMinorUnits(query.Amount, q.Currency)
		if err != nil {
			return nil, err
		}
		q.Amount = amount
	}

	groups, err := p.client.GetPaymentMethods(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]provider.PaymentMethodGroup, 0, len(groups))
	for _, g := range groups {
		methods := make([]provider.PaymentMethod, 0, len(g.PaymentMethods))
		for _, m := range g.PaymentMethods {
			methods = append(methods, provider.PaymentMethod{
				ID:                m.ID,
				Name:              m.Name,
				Description:       m.Description,
				Image:             m.Image,
				Status:            string(m.Status),
				AuthorizationType: m.AuthorizationType,
			})
		}
		out = append(out, provider.PaymentMethodGroup{Type: g.Type, Methods: methods})
	}
	return out, nil
}

// Charge is not offered by Paynow
func (p *Processor) Charge(ctx context.Context, ref provider.PaymentRef, amount decimal.Decimal) error {
	return fmt.Errorf("paynow: charge: %w", provider.ErrNotImplemented)
}

// ReleaseLock is not offered by Paynow
func (p *Processor) ReleaseLock(ctx context.Context, ref provider.PaymentRef) (decimal.Decimal, error) {
	return decimal.Zero, fmt.Errorf("paynow: release lock: %w", provider.ErrNotImplemented)
}

// Close releases the client's connection pool
func (p *Processor) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *Processor) ready() error {
	if p.client == nil {
		return errors.New("paynow: processor is not initialized")
	}
	return nil
}
