package external

import (
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"

	apperrors "tessera/internal/errors"
)

type PaymentConfig struct {
	SecretKey string
	Currency  string
	Timeout   time.Duration
}

// PaymentClient talks to Stripe. Amounts are minor units throughout, so no
// unit conversion happens here.
type PaymentClient struct {
	currency string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	stripe.Key = cfg.SecretKey
	if cfg.Timeout > 0 {
		stripe.SetHTTPClient(&http.Client{Timeout: cfg.Timeout})
	}

	return &PaymentClient{currency: cfg.Currency}
}

// CreateIntent opens a payment intent for a reservation. The reservation id
// rides along in metadata so the processor dashboard can be cross-referenced.
func (c *PaymentClient) CreateIntent(amount int64, reservationID string, buyerEmail string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(c.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(buyerEmail),
		Metadata: map[string]string{
			"reservation_id": reservationID,
		},
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, translateStripe(err)
	}

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}, nil
}

// GetIntent fetches the current state of an intent.
func (c *PaymentClient) GetIntent(reference string) (*PaymentIntent, error) {
	pi, err := paymentintent.Get(reference, nil)
	if err != nil {
		return nil, translateStripe(err)
	}

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}, nil
}

// Refund returns amount minor units against the intent. A processor-side
// rejection comes back as a refund-failed error; transport problems come back
// as processor-unavailable.
func (c *PaymentClient) Refund(reference string, amount int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Amount:        stripe.Int64(amount),
	}

	if _, err := refund.New(params); err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return apperrors.RefundFailed(err)
		}
		return apperrors.ProcessorUnavailable(err)
	}

	return nil
}

func translateStripe(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode < 500 {
		return apperrors.Wrap(apperrors.KindInvalidInput, "payment processor rejected request", err)
	}
	return apperrors.ProcessorUnavailable(err)
}
