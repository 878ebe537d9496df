package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/renthub/rent-ledger/internal/domain"
	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/renthub/rent-ledger/pkg/gwerrors"
	"github.com/renthub/rent-ledger/pkg/resilience"
)

const gatewayName = "stripe"

// Config holds Stripe API configuration
type Config struct {
	BaseURL   string // e.g. https://api.stripe.com
	SecretKey string // sk_live_... / sk_test_...
}

// Adapter implements ports.Gateway for Stripe PaymentIntents
type Adapter struct {
	config     Config
	httpClient ports.HTTPClient
	timeouts   *resilience.TimeoutConfig
	logger     ports.Logger
}

// New creates a new Stripe adapter with dependency injection
func New(config Config, httpClient ports.HTTPClient, timeouts *resilience.TimeoutConfig, logger ports.Logger) *Adapter {
	return &Adapter{
		config:     config,
		httpClient: httpClient,
		timeouts:   timeouts,
		logger:     logger,
	}
}

// Name implements ports.Gateway
func (a *Adapter) Name() models.PaymentMethod {
	return models.MethodStripe
}

// paymentIntent is the subset of Stripe's PaymentIntent object we read
type paymentIntent struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	AmountReceived int64  `json:"amount_received"`
	Currency       string `json:"currency"`
}

// Verify retrieves the PaymentIntent and accepts it only in the
// "succeeded" state. The intent amount is in minor units.
func (a *Adapter) Verify(ctx context.Context, reference string) (*ports.VerificationResult, error) {
	if reference == "" {
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotFound, "payment intent id is required")
	}

	ctx, cancel := a.timeouts.GatewayContext(ctx)
	defer cancel()

	var intent paymentIntent
	if err := a.get(ctx, "/v1/payment_intents/"+reference, &intent); err != nil {
		return nil, err
	}

	if intent.Status != "succeeded" {
		a.logger.Warn("stripe payment intent not in succeeded state",
			ports.String("payment_intent_id", reference),
			ports.String("status", intent.Status))
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotPaid,
			fmt.Sprintf("payment intent status is %q", intent.Status))
	}

	return &ports.VerificationResult{
		AmountPaid:            domain.AmountFromMinorUnits(intent.AmountReceived),
		ExternalTransactionID: intent.ID,
		Verified:              true,
	}, nil
}

func (a *Adapter) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+endpoint, nil)
	if err != nil {
		return gwerrors.Wrap(gatewayName, gwerrors.CategoryNetworkError, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.SecretKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return gwerrors.Wrap(gatewayName, gwerrors.CategoryTimeout, "request timed out", err)
		}
		return gwerrors.Wrap(gatewayName, gwerrors.CategoryNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gwerrors.Wrap(gatewayName, gwerrors.CategoryNetworkError, "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return gwerrors.New(gatewayName, gwerrors.CategoryNotFound, "no such payment intent")
	case resp.StatusCode == http.StatusUnauthorized:
		return gwerrors.New(gatewayName, gwerrors.CategoryAuth, "secret key rejected")
	case resp.StatusCode != http.StatusOK:
		return gwerrors.New(gatewayName, gwerrors.CategoryBadResponse,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return gwerrors.Wrap(gatewayName, gwerrors.CategoryBadResponse, "decode response", err)
	}
	return nil
}
