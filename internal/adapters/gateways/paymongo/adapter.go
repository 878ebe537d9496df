package paymongo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/renthub/rent-ledger/internal/domain"
	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/renthub/rent-ledger/pkg/gwerrors"
	"github.com/renthub/rent-ledger/pkg/resilience"
)

const (
	gatewayName = "paymongo"

	// checkout session ids carry this prefix; everything else is a link id
	sessionPrefix = "cs_"
)

// Config holds PayMongo API configuration
type Config struct {
	BaseURL   string // e.g. https://api.paymongo.com
	SecretKey string // sk_live_... / sk_test_...
}

// Adapter implements ports.Gateway for PayMongo checkout sessions and links
type Adapter struct {
	config     Config
	httpClient ports.HTTPClient
	timeouts   *resilience.TimeoutConfig
	logger     ports.Logger
}

// New creates a new PayMongo adapter with dependency injection
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
	return models.MethodPayMongo
}

type payment struct {
	ID         string `json:"id"`
	Attributes struct {
		Status                  string `json:"status"`
		Amount                  int64  `json:"amount"`
		ExternalReferenceNumber string `json:"external_reference_number"`
	} `json:"attributes"`
}

type sessionResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Payments []payment `json:"payments"`
		} `json:"attributes"`
	} `json:"data"`
}

type linkResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status          string `json:"status"`
			ReferenceNumber string `json:"reference_number"`
			Payments        []struct {
				Data payment `json:"data"`
			} `json:"payments"`
		} `json:"attributes"`
	} `json:"data"`
}

// Verify dispatches on the reference prefix: cs_* references are checkout
// sessions, anything else is treated as a payment link id.
func (a *Adapter) Verify(ctx context.Context, reference string) (*ports.VerificationResult, error) {
	if reference == "" {
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotFound, "reference is required")
	}

	ctx, cancel := a.timeouts.GatewayContext(ctx)
	defer cancel()

	if strings.HasPrefix(reference, sessionPrefix) {
		return a.verifySession(ctx, reference)
	}
	return a.verifyLink(ctx, reference)
}

func (a *Adapter) verifySession(ctx context.Context, sessionID string) (*ports.VerificationResult, error) {
	var session sessionResponse
	if err := a.get(ctx, "/v1/checkout_sessions/"+sessionID, &session); err != nil {
		return nil, err
	}

	for _, p := range session.Data.Attributes.Payments {
		if p.Attributes.Status != "paid" {
			continue
		}
		txnID := p.Attributes.ExternalReferenceNumber
		if txnID == "" {
			txnID = p.ID
		}
		return &ports.VerificationResult{
			AmountPaid:            domain.AmountFromMinorUnits(p.Attributes.Amount),
			ExternalTransactionID: txnID,
			Verified:              true,
		}, nil
	}

	a.logger.Warn("paymongo checkout session has no paid payment",
		ports.String("session_id", sessionID))
	return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotPaid, "checkout session has no paid payment")
}

func (a *Adapter) verifyLink(ctx context.Context, linkID string) (*ports.VerificationResult, error) {
	var link linkResponse
	if err := a.get(ctx, "/v1/links/"+linkID, &link); err != nil {
		return nil, err
	}

	if link.Data.Attributes.Status != "paid" {
		a.logger.Warn("paymongo link not paid",
			ports.String("link_id", linkID),
			ports.String("status", link.Data.Attributes.Status))
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotPaid,
			fmt.Sprintf("link status is %q", link.Data.Attributes.Status))
	}

	var paid *payment
	for i := range link.Data.Attributes.Payments {
		p := &link.Data.Attributes.Payments[i].Data
		if p.Attributes.Status == "paid" {
			paid = p
			break
		}
	}
	if paid == nil {
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryBadResponse, "paid link has no payment attached")
	}

	// transaction id preference: provider reference, then the link's own
	// displayed reference number, then the payment resource id
	txnID := paid.Attributes.ExternalReferenceNumber
	if txnID == "" {
		txnID = link.Data.Attributes.ReferenceNumber
	}
	if txnID == "" {
		txnID = paid.ID
	}

	return &ports.VerificationResult{
		AmountPaid:            domain.AmountFromMinorUnits(paid.Attributes.Amount),
		ExternalTransactionID: txnID,
		Verified:              true,
	}, nil
}

func (a *Adapter) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+endpoint, nil)
	if err != nil {
		return gwerrors.Wrap(gatewayName, gwerrors.CategoryNetworkError, "build request", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(a.config.SecretKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")

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
		return gwerrors.New(gatewayName, gwerrors.CategoryNotFound, "resource not found")
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
