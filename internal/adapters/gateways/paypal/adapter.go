package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/renthub/rent-ledger/pkg/gwerrors"
	"github.com/renthub/rent-ledger/pkg/resilience"
)

const gatewayName = "paypal"

// Config holds PayPal REST API configuration
type Config struct {
	BaseURL      string // e.g. https://api-m.paypal.com
	ClientID     string
	ClientSecret string
}

// Adapter implements ports.Gateway for PayPal checkout orders
type Adapter struct {
	config     Config
	httpClient ports.HTTPClient
	timeouts   *resilience.TimeoutConfig
	logger     ports.Logger
}

// New creates a new PayPal adapter with dependency injection
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
	return models.MethodPayPal
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount struct {
		Value        string `json:"value"`
		CurrencyCode string `json:"currency_code"`
	} `json:"amount"`
}

type order struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []capture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

// Verify captures the approved order. An order that was already captured
// (for example when a previous attempt committed on the PayPal side but the
// settlement did not) is treated as verified, not as a failure: the order is
// re-fetched and the existing capture is read back.
func (a *Adapter) Verify(ctx context.Context, reference string) (*ports.VerificationResult, error) {
	if reference == "" {
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotFound, "order id is required")
	}

	ctx, cancel := a.timeouts.GatewayContext(ctx)
	defer cancel()

	token, err := a.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	captured, alreadyCaptured, err := a.captureOrder(ctx, token, reference)
	if err != nil {
		return nil, err
	}
	if alreadyCaptured {
		a.logger.Info("paypal order already captured, reading existing capture",
			ports.String("order_id", reference))
		captured, err = a.getOrder(ctx, token, reference)
		if err != nil {
			return nil, err
		}
	}

	return a.resultFromOrder(captured)
}

func (a *Adapter) resultFromOrder(o *order) (*ports.VerificationResult, error) {
	if o.Status != "COMPLETED" {
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryNotPaid,
			fmt.Sprintf("order status is %q", o.Status))
	}

	var done *capture
	for i := range o.PurchaseUnits {
		for j := range o.PurchaseUnits[i].Payments.Captures {
			c := &o.PurchaseUnits[i].Payments.Captures[j]
			if c.Status == "COMPLETED" {
				done = c
				break
			}
		}
	}
	if done == nil {
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryBadResponse, "completed order has no completed capture")
	}

	amount, err := decimal.NewFromString(done.Amount.Value)
	if err != nil {
		return nil, gwerrors.Wrap(gatewayName, gwerrors.CategoryBadResponse, "parse capture amount", err)
	}

	return &ports.VerificationResult{
		AmountPaid:            amount,
		ExternalTransactionID: done.ID,
		Verified:              true,
	}, nil
}

func (a *Adapter) getAccessToken(ctx context.Context) (string, error) {
	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/v1/oauth2/token", body)
	if err != nil {
		return "", gwerrors.Wrap(gatewayName, gwerrors.CategoryNetworkError, "build token request", err)
	}
	req.SetBasicAuth(a.config.ClientID, a.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	respBody, status, err := a.do(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", gwerrors.New(gatewayName, gwerrors.CategoryAuth,
			fmt.Sprintf("token request rejected with status %d", status))
	}

	var token tokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return "", gwerrors.Wrap(gatewayName, gwerrors.CategoryBadResponse, "decode token response", err)
	}
	if token.AccessToken == "" {
		return "", gwerrors.New(gatewayName, gwerrors.CategoryAuth, "token response has no access token")
	}
	return token.AccessToken, nil
}

// captureOrder returns alreadyCaptured=true when PayPal reports the order
// was captured by an earlier attempt.
func (a *Adapter) captureOrder(ctx context.Context, token, orderID string) (*order, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/v2/checkout/orders/"+orderID+"/capture", strings.NewReader("{}"))
	if err != nil {
		return nil, false, gwerrors.Wrap(gatewayName, gwerrors.CategoryNetworkError, "build capture request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	respBody, status, err := a.do(req)
	if err != nil {
		return nil, false, err
	}

	switch status {
	case http.StatusCreated, http.StatusOK:
		var o order
		if err := json.Unmarshal(respBody, &o); err != nil {
			return nil, false, gwerrors.Wrap(gatewayName, gwerrors.CategoryBadResponse, "decode capture response", err)
		}
		return &o, false, nil
	case http.StatusUnprocessableEntity:
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil {
			for _, d := range apiErr.Details {
				if d.Issue == "ORDER_ALREADY_CAPTURED" {
					return nil, true, nil
				}
			}
		}
		return nil, false, gwerrors.New(gatewayName, gwerrors.CategoryNotPaid,
			fmt.Sprintf("order not capturable: %s", apiErr.Name))
	case http.StatusNotFound:
		return nil, false, gwerrors.New(gatewayName, gwerrors.CategoryNotFound, "no such order")
	case http.StatusUnauthorized:
		return nil, false, gwerrors.New(gatewayName, gwerrors.CategoryAuth, "access token rejected")
	default:
		return nil, false, gwerrors.New(gatewayName, gwerrors.CategoryBadResponse,
			fmt.Sprintf("unexpected status %d", status))
	}
}

func (a *Adapter) getOrder(ctx context.Context, token, orderID string) (*order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.BaseURL+"/v2/checkout/orders/"+orderID, nil)
	if err != nil {
		return nil, gwerrors.Wrap(gatewayName, gwerrors.CategoryNetworkError, "build order request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	respBody, status, err := a.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, gwerrors.New(gatewayName, gwerrors.CategoryBadResponse,
			fmt.Sprintf("unexpected status %d", status))
	}

	var o order
	if err := json.Unmarshal(respBody, &o); err != nil {
		return nil, gwerrors.Wrap(gatewayName, gwerrors.CategoryBadResponse, "decode order response", err)
	}
	return &o, nil
}

func (a *Adapter) do(req *http.Request) ([]byte, int, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, gwerrors.Wrap(gatewayName, gwerrors.CategoryTimeout, "request timed out", err)
		}
		return nil, 0, gwerrors.Wrap(gatewayName, gwerrors.CategoryNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, gwerrors.Wrap(gatewayName, gwerrors.CategoryNetworkError, "read response", err)
	}
	return body, resp.StatusCode, nil
}
