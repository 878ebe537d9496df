package paypal_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renthub/rent-ledger/internal/adapters/gateways/paypal"
	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/renthub/rent-ledger/pkg/gwerrors"
	"github.com/renthub/rent-ledger/pkg/resilience"
)

// MockHTTPClient mocks the HTTP client
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

type noopLogger struct{}

func (noopLogger) Info(msg string, fields ...ports.Field)  {}
func (noopLogger) Error(msg string, fields ...ports.Field) {}
func (noopLogger) Warn(msg string, fields ...ports.Field)  {}
func (noopLogger) Debug(msg string, fields ...ports.Field) {}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newAdapter(client *MockHTTPClient) *paypal.Adapter {
	return paypal.New(paypal.Config{
		BaseURL:      "https://api-m.paypal.test",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}, client, resilience.TestTimeoutConfig(), noopLogger{})
}

const tokenBody = `{"access_token":"A21.token","token_type":"Bearer","expires_in":32400}`

func expectToken(client *MockHTTPClient) {
	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		if req.URL.Path != "/v1/oauth2/token" || req.Method != http.MethodPost {
			return false
		}
		user, pass, ok := req.BasicAuth()
		return ok && user == "client-id" && pass == "client-secret"
	})).Return(jsonResponse(http.StatusOK, tokenBody), nil).Once()
}

func completedOrderBody(orderID, captureID, value string) string {
	return `{
		"id": "` + orderID + `",
		"status": "COMPLETED",
		"purchase_units": [
			{"payments": {"captures": [{"id": "` + captureID + `", "status": "COMPLETED", "amount": {"value": "` + value + `", "currency_code": "PHP"}}]}}
		]
	}`
}

func TestAdapter_Name(t *testing.T) {
	assert.Equal(t, models.MethodPayPal, newAdapter(new(MockHTTPClient)).Name())
}

func TestAdapter_Verify_CapturesOrder(t *testing.T) {
	client := new(MockHTTPClient)
	expectToken(client)
	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodPost &&
			req.URL.Path == "/v2/checkout/orders/ORDER1/capture" &&
			req.Header.Get("Authorization") == "Bearer A21.token"
	})).Return(jsonResponse(http.StatusCreated, completedOrderBody("ORDER1", "CAP1", "5500.50")), nil).Once()

	result, err := newAdapter(client).Verify(context.Background(), "ORDER1")

	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, "CAP1", result.ExternalTransactionID)
	assert.True(t, result.AmountPaid.Equal(decimal.RequireFromString("5500.50")))
	client.AssertExpectations(t)
}

func TestAdapter_Verify_AlreadyCapturedReadsExistingCapture(t *testing.T) {
	client := new(MockHTTPClient)
	expectToken(client)
	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodPost && req.URL.Path == "/v2/checkout/orders/ORDER1/capture"
	})).Return(jsonResponse(http.StatusUnprocessableEntity, `{
		"name": "UNPROCESSABLE_ENTITY",
		"details": [{"issue": "ORDER_ALREADY_CAPTURED", "description": "Order already captured."}]
	}`), nil).Once()
	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodGet && req.URL.Path == "/v2/checkout/orders/ORDER1"
	})).Return(jsonResponse(http.StatusOK, completedOrderBody("ORDER1", "CAP9", "12000.00")), nil).Once()

	result, err := newAdapter(client).Verify(context.Background(), "ORDER1")

	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, "CAP9", result.ExternalTransactionID)
	assert.True(t, result.AmountPaid.Equal(decimal.NewFromInt(12000)))
	client.AssertExpectations(t)
}

func TestAdapter_Verify_NotCapturable(t *testing.T) {
	client := new(MockHTTPClient)
	expectToken(client)
	client.On("Do", mock.Anything).Return(jsonResponse(http.StatusUnprocessableEntity, `{
		"name": "UNPROCESSABLE_ENTITY",
		"details": [{"issue": "ORDER_NOT_APPROVED", "description": "Payer has not approved the order."}]
	}`), nil).Once()

	_, err := newAdapter(client).Verify(context.Background(), "ORDER1")

	var verr *gwerrors.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, gwerrors.CategoryNotPaid, verr.Category)
}

func TestAdapter_Verify_OrderNotFound(t *testing.T) {
	client := new(MockHTTPClient)
	expectToken(client)
	client.On("Do", mock.Anything).Return(jsonResponse(http.StatusNotFound, `{"name":"RESOURCE_NOT_FOUND"}`), nil).Once()

	_, err := newAdapter(client).Verify(context.Background(), "ORDER_MISSING")

	var verr *gwerrors.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, gwerrors.CategoryNotFound, verr.Category)
}

func TestAdapter_Verify_TokenRejected(t *testing.T) {
	client := new(MockHTTPClient)
	client.On("Do", mock.Anything).Return(jsonResponse(http.StatusUnauthorized, `{"error":"invalid_client"}`), nil).Once()

	_, err := newAdapter(client).Verify(context.Background(), "ORDER1")

	var verr *gwerrors.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, gwerrors.CategoryAuth, verr.Category)
	client.AssertNumberOfCalls(t, "Do", 1)
}

func TestAdapter_Verify_TimeoutDuringCapture(t *testing.T) {
	client := new(MockHTTPClient)
	expectToken(client)
	client.On("Do", mock.Anything).Return(nil, context.DeadlineExceeded).Once()

	_, err := newAdapter(client).Verify(context.Background(), "ORDER1")

	var verr *gwerrors.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, gwerrors.CategoryTimeout, verr.Category)
	assert.True(t, verr.IsRetriable)
}

func TestAdapter_Verify_CompletedOrderWithoutCompletedCapture(t *testing.T) {
	client := new(MockHTTPClient)
	expectToken(client)
	client.On("Do", mock.Anything).Return(jsonResponse(http.StatusCreated, `{
		"id": "ORDER1",
		"status": "COMPLETED",
		"purchase_units": [{"payments": {"captures": [{"id": "CAP1", "status": "PENDING", "amount": {"value": "100.00"}}]}}]
	}`), nil).Once()

	_, err := newAdapter(client).Verify(context.Background(), "ORDER1")

	var verr *gwerrors.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, gwerrors.CategoryBadResponse, verr.Category)
}
