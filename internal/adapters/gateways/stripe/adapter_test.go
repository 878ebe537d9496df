package stripe_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renthub/rent-ledger/internal/adapters/gateways/stripe"
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

func newAdapter(client *MockHTTPClient) *stripe.Adapter {
	return stripe.New(stripe.Config{
		BaseURL:   "https://api.stripe.test",
		SecretKey: "sk_test_123",
	}, client, resilience.TestTimeoutConfig(), noopLogger{})
}

func TestAdapter_Name(t *testing.T) {
	assert.Equal(t, models.MethodStripe, newAdapter(new(MockHTTPClient)).Name())
}

func TestAdapter_Verify_Succeeded(t *testing.T) {
	client := new(MockHTTPClient)
	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodGet &&
			req.URL.Path == "/v1/payment_intents/pi_123" &&
			req.Header.Get("Authorization") == "Bearer sk_test_123"
	})).Return(jsonResponse(http.StatusOK,
		`{"id":"pi_123","status":"succeeded","amount_received":550000,"currency":"php"}`), nil)

	result, err := newAdapter(client).Verify(context.Background(), "pi_123")

	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, "pi_123", result.ExternalTransactionID)
	assert.True(t, result.AmountPaid.Equal(decimal.NewFromInt(5500)))
	client.AssertExpectations(t)
}

func TestAdapter_Verify_NotSucceeded(t *testing.T) {
	client := new(MockHTTPClient)
	client.On("Do", mock.Anything).Return(jsonResponse(http.StatusOK,
		`{"id":"pi_123","status":"requires_payment_method","amount_received":0}`), nil)

	result, err := newAdapter(client).Verify(context.Background(), "pi_123")

	require.Error(t, err)
	assert.Nil(t, result)
	var verr *gwerrors.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, gwerrors.CategoryNotPaid, verr.Category)
	assert.False(t, verr.IsRetriable)
}

func TestAdapter_Verify_NotFound(t *testing.T) {
	client := new(MockHTTPClient)
	client.On("Do", mock.Anything).Return(jsonResponse(http.StatusNotFound,
		`{"error":{"type":"invalid_request_error"}}`), nil)

	_, err := newAdapter(client).Verify(context.Background(), "pi_missing")

	var verr *gwerrors.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, gwerrors.CategoryNotFound, verr.Category)
}

func TestAdapter_Verify_Timeout(t *testing.T) {
	client := new(MockHTTPClient)
	client.On("Do", mock.Anything).Return(nil, context.DeadlineExceeded)

	_, err := newAdapter(client).Verify(context.Background(), "pi_123")

	var verr *gwerrors.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, gwerrors.CategoryTimeout, verr.Category)
	assert.True(t, verr.IsRetriable)
}

func TestAdapter_Verify_NetworkError(t *testing.T) {
	client := new(MockHTTPClient)
	client.On("Do", mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := newAdapter(client).Verify(context.Background(), "pi_123")

	var verr *gwerrors.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, gwerrors.CategoryNetworkError, verr.Category)
	assert.True(t, verr.IsRetriable)
}

func TestAdapter_Verify_EmptyReference(t *testing.T) {
	client := new(MockHTTPClient)

	_, err := newAdapter(client).Verify(context.Background(), "")

	require.Error(t, err)
	client.AssertNotCalled(t, "Do", mock.Anything)
}
