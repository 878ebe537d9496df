package settlement_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renthub/rent-ledger/internal/domain"
	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	handler "github.com/renthub/rent-ledger/internal/handlers/settlement"
	settlementsvc "github.com/renthub/rent-ledger/internal/services/settlement"
	"github.com/renthub/rent-ledger/pkg/resilience"
)

// MockService mocks the settlement service
type MockService struct {
	mock.Mock
}

func (m *MockService) Settle(ctx context.Context, cmd settlementsvc.SettleCommand) (*settlementsvc.SettleResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlementsvc.SettleResult), args.Error(1)
}

func (m *MockService) GetBill(ctx context.Context, billID uuid.UUID) (*models.PaymentRequest, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRequest), args.Error(1)
}

func (m *MockService) ListBills(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRequest, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRequest), args.Error(1)
}

func (m *MockService) GetBalance(ctx context.Context, tenantID, occupancyID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, occupancyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockService) ListPayments(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRecord), args.Error(1)
}

type noopLogger struct{}

func (noopLogger) Info(msg string, fields ...ports.Field)  {}
func (noopLogger) Error(msg string, fields ...ports.Field) {}
func (noopLogger) Warn(msg string, fields ...ports.Field)  {}
func (noopLogger) Debug(msg string, fields ...ports.Field) {}

func newRouter(svc *MockService) chi.Router {
	h := handler.NewHandler(svc, resilience.TestTimeoutConfig(), noopLogger{})
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestHandler_Settle_Success(t *testing.T) {
	svc := new(MockService)
	billID := uuid.New()

	svc.On("Settle", mock.Anything, settlementsvc.SettleCommand{
		BillID:    billID,
		Method:    models.MethodStripe,
		Reference: "pi_123",
	}).Return(&settlementsvc.SettleResult{
		Success:      true,
		ExcessAmount: decimal.NewFromInt(500),
	}, nil)

	body := `{"payment_request_id":"` + billID.String() + `","gateway":"stripe","reference":"pi_123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, false, resp["already_paid"])
	assert.Equal(t, "500.00", resp["excess_amount"])
	svc.AssertExpectations(t)
}

func TestHandler_Settle_ErrorMapping(t *testing.T) {
	billID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation error",
			err:        domain.NewDomainError(domain.ErrorCodeValidationMissingField, "settlement reference is required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_MISSING_FIELD",
		},
		{
			name:       "bill not found",
			err:        domain.ErrBillNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "BILL_NOT_FOUND",
		},
		{
			name:       "already paid via another gateway",
			err:        domain.NewDomainError(domain.ErrorCodeBillAlreadyPaid, "bill already settled through a different gateway"),
			wantStatus: http.StatusConflict,
			wantCode:   "BILL_ALREADY_PAID",
		},
		{
			name:       "verification failed",
			err:        domain.ErrVerificationFailed,
			wantStatus: http.StatusBadGateway,
			wantCode:   "GATEWAY_VERIFICATION_FAILED",
		},
		{
			name:       "gateway timeout",
			err:        domain.ErrGatewayTimedOut,
			wantStatus: http.StatusBadGateway,
			wantCode:   "GATEWAY_TIMEOUT",
		},
		{
			name:       "store failure",
			err:        domain.ErrDatabaseError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_DATABASE_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Settle", mock.Anything, mock.Anything).Return(nil, tt.err)

			body := `{"payment_request_id":"` + billID.String() + `","gateway":"stripe","reference":"pi_1"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements", strings.NewReader(body))
			rec := httptest.NewRecorder()

			newRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp["code"])
			assert.NotEmpty(t, resp["message"])
		})
	}
}

func TestHandler_Settle_MalformedBody(t *testing.T) {
	svc := new(MockService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	newRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestHandler_Settle_BadBillID(t *testing.T) {
	svc := new(MockService)

	body := `{"payment_request_id":"not-a-uuid","gateway":"stripe","reference":"pi_1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestHandler_GetBill(t *testing.T) {
	svc := new(MockService)
	occupancyID := uuid.New()
	paidAt := time.Date(2025, time.March, 16, 10, 0, 0, 0, time.UTC)
	bill := &models.PaymentRequest{
		ID:               uuid.New(),
		TenantID:         uuid.New(),
		LandlordID:       uuid.New(),
		PropertyID:       uuid.New(),
		OccupancyID:      &occupancyID,
		DueDate:          time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
		RentAmount:       decimal.NewFromInt(5000),
		WaterAmount:      decimal.NewFromInt(200),
		ElectricalAmount: decimal.NewFromInt(300),
		Status:           models.BillStatusPaid,
		PaymentMethod:    models.MethodStripe,
		Description:      "March 2025 rent (Via Stripe)",
		PaidAt:           &paidAt,
	}

	svc.On("GetBill", mock.Anything, bill.ID).Return(bill, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/"+bill.ID.String(), nil)
	rec := httptest.NewRecorder()

	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, bill.ID.String(), resp["id"])
	assert.Equal(t, "5500.00", resp["total"])
	assert.Equal(t, "paid", resp["status"])
	assert.Equal(t, "March 2025 rent (Via Stripe)", resp["description"])
}

func TestHandler_GetBalance(t *testing.T) {
	svc := new(MockService)
	tenantID := uuid.New()
	occupancyID := uuid.New()

	svc.On("GetBalance", mock.Anything, tenantID, occupancyID).
		Return(decimal.NewFromFloat(1234.50), nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/tenants/"+tenantID.String()+"/balances/"+occupancyID.String(), nil)
	rec := httptest.NewRecorder()

	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1234.50", resp["amount"])
	assert.Equal(t, tenantID.String(), resp["tenant_id"])
}

func TestHandler_ListPayments_Pagination(t *testing.T) {
	svc := new(MockService)
	tenantID := uuid.New()

	svc.On("ListPayments", mock.Anything, tenantID, int32(10), int32(20)).
		Return([]*models.PaymentRecord{}, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/tenants/"+tenantID.String()+"/payments?limit=10&offset=20", nil)
	rec := httptest.NewRecorder()

	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
