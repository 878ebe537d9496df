package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/renthub/rent-ledger/internal/domain"
	"github.com/renthub/rent-ledger/internal/domain/models"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	settlementsvc "github.com/renthub/rent-ledger/internal/services/settlement"
	"github.com/renthub/rent-ledger/pkg/resilience"
)

// Service is the slice of the settlement engine this handler exposes
type Service interface {
	Settle(ctx context.Context, cmd settlementsvc.SettleCommand) (*settlementsvc.SettleResult, error)
	GetBill(ctx context.Context, billID uuid.UUID) (*models.PaymentRequest, error)
	ListBills(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRequest, error)
	GetBalance(ctx context.Context, tenantID, occupancyID uuid.UUID) (decimal.Decimal, error)
	ListPayments(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*models.PaymentRecord, error)
}

// Handler exposes the settlement engine over HTTP
type Handler struct {
	service  Service
	timeouts *resilience.TimeoutConfig
	logger   ports.Logger
}

// NewHandler creates a new settlement HTTP handler
func NewHandler(service Service, timeouts *resilience.TimeoutConfig, logger ports.Logger) *Handler {
	return &Handler{
		service:  service,
		timeouts: timeouts,
		logger:   logger,
	}
}

// Routes mounts the handler's endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/v1/settlements", h.Settle)
	r.Get("/api/v1/bills/{billID}", h.GetBill)
	r.Get("/api/v1/tenants/{tenantID}/bills", h.ListBills)
	r.Get("/api/v1/tenants/{tenantID}/balances/{occupancyID}", h.GetBalance)
	r.Get("/api/v1/tenants/{tenantID}/payments", h.ListPayments)
}

type settleRequest struct {
	PaymentRequestID string `json:"payment_request_id"`
	Gateway          string `json:"gateway"`
	Reference        string `json:"reference"`
}

type settleResponse struct {
	Success      bool   `json:"success"`
	AlreadyPaid  bool   `json:"already_paid"`
	ExcessAmount string `json:"excess_amount"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Settle handles POST /api/v1/settlements
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "request body is not valid JSON"))
		return
	}

	billID, err := uuid.Parse(req.PaymentRequestID)
	if err != nil {
		h.writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "payment_request_id is not a valid id"))
		return
	}

	result, err := h.service.Settle(ctx, settlementsvc.SettleCommand{
		BillID:    billID,
		Method:    models.PaymentMethod(req.Gateway),
		Reference: req.Reference,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, settleResponse{
		Success:      result.Success,
		AlreadyPaid:  result.AlreadyPaid,
		ExcessAmount: result.ExcessAmount.StringFixed(2),
	})
}

type billResponse struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	LandlordID  string  `json:"landlord_id"`
	PropertyID  string  `json:"property_id"`
	OccupancyID *string `json:"occupancy_id,omitempty"`
	DueDate     string  `json:"due_date"`

	RentAmount       string `json:"rent_amount"`
	AdvanceAmount    string `json:"advance_amount"`
	SecurityDeposit  string `json:"security_deposit"`
	WaterAmount      string `json:"water_amount"`
	ElectricalAmount string `json:"electrical_amount"`
	WifiAmount       string `json:"wifi_amount"`
	OtherAmount      string `json:"other_amount"`
	Total            string `json:"total"`

	Status                string  `json:"status"`
	PaymentMethod         string  `json:"payment_method,omitempty"`
	TenantReferenceNumber string  `json:"tenant_reference_number,omitempty"`
	PaymentID             *string `json:"payment_id,omitempty"`
	Description           string  `json:"description,omitempty"`

	IsMoveInPayment  bool `json:"is_move_in_payment"`
	IsAdvancePayment bool `json:"is_advance_payment"`
	IsRenewalPayment bool `json:"is_renewal_payment"`

	PaidAt *string `json:"paid_at,omitempty"`
}

// GetBill handles GET /api/v1/bills/{billID}
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	billID, err := uuid.Parse(chi.URLParam(r, "billID"))
	if err != nil {
		h.writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "bill id is not a valid id"))
		return
	}

	bill, err := h.service.GetBill(ctx, billID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toBillResponse(bill))
}

// ListBills handles GET /api/v1/tenants/{tenantID}/bills
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		h.writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "tenant id is not a valid id"))
		return
	}

	limit, offset := pagination(r)
	bills, err := h.service.ListBills(ctx, tenantID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillResponse(b))
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"bills": out})
}

type balanceResponse struct {
	TenantID    string `json:"tenant_id"`
	OccupancyID string `json:"occupancy_id"`
	Amount      string `json:"amount"`
}

// GetBalance handles GET /api/v1/tenants/{tenantID}/balances/{occupancyID}
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		h.writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "tenant id is not a valid id"))
		return
	}
	occupancyID, err := uuid.Parse(chi.URLParam(r, "occupancyID"))
	if err != nil {
		h.writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "occupancy id is not a valid id"))
		return
	}

	amount, err := h.service.GetBalance(ctx, tenantID, occupancyID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, balanceResponse{
		TenantID:    tenantID.String(),
		OccupancyID: occupancyID.String(),
		Amount:      amount.StringFixed(2),
	})
}

type paymentResponse struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	LandlordID string `json:"landlord_id"`
	PropertyID string `json:"property_id"`
	Amount     string `json:"amount"`
	Method     string `json:"method"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	PaidAt     string `json:"paid_at"`
}

// ListPayments handles GET /api/v1/tenants/{tenantID}/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		h.writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "tenant id is not a valid id"))
		return
	}

	limit, offset := pagination(r)
	records, err := h.service.ListPayments(ctx, tenantID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]paymentResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, paymentResponse{
			ID:         rec.ID.String(),
			TenantID:   rec.TenantID.String(),
			LandlordID: rec.LandlordID.String(),
			PropertyID: rec.PropertyID.String(),
			Amount:     rec.Amount.StringFixed(2),
			Method:     string(rec.Method),
			Currency:   rec.Currency,
			Status:     string(rec.Status),
			PaidAt:     rec.PaidAt.Format(time.RFC3339),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"payments": out})
}

func toBillResponse(b *models.PaymentRequest) billResponse {
	resp := billResponse{
		ID:         b.ID.String(),
		TenantID:   b.TenantID.String(),
		LandlordID: b.LandlordID.String(),
		PropertyID: b.PropertyID.String(),
		DueDate:    b.DueDate.Format("2006-01-02"),

		RentAmount:       b.RentAmount.StringFixed(2),
		AdvanceAmount:    b.AdvanceAmount.StringFixed(2),
		SecurityDeposit:  b.SecurityDeposit.StringFixed(2),
		WaterAmount:      b.WaterAmount.StringFixed(2),
		ElectricalAmount: b.ElectricalAmount.StringFixed(2),
		WifiAmount:       b.WifiAmount.StringFixed(2),
		OtherAmount:      b.OtherAmount.StringFixed(2),
		Total:            b.RequestTotal().StringFixed(2),

		Status:                string(b.Status),
		PaymentMethod:         string(b.PaymentMethod),
		TenantReferenceNumber: b.TenantReferenceNumber,
		Description:           b.Description,

		IsMoveInPayment:  b.IsMoveInPayment,
		IsAdvancePayment: b.IsAdvancePayment,
		IsRenewalPayment: b.IsRenewalPayment,
	}
	if b.OccupancyID != nil {
		s := b.OccupancyID.String()
		resp.OccupancyID = &s
	}
	if b.PaymentID != nil {
		s := b.PaymentID.String()
		resp.PaymentID = &s
	}
	if b.PaidAt != nil {
		s := b.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &s
	}
	return resp
}

func pagination(r *http.Request) (limit, offset int32) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil && n > 0 {
			limit = int32(n)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil && n >= 0 {
			offset = int32(n)
		}
	}
	return limit, offset
}

// writeError maps domain errors onto HTTP status codes: validation 400,
// already-paid conflicts 409, not-found 404, gateway failures 502,
// everything else 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := domain.ErrorCodeInternalError
	message := "internal server error"

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
		switch {
		case domain.IsValidationError(err):
			status = http.StatusBadRequest
		case domain.IsNotFoundError(err):
			status = http.StatusNotFound
		case code == domain.ErrorCodeBillAlreadyPaid || code == domain.ErrorCodeBillImmutable:
			status = http.StatusConflict
		case domain.IsGatewayError(err):
			status = http.StatusBadGateway
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", ports.Err(err))
	} else {
		h.logger.Warn("request rejected",
			ports.String("code", string(code)),
			ports.String("message", message))
	}

	h.writeJSON(w, status, errorResponse{Message: message, Code: string(code)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", ports.Err(err))
	}
}
