package cart

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Handler wires cart pricing to HTTP.
type Handler struct {
	Svc *Service
}

// Routes mounts the cart endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/calculate", h.Calculate)
	r.Post("/calculate-without-validation", h.CalculateWithoutValidation)
	r.Post("/validate", h.Validate)
}

type itemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	// Quantity is passed through untouched; the validator reports non-positive values.
	Quantity int `json:"quantity"`
}

type calculateRequest struct {
	Items []itemRequest `json:"items" validate:"dive"`
}

func (req calculateRequest) lines() []pricing.CartLine {
	lines := make([]pricing.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		// Already checked by the uuid tag.
		id, _ := uuid.Parse(it.ProductID)
		lines = append(lines, pricing.CartLine{ProductID: id, Quantity: it.Quantity})
	}
	return lines
}

type lineResponse struct {
	ProductID      uuid.UUID       `json:"productId"`
	ProductName    string          `json:"productName"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalPrice     decimal.Decimal `json:"finalPrice"`
}

type appliedPolicyResponse struct {
	PolicyID  uuid.UUID              `json:"policyId"`
	Name      string                 `json:"name"`
	Target    pricing.DiscountTarget `json:"discountTarget"`
	Type      pricing.DiscountType   `json:"discountType"`
	ProductID *uuid.UUID             `json:"productId,omitempty"`
	Amount    decimal.Decimal        `json:"amount"`
}

type cartResponse struct {
	Items               []lineResponse          `json:"items"`
	TotalAmount         decimal.Decimal         `json:"totalAmount"`
	TotalItemCount      int                     `json:"totalItemCount"`
	LineDiscountAmount  decimal.Decimal         `json:"lineDiscountAmount"`
	OrderDiscountAmount decimal.Decimal         `json:"orderDiscountAmount"`
	TotalDiscountAmount decimal.Decimal         `json:"totalDiscountAmount"`
	FinalTotalAmount    decimal.Decimal         `json:"finalTotalAmount"`
	AppliedPolicies     []appliedPolicyResponse `json:"appliedPolicies"`
}

type validationResponse struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

func newCartResponse(cart pricing.PricedCart) cartResponse {
	resp := cartResponse{
		Items:               make([]lineResponse, 0, len(cart.Lines)),
		TotalAmount:         cart.Subtotal,
		TotalItemCount:      cart.ItemCount,
		LineDiscountAmount:  cart.LineDiscount,
		OrderDiscountAmount: cart.OrderDiscount,
		TotalDiscountAmount: cart.Discount,
		FinalTotalAmount:    cart.Final,
		AppliedPolicies:     make([]appliedPolicyResponse, 0, len(cart.AppliedPolicies)),
	}
	for _, line := range cart.Lines {
		resp.Items = append(resp.Items, lineResponse{
			ProductID:      line.ProductID,
			ProductName:    line.Name,
			Price:          line.UnitPrice,
			Quantity:       line.Quantity,
			TotalPrice:     line.Subtotal,
			DiscountAmount: line.Discount,
			FinalPrice:     line.Final,
		})
	}
	for _, a := range cart.AppliedPolicies {
		resp.AppliedPolicies = append(resp.AppliedPolicies, appliedPolicyResponse{
			PolicyID:  a.PolicyID,
			Name:      a.Name,
			Target:    a.Target,
			Type:      a.Type,
			ProductID: a.ProductID,
			Amount:    a.Amount,
		})
	}
	return resp
}

// Calculate handles POST /api/cart/calculate.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req calculateRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	cart, err := h.Svc.Calculate(r.Context(), req.lines())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, newCartResponse(cart))
}

// CalculateWithoutValidation handles POST /api/cart/calculate-without-validation.
func (h *Handler) CalculateWithoutValidation(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req calculateRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	cart, err := h.Svc.CalculateWithoutValidation(r.Context(), req.lines())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, newCartResponse(cart))
}

// Validate handles POST /api/cart/validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req calculateRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	violations, err := h.Svc.Validate(r.Context(), req.lines())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, validationResponse{
		IsValid: len(violations) == 0,
		Errors:  pricing.Messages(violations),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *pricing.ValidationError
	if errors.As(err, &verr) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", pricing.ErrValidationFailed.Error(), verr.Messages())
		return
	}
	common.WriteError(w, err)
}
