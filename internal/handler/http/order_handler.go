package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/fmagalhaes/storefront-backend/internal/order"
)

// PaymentRequest is the polymorphic payment payload: method is the
// discriminator, installments belongs to the card variant only. Boleto
// dates are never accepted from the caller.
type PaymentRequest struct {
	Method       string `json:"method" validate:"required,oneof=boleto card"`
	Installments *int   `json:"installments" validate:"required_if=Method card,omitempty,gt=0"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	CustomerID int64              `json:"customer_id" validate:"required,gt=0"`
	AddressID  int64              `json:"address_id" validate:"required,gt=0"`
	Payment    PaymentRequest     `json:"payment" validate:"required"`
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderItemResponse struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

type OrderResponse struct {
	ID         int64               `json:"id"`
	PlacedAt   time.Time           `json:"placed_at"`
	CustomerID int64               `json:"customer_id"`
	AddressID  int64               `json:"address_id"`
	Payment    order.Payment       `json:"payment"`
	Items      []OrderItemResponse `json:"items"`
	Total      float64             `json:"total"`
}

func newOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price,
			Discount:    item.Discount,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal(),
		})
	}
	return OrderResponse{
		ID:         o.ID,
		PlacedAt:   o.PlacedAt,
		CustomerID: o.CustomerID,
		AddressID:  o.AddressID,
		Payment:    o.Payment,
		Items:      items,
		Total:      o.Total(),
	}
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreate)
	router.Get("/orders/{id}", h.handleGetByID)
	router.Get("/customers/{id}/orders", h.handleListByCustomer)
}

func (h *OrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode order request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	items := make([]order.OrderItem, 0, len(requestPayload.Items))
	for _, item := range requestPayload.Items {
		items = append(items, order.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	domainOrder := order.Order{
		CustomerID: requestPayload.CustomerID,
		AddressID:  requestPayload.AddressID,
		Payment: order.Payment{
			Method:       order.PaymentMethod(requestPayload.Payment.Method),
			Installments: requestPayload.Payment.Installments,
		},
		Items: items,
	}

	created, err := h.service.Create(r.Context(), &domainOrder)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create order via service")
		respondWithDomainError(w, err, "Failed to create order")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/orders/%d", created.ID))
	respondWithJSON(w, http.StatusCreated, newOrderResponse(created))
}

func (h *OrderHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, newOrderResponse(found))
}

func (h *OrderHandler) handleListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	req, err := parsePageRequest(r, "placed_at")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.ListByCustomer(r.Context(), customerID, req)
	if err != nil {
		respondWithDomainError(w, err, "Failed to list customer orders")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}
