package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/fmagalhaes/storefront-backend/internal/catalog"
)

type ProductRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=80"`
	Price       float64 `json:"price" validate:"gte=0"`
	CategoryIDs []int64 `json:"category_ids" validate:"required,min=1,dive,gt=0"`
}

type ProductResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	CategoryIDs []int64 `json:"category_ids,omitempty"`
}

func newProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Name: p.Name, Price: p.Price, CategoryIDs: p.CategoryIDs}
}

type ProductHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewProductHandler(service catalog.Service) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Post("/products", h.handleCreate)
	router.Get("/products", h.handleSearch)
	router.Get("/products/{id}", h.handleGetByID)
	router.Put("/products/{id}", h.handleUpdate)
	router.Delete("/products/{id}", h.handleDelete)
}

func (h *ProductHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var requestPayload ProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode product request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, false
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
		return nil, false
	}

	return &requestPayload, true
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestPayload, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), &catalog.Product{
		Name:        requestPayload.Name,
		Price:       requestPayload.Price,
		CategoryIDs: requestPayload.CategoryIDs,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product via service")
		respondWithDomainError(w, err, "Failed to create product")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/products/%d", created.ID))
	respondWithJSON(w, http.StatusCreated, newProductResponse(created))
}

func (h *ProductHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	found, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get product")
		return
	}

	respondWithJSON(w, http.StatusOK, newProductResponse(found))
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	requestPayload, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	_, err = h.service.UpdateProduct(r.Context(), &catalog.Product{
		ID:    id,
		Name:  requestPayload.Name,
		Price: requestPayload.Price,
	})
	if err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to update product via service")
		respondWithDomainError(w, err, "Failed to update product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to delete product via service")
		respondWithDomainError(w, err, "Failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSearch serves GET /products?name=Smart&categories=1,4 plus the
// usual paging parameters.
func (h *ProductHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageRequest(r, "name")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	categoryIDs, err := parseInt64List(r.URL.Query().Get("categories"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid categories parameter")
		return
	}

	name := r.URL.Query().Get("name")

	p, err := h.service.SearchProducts(r.Context(), name, categoryIDs, req)
	if err != nil {
		respondWithDomainError(w, err, "Failed to search products")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}
