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

type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=5,max=80"`
}

// CategoryResponse projects only the caller-relevant category fields;
// the product list never travels with it.
type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name}
}

type CategoryHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewCategoryHandler(service catalog.Service) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CategoryHandler) RegisterRoutes(router chi.Router) {
	router.Post("/categories", h.handleCreate)
	router.Get("/categories", h.handleList)
	router.Get("/categories/page", h.handleListPage)
	router.Get("/categories/{id}", h.handleGetByID)
	router.Put("/categories/{id}", h.handleUpdate)
	router.Delete("/categories/{id}", h.handleDelete)
}

func (h *CategoryHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request) (*CategoryRequest, bool) {
	var requestPayload CategoryRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode category request body")
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

func (h *CategoryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestPayload, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateCategory(r.Context(), &catalog.Category{Name: requestPayload.Name})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create category via service")
		respondWithDomainError(w, err, "Failed to create category")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/categories/%d", created.ID))
	respondWithJSON(w, http.StatusCreated, newCategoryResponse(created))
}

func (h *CategoryHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	found, err := h.service.GetCategoryByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get category")
		return
	}

	respondWithJSON(w, http.StatusOK, newCategoryResponse(found))
}

func (h *CategoryHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	requestPayload, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	_, err = h.service.UpdateCategory(r.Context(), &catalog.Category{ID: id, Name: requestPayload.Name})
	if err != nil {
		log.Error().Err(err).Int64("category_id", id).Msg("Failed to update category via service")
		respondWithDomainError(w, err, "Failed to update category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("category_id", id).Msg("Failed to delete category via service")
		respondWithDomainError(w, err, "Failed to delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondWithDomainError(w, err, "Failed to list categories")
		return
	}

	responsePayload := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		responsePayload = append(responsePayload, newCategoryResponse(&categories[i]))
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *CategoryHandler) handleListPage(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageRequest(r, "name")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.ListCategoriesPage(r.Context(), req)
	if err != nil {
		respondWithDomainError(w, err, "Failed to list category page")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}
