package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/fmagalhaes/storefront-backend/internal/catalog"
	"github.com/fmagalhaes/storefront-backend/internal/customer"
	"github.com/fmagalhaes/storefront-backend/internal/order"
	"github.com/fmagalhaes/storefront-backend/internal/page"
)

// FieldError is one (field, message) entry of an aggregated validation
// response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details"`
}

// respondWithError sends a JSON error body.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// formatValidationErrors flattens validator violations into one entry
// per violated rule; the validator never stops at the first failure.
func formatValidationErrors(validationErrors validator.ValidationErrors) []FieldError {
	details := make([]FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details = append(details, FieldError{
			Field:   strings.ToLower(fieldErr.Field()),
			Message: "failed on rule '" + fieldErr.Tag() + "'",
		})
	}
	return details
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, customer.ErrStateNotFound),
		errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrCategoryHasProducts),
		errors.Is(err, catalog.ErrProductInOrders),
		errors.Is(err, customer.ErrCustomerHasOrders),
		errors.Is(err, customer.ErrCityNotFound),
		errors.Is(err, order.ErrCustomerNotFound),
		errors.Is(err, order.ErrAddressNotFound),
		errors.Is(err, order.ErrDuplicateItem):
		return http.StatusBadRequest
	case errors.Is(err, customer.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, page.ErrInvalidPage),
		errors.Is(err, page.ErrInvalidSize),
		errors.Is(err, page.ErrInvalidDirection),
		errors.Is(err, page.ErrInvalidSortField):
		return http.StatusBadRequest
	default:
		var vErr *customer.ValidationError
		if errors.As(err, &vErr) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

// respondWithDomainError picks the status for a service error and hides
// internals behind fallbackMessage unless the error is a client fault.
func respondWithDomainError(w http.ResponseWriter, err error, fallbackMessage string) {
	statusCode := mapErrorToStatusCode(err)

	var vErr *customer.ValidationError
	if errors.As(err, &vErr) {
		details := make([]FieldError, 0, len(vErr.Violations))
		for _, v := range vErr.Violations {
			details = append(details, FieldError{Field: v.Field, Message: v.Message})
		}
		respondWithJSON(w, statusCode, ValidationErrorResponse{Error: "Validation failed", Details: details})
		return
	}

	if statusCode == http.StatusInternalServerError {
		respondWithError(w, statusCode, fallbackMessage)
		return
	}
	respondWithError(w, statusCode, err.Error())
}

// parseIDParam parses a positive integer id from a chi URL parameter.
func parseIDParam(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id parameter")
	}
	return id, nil
}

// parseInt64List converts a query value like "1,3,4" into ids.
func parseInt64List(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errors.New("invalid id list parameter")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePageRequest reads the paging query parameters with the defaults
// used across every paged endpoint.
func parsePageRequest(r *http.Request, defaultSortBy string) (page.Request, error) {
	req := page.Request{
		Page:      0,
		Size:      24,
		SortBy:    defaultSortBy,
		Direction: page.DirectionAsc,
	}

	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page.Request{}, errors.New("invalid page parameter")
		}
		req.Page = n
	}
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page.Request{}, errors.New("invalid size parameter")
		}
		req.Size = n
	}
	if raw := q.Get("sort"); raw != "" {
		req.SortBy = raw
	}
	if raw := q.Get("direction"); raw != "" {
		req.Direction = raw
	}

	return req, nil
}
