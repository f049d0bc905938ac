package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/fmagalhaes/storefront-backend/internal/customer"
)

// NewCustomerRequest carries everything needed to register a customer:
// the customer fields, the phone set and the first address.
type NewCustomerRequest struct {
	Name    string   `json:"name" validate:"required,min=5,max=120"`
	Email   string   `json:"email" validate:"required,email"`
	TaxID   string   `json:"tax_id" validate:"required"`
	Type    *int     `json:"type" validate:"required"`
	Phones  []string `json:"phones" validate:"required,min=1,dive,required"`
	Address struct {
		Street     string `json:"street" validate:"required"`
		Number     string `json:"number" validate:"required"`
		Complement string `json:"complement"`
		District   string `json:"district" validate:"required"`
		ZipCode    string `json:"zip_code" validate:"required"`
		CityID     int64  `json:"city_id" validate:"required,gt=0"`
	} `json:"address" validate:"required"`
}

type UpdateCustomerRequest struct {
	Name  string `json:"name" validate:"required,min=5,max=120"`
	Email string `json:"email" validate:"required,email"`
}

type AddressResponse struct {
	ID         int64  `json:"id"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	ZipCode    string `json:"zip_code"`
	CityID     int64  `json:"city_id"`
}

type CustomerResponse struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	TaxID     string            `json:"tax_id"`
	Type      int               `json:"type"`
	Phones    []string          `json:"phones"`
	Addresses []AddressResponse `json:"addresses,omitempty"`
}

func newCustomerResponse(c *customer.Customer) CustomerResponse {
	addresses := make([]AddressResponse, 0, len(c.Addresses))
	for _, a := range c.Addresses {
		addresses = append(addresses, AddressResponse{
			ID:         a.ID,
			Street:     a.Street,
			Number:     a.Number,
			Complement: a.Complement,
			District:   a.District,
			ZipCode:    a.ZipCode,
			CityID:     a.CityID,
		})
	}
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		TaxID:     c.TaxID,
		Type:      c.Type.Code(),
		Phones:    c.Phones,
		Addresses: addresses,
	}
}

type CustomerHandler struct {
	service  customer.Service
	validate *validator.Validate
}

func NewCustomerHandler(service customer.Service) *CustomerHandler {
	return &CustomerHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Post("/customers", h.handleCreate)
	router.Get("/customers", h.handleList)
	router.Get("/customers/page", h.handleListPage)
	router.Get("/customers/email/{email}", h.handleGetByEmail)
	router.Get("/customers/{id}", h.handleGetByID)
	router.Put("/customers/{id}", h.handleUpdate)
	router.Delete("/customers/{id}", h.handleDelete)

	router.Get("/states", h.handleListStates)
	router.Get("/states/{id}/cities", h.handleListCities)
}

func (h *CustomerHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var requestPayload NewCustomerRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode customer request body")
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

	clientType, err := customer.ParseClientType(*requestPayload.Type)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: []FieldError{{Field: "type", Message: err.Error()}},
		})
		return
	}

	domainCustomer := customer.Customer{
		Name:   requestPayload.Name,
		Email:  requestPayload.Email,
		TaxID:  requestPayload.TaxID,
		Type:   clientType,
		Phones: requestPayload.Phones,
		Addresses: []customer.Address{{
			Street:     requestPayload.Address.Street,
			Number:     requestPayload.Address.Number,
			Complement: requestPayload.Address.Complement,
			District:   requestPayload.Address.District,
			ZipCode:    requestPayload.Address.ZipCode,
			CityID:     requestPayload.Address.CityID,
		}},
	}

	created, err := h.service.Create(r.Context(), &domainCustomer)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create customer via service")
		respondWithDomainError(w, err, "Failed to create customer")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/customers/%d", created.ID))
	respondWithJSON(w, http.StatusCreated, newCustomerResponse(created))
}

func (h *CustomerHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get customer")
		return
	}

	respondWithJSON(w, http.StatusOK, newCustomerResponse(found))
}

func (h *CustomerHandler) handleGetByEmail(w http.ResponseWriter, r *http.Request) {
	emailParam := chi.URLParam(r, "email")
	if emailParam == "" {
		respondWithError(w, http.StatusBadRequest, "Email parameter cannot be empty")
		return
	}

	found, err := h.service.GetByEmail(r.Context(), emailParam)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get customer by email")
		return
	}

	respondWithJSON(w, http.StatusOK, newCustomerResponse(found))
}

func (h *CustomerHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateCustomerRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
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
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	_, err = h.service.Update(r.Context(), &customer.Customer{
		ID:    id,
		Name:  requestPayload.Name,
		Email: requestPayload.Email,
	})
	if err != nil {
		log.Error().Err(err).Int64("customer_id", id).Msg("Failed to update customer via service")
		respondWithDomainError(w, err, "Failed to update customer")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("customer_id", id).Msg("Failed to delete customer via service")
		respondWithDomainError(w, err, "Failed to delete customer")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.List(r.Context())
	if err != nil {
		respondWithDomainError(w, err, "Failed to list customers")
		return
	}

	responsePayload := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		responsePayload = append(responsePayload, newCustomerResponse(&customers[i]))
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *CustomerHandler) handleListPage(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageRequest(r, "name")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.ListPage(r.Context(), req)
	if err != nil {
		respondWithDomainError(w, err, "Failed to list customer page")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *CustomerHandler) handleListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.service.ListStates(r.Context())
	if err != nil {
		respondWithDomainError(w, err, "Failed to list states")
		return
	}

	respondWithJSON(w, http.StatusOK, states)
}

func (h *CustomerHandler) handleListCities(w http.ResponseWriter, r *http.Request) {
	stateID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	cities, err := h.service.ListCitiesByState(r.Context(), stateID)
	if err != nil {
		respondWithDomainError(w, err, "Failed to list cities")
		return
	}

	respondWithJSON(w, http.StatusOK, cities)
}
