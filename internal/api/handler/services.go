package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/statusboard/statusboard/internal/api/models"
	"github.com/statusboard/statusboard/internal/api/response"
	"github.com/statusboard/statusboard/internal/catalog"
)

// ServiceHandler handles catalogue endpoints.
type ServiceHandler struct {
	catalog *catalog.Manager
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(manager *catalog.Manager) *ServiceHandler {
	return &ServiceHandler{catalog: manager}
}

// ListServices handles GET /v1/services - list the catalogue in dashboard order.
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	list := models.ServiceList{Items: make([]models.Service, 0, len(services))}
	for _, svc := range services {
		list.Items = append(list.Items, toServiceModel(svc))
	}
	response.JSON(w, r, http.StatusOK, list)
}

// CreateService handles POST /v1/services - add a service.
func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var input models.ServiceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	svc, err := h.catalog.Create(r.Context(), catalog.CreateInput{
		Name:    input.Name,
		URL:     input.URL,
		Icon:    input.Icon,
		IconRef: input.IconRef,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/services/%s", svc.ID)
	response.Created(w, r, location, toServiceModel(svc))
}

// GetService handles GET /v1/services/{serviceId}.
func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.Get(r.Context(), chi.URLParam(r, "serviceId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toServiceModel(svc))
}

// UpdateService handles PUT /v1/services/{serviceId}.
func (h *ServiceHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var input models.ServiceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	svc, err := h.catalog.Update(r.Context(), chi.URLParam(r, "serviceId"), catalog.UpdateInput{
		Name:    input.Name,
		URL:     input.URL,
		Icon:    input.Icon,
		IconRef: input.IconRef,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toServiceModel(svc))
}

// DeleteService handles DELETE /v1/services/{serviceId}.
func (h *ServiceHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "serviceId")); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func toServiceModel(svc *catalog.Service) models.Service {
	return models.Service{
		ID:             svc.ID,
		Name:           svc.Name,
		URL:            svc.URL,
		IconRef:        svc.IconRef,
		Icon:           svc.Icon,
		Position:       svc.Position,
		LastOnlineDate: models.OptionalTimestamp(svc.LastOnlineDate),
		CreatedAt:      models.Timestamp(svc.CreatedAt),
		UpdatedAt:      models.Timestamp(svc.UpdatedAt),
	}
}
