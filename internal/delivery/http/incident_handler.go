package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/delivery/http/middleware"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/incident"
	"github.com/google/uuid"
)

// IncidentHandler обрабатывает запросы по происшествиям
type IncidentHandler struct {
	incidentService *incident.Service
	maxUploadBytes  int64
	logger          logger.Logger
}

// NewIncidentHandler создает новый handler
func NewIncidentHandler(incidentService *incident.Service, maxUploadBytes int64, logger logger.Logger) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
		maxUploadBytes:  maxUploadBytes,
		logger:          logger,
	}
}

func (h *IncidentHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large or malformed")
		return false
	}
	return true
}

func (h *IncidentHandler) openPhotos(w http.ResponseWriter, r *http.Request) ([]incident.Photo, func(), bool) {
	var photos []incident.Photo
	var closers []func() error

	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	for _, fh := range formFiles(r, "photos") {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			respondError(w, http.StatusBadRequest, "Invalid photo upload")
			return nil, nil, false
		}
		closers = append(closers, f.Close)
		photos = append(photos, incident.Photo{Filename: fh.Filename, Data: f})
	}

	return photos, closeAll, true
}

// ReportIncident регистрирует происшествие от текущего пользователя
// POST /api/v1/incidents (multipart/form-data)
func (h *IncidentHandler) ReportIncident(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if !h.parseForm(w, r) {
		return
	}

	vehicleID, err := uuid.Parse(r.FormValue("vehicle_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid vehicle_id")
		return
	}

	photos, closePhotos, ok := h.openPhotos(w, r)
	if !ok {
		return
	}
	defer closePhotos()

	req := &incident.ReportRequest{
		VehicleID:   vehicleID,
		Description: r.FormValue("description"),
		Photos:      photos,
	}

	created, err := h.incidentService.Report(r.Context(), claims.UserID, req)
	if err != nil {
		switch err {
		case domain.ErrVehicleNotFound:
			respondError(w, http.StatusNotFound, "Vehicle not found")
		case domain.ErrInvalidIncidentData:
			respondError(w, http.StatusBadRequest, "Invalid incident data")
		default:
			h.logger.Error("Failed to report incident", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to report incident")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}

// AdminCreateIncident регистрирует происшествие от имени указанного
// пользователя
// POST /api/v1/admin/incidents (multipart/form-data)
func (h *IncidentHandler) AdminCreateIncident(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	userID, err := uuid.Parse(r.FormValue("user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user_id")
		return
	}

	vehicleID, err := uuid.Parse(r.FormValue("vehicle_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid vehicle_id")
		return
	}

	photos, closePhotos, ok := h.openPhotos(w, r)
	if !ok {
		return
	}
	defer closePhotos()

	req := &incident.AdminReportRequest{
		UserID: userID,
		ReportRequest: incident.ReportRequest{
			VehicleID:   vehicleID,
			Description: r.FormValue("description"),
			Photos:      photos,
		},
	}

	created, err := h.incidentService.ReportFor(r.Context(), req)
	if err != nil {
		switch err {
		case domain.ErrUserNotFound:
			respondError(w, http.StatusNotFound, "User not found")
		case domain.ErrVehicleNotFound:
			respondError(w, http.StatusNotFound, "Vehicle not found")
		case domain.ErrInvalidIncidentData:
			respondError(w, http.StatusBadRequest, "Invalid incident data")
		default:
			h.logger.Error("Failed to report incident", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to report incident")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}

// ListMyIncidents возвращает происшествия текущего пользователя
// GET /api/v1/incidents/me
func (h *IncidentHandler) ListMyIncidents(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	incidents, err := h.incidentService.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("Failed to list incidents", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list incidents")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    incidents,
	})
}

// GetIncidentByID возвращает происшествие по ID
// GET /api/v1/incidents/{id}
func (h *IncidentHandler) GetIncidentByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid incident ID")
		return
	}

	found, err := h.incidentService.GetByID(r.Context(), id)
	if err != nil {
		if err == domain.ErrIncidentNotFound {
			respondError(w, http.StatusNotFound, "Incident not found")
			return
		}
		h.logger.Error("Failed to get incident", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get incident")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    found,
	})
}

// UpdateMyIncident правит собственное происшествие.
// Правка автором возвращает статус в OPEN.
// PUT /api/v1/incidents/{id} (multipart/form-data)
func (h *IncidentHandler) UpdateMyIncident(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid incident ID")
		return
	}

	req, closePhotos, ok := h.parseUpdateRequest(w, r)
	if !ok {
		return
	}
	defer closePhotos()

	updated, err := h.incidentService.UpdateOwn(r.Context(), claims.UserID, id, req)
	if err != nil {
		h.respondUpdateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    updated,
	})
}

// AdminUpdateIncident правит любое происшествие
// PUT /api/v1/admin/incidents/{id} (multipart/form-data)
func (h *IncidentHandler) AdminUpdateIncident(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid incident ID")
		return
	}

	req, closePhotos, ok := h.parseUpdateRequest(w, r)
	if !ok {
		return
	}
	defer closePhotos()

	updated, err := h.incidentService.Update(r.Context(), id, req)
	if err != nil {
		h.respondUpdateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    updated,
	})
}

func (h *IncidentHandler) parseUpdateRequest(w http.ResponseWriter, r *http.Request) (*incident.UpdateRequest, func(), bool) {
	if !h.parseForm(w, r) {
		return nil, nil, false
	}

	req := &incident.UpdateRequest{
		Description: r.FormValue("description"),
		Status:      domain.IncidentStatus(r.FormValue("status")),
	}

	if v := r.FormValue("vehicle_id"); v != "" {
		vehicleID, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid vehicle_id")
			return nil, nil, false
		}
		req.VehicleID = &vehicleID
	}

	if v := r.FormValue("reported_at"); v != "" {
		reportedAt, err := time.Parse(formTimeLayout, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid reported_at")
			return nil, nil, false
		}
		req.ReportedAt = &reportedAt
	}

	photos, closePhotos, ok := h.openPhotos(w, r)
	if !ok {
		return nil, nil, false
	}
	req.Photos = photos

	return req, closePhotos, true
}

func (h *IncidentHandler) respondUpdateError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrIncidentNotFound:
		respondError(w, http.StatusNotFound, "Incident not found")
	case domain.ErrForbidden:
		respondError(w, http.StatusForbidden, "Incident belongs to another user")
	case domain.ErrVehicleNotFound:
		respondError(w, http.StatusNotFound, "Vehicle not found")
	case domain.ErrInvalidIncidentData:
		respondError(w, http.StatusBadRequest, "Invalid incident data")
	default:
		h.logger.Error("Failed to update incident", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to update incident")
	}
}

// ListIncidents возвращает все происшествия
// GET /api/v1/admin/incidents
func (h *IncidentHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	incidents, err := h.incidentService.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list incidents", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list incidents")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    incidents,
	})
}

// SetIncidentStatus переводит происшествие в указанный статус
// PATCH /api/v1/admin/incidents/{id}/status
func (h *IncidentHandler) SetIncidentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid incident ID")
		return
	}

	var req struct {
		Status domain.IncidentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.incidentService.SetStatus(r.Context(), id, req.Status); err != nil {
		switch err {
		case domain.ErrIncidentNotFound:
			respondError(w, http.StatusNotFound, "Incident not found")
		case domain.ErrInvalidIncidentData:
			respondError(w, http.StatusBadRequest, "Invalid status")
		default:
			h.logger.Error("Failed to set incident status", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to set incident status")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Incident status updated",
	})
}

// DeleteIncident удаляет происшествие
// DELETE /api/v1/admin/incidents/{id}
func (h *IncidentHandler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid incident ID")
		return
	}

	if err := h.incidentService.Delete(r.Context(), id); err != nil {
		if err == domain.ErrIncidentNotFound {
			respondError(w, http.StatusNotFound, "Incident not found")
			return
		}
		h.logger.Error("Failed to delete incident", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to delete incident")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Incident deleted",
	})
}
