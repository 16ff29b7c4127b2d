package http

import (
	"net/http"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/vehicle"
)

// VehicleHandler обрабатывает запросы по автопарку
type VehicleHandler struct {
	vehicleService *vehicle.Service
	maxUploadBytes int64
	logger         logger.Logger
}

// NewVehicleHandler создает новый handler
func NewVehicleHandler(vehicleService *vehicle.Service, maxUploadBytes int64, logger logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

const dateLayout = "2006-01-02"

// parseVehicleForm читает multipart-форму транспортного средства.
// Лимит на размер тела применяется до разбора формы.
func (h *VehicleHandler) parseVehicleForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large or malformed")
		return false
	}
	return true
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateVehicle создает транспортное средство
// POST /api/v1/admin/vehicles (multipart/form-data)
func (h *VehicleHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	if !h.parseVehicleForm(w, r) {
		return
	}

	req := &vehicle.CreateRequest{
		Make:  r.FormValue("make"),
		Model: r.FormValue("model"),
		Name:  r.FormValue("name"),
		Plate: r.FormValue("plate"),
	}

	var err error
	if req.NextServiceDate, err = parseOptionalDate(r.FormValue("next_service_date")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid next_service_date")
		return
	}
	if req.NextInspectionDate, err = parseOptionalDate(r.FormValue("next_inspection_date")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid next_inspection_date")
		return
	}

	if files := formFiles(r, "photo"); len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid photo upload")
			return
		}
		defer f.Close()
		req.Photo = &vehicle.Photo{Filename: files[0].Filename, Data: f}
	}

	created, err := h.vehicleService.Create(r.Context(), req)
	if err != nil {
		if err == domain.ErrVehicleAlreadyExists {
			respondError(w, http.StatusConflict, "Vehicle with this plate already exists")
			return
		}
		if err == domain.ErrInvalidVehicleData || err == domain.ErrInvalidPlate {
			respondError(w, http.StatusBadRequest, "Invalid vehicle data")
			return
		}
		h.logger.Error("Failed to create vehicle", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to create vehicle")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}

// ListVehicles возвращает все машины с текущим пробегом
// GET /api/v1/vehicles
func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	vehicles, err := h.vehicleService.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list vehicles", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list vehicles")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    vehicles,
	})
}

// ListAvailableVehicles возвращает машины без открытого рейса
// GET /api/v1/vehicles/available
func (h *VehicleHandler) ListAvailableVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.vehicleService.ListAvailable(r.Context())
	if err != nil {
		h.logger.Error("Failed to list available vehicles", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list available vehicles")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    vehicles,
	})
}

// GetVehicleByID возвращает машину по ID
// GET /api/v1/vehicles/{id}
func (h *VehicleHandler) GetVehicleByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	found, err := h.vehicleService.GetByID(r.Context(), id)
	if err != nil {
		if err == domain.ErrVehicleNotFound {
			respondError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		h.logger.Error("Failed to get vehicle", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get vehicle")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    found,
	})
}

// UpdateVehicle изменяет машину
// PUT /api/v1/admin/vehicles/{id} (multipart/form-data)
func (h *VehicleHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	if !h.parseVehicleForm(w, r) {
		return
	}

	req := &vehicle.UpdateRequest{
		Make:        r.FormValue("make"),
		Model:       r.FormValue("model"),
		Name:        r.FormValue("name"),
		Plate:       r.FormValue("plate"),
		RemovePhoto: r.FormValue("remove_photo") == "true",
	}

	if req.NextServiceDate, err = parseOptionalDate(r.FormValue("next_service_date")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid next_service_date")
		return
	}
	if req.NextInspectionDate, err = parseOptionalDate(r.FormValue("next_inspection_date")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid next_inspection_date")
		return
	}

	if files := formFiles(r, "photo"); len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid photo upload")
			return
		}
		defer f.Close()
		req.Photo = &vehicle.Photo{Filename: files[0].Filename, Data: f}
	}

	updated, err := h.vehicleService.Update(r.Context(), id, req)
	if err != nil {
		if err == domain.ErrVehicleNotFound {
			respondError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		if err == domain.ErrVehicleAlreadyExists {
			respondError(w, http.StatusConflict, "Vehicle with this plate already exists")
			return
		}
		if err == domain.ErrInvalidVehicleData || err == domain.ErrInvalidPlate {
			respondError(w, http.StatusBadRequest, "Invalid vehicle data")
			return
		}
		h.logger.Error("Failed to update vehicle", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to update vehicle")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    updated,
	})
}

// DeleteVehicle удаляет машину
// DELETE /api/v1/admin/vehicles/{id}
func (h *VehicleHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	if err := h.vehicleService.Delete(r.Context(), id); err != nil {
		if err == domain.ErrVehicleNotFound {
			respondError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		h.logger.Error("Failed to delete vehicle", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to delete vehicle")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Vehicle deleted",
	})
}
