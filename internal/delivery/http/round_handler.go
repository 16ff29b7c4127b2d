package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/delivery/http/middleware"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/round"
	"github.com/google/uuid"
)

// RoundHandler обрабатывает запросы по рейсам
type RoundHandler struct {
	roundService   *round.Service
	maxUploadBytes int64
	logger         logger.Logger
}

// NewRoundHandler создает новый handler
func NewRoundHandler(roundService *round.Service, maxUploadBytes int64, logger logger.Logger) *RoundHandler {
	return &RoundHandler{
		roundService:   roundService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (h *RoundHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large or malformed")
		return false
	}
	return true
}

// openPhotos открывает загруженные файлы из multipart-поля field.
// Вызывающий обязан вызвать closeFn после использования.
func (h *RoundHandler) openPhotos(w http.ResponseWriter, r *http.Request, field string) ([]round.Photo, func(), bool) {
	var photos []round.Photo
	var closers []func() error

	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	for _, fh := range formFiles(r, field) {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			respondError(w, http.StatusBadRequest, "Invalid photo upload")
			return nil, nil, false
		}
		closers = append(closers, f.Close)
		photos = append(photos, round.Photo{Filename: fh.Filename, Data: f})
	}

	return photos, closeAll, true
}

// StartRound открывает новый рейс текущего водителя
// POST /api/v1/rounds/start (multipart/form-data)
func (h *RoundHandler) StartRound(w http.ResponseWriter, r *http.Request) {
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

	departureKms, err := strconv.ParseFloat(r.FormValue("departure_kms"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid departure_kms")
		return
	}

	photos, closePhotos, ok := h.openPhotos(w, r, "photos")
	if !ok {
		return
	}
	defer closePhotos()

	req := &round.StartRequest{
		VehicleID:    vehicleID,
		Destination:  r.FormValue("destination"),
		DepartureKms: departureKms,
		Companions:   r.FormValue("companions"),
		Photos:       photos,
	}

	created, err := h.roundService.Start(r.Context(), claims.UserID, req)
	if err != nil {
		switch err {
		case domain.ErrDriverHasOpenRound:
			respondError(w, http.StatusConflict, "Driver already has an open round")
		case domain.ErrVehicleInUse:
			respondError(w, http.StatusConflict, "Vehicle is already in use")
		case domain.ErrVehicleNotFound:
			respondError(w, http.StatusNotFound, "Vehicle not found")
		case domain.ErrInvalidRoundData:
			respondError(w, http.StatusBadRequest, "Invalid round data")
		default:
			h.logger.Error("Failed to start round", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to start round")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}

// CloseRound закрывает открытый рейс текущего водителя
// POST /api/v1/rounds/{id}/close (multipart/form-data)
func (h *RoundHandler) CloseRound(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid round ID")
		return
	}

	if !h.parseForm(w, r) {
		return
	}

	arrivalKms, err := strconv.ParseFloat(r.FormValue("arrival_kms"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid arrival_kms")
		return
	}

	photos, closePhotos, ok := h.openPhotos(w, r, "photos")
	if !ok {
		return
	}
	defer closePhotos()

	req := &round.CloseRequest{
		ArrivalKms: arrivalKms,
		Photos:     photos,
	}

	closed, err := h.roundService.Close(r.Context(), claims.UserID, id, req)
	if err != nil {
		switch err {
		case domain.ErrRoundNotFound:
			respondError(w, http.StatusNotFound, "Round not found")
		case domain.ErrForbidden:
			respondError(w, http.StatusForbidden, "Round belongs to another driver")
		case domain.ErrRoundAlreadyClosed:
			respondError(w, http.StatusConflict, "Round is already closed")
		case domain.ErrOdometerRegression:
			respondError(w, http.StatusBadRequest, "Arrival kms cannot be lower than departure kms")
		default:
			h.logger.Error("Failed to close round", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to close round")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    closed,
	})
}

// GetMyOpenRound возвращает открытый рейс текущего водителя
// GET /api/v1/rounds/me/open
func (h *RoundHandler) GetMyOpenRound(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	open, err := h.roundService.GetOpenByDriver(r.Context(), claims.UserID)
	if err != nil {
		if err == domain.ErrRoundNotFound {
			respondError(w, http.StatusNotFound, "No open round")
			return
		}
		h.logger.Error("Failed to get open round", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get open round")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    open,
	})
}

// GetMyHistory возвращает закрытые рейсы текущего водителя
// GET /api/v1/rounds/me/history
func (h *RoundHandler) GetMyHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rounds, err := h.roundService.ListClosedByDriver(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("Failed to list round history", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list round history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rounds,
	})
}

// GetRoundByID возвращает рейс по ID
// GET /api/v1/rounds/{id}
func (h *RoundHandler) GetRoundByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid round ID")
		return
	}

	found, err := h.roundService.GetByID(r.Context(), id)
	if err != nil {
		if err == domain.ErrRoundNotFound {
			respondError(w, http.StatusNotFound, "Round not found")
			return
		}
		h.logger.Error("Failed to get round", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get round")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    found,
	})
}

// parseEditRequest читает multipart-форму правки рейса
func (h *RoundHandler) parseEditRequest(w http.ResponseWriter, r *http.Request) (*round.EditRequest, func(), bool) {
	if !h.parseForm(w, r) {
		return nil, nil, false
	}

	req := &round.EditRequest{
		Destination: r.FormValue("destination"),
	}

	if v := r.FormValue("departure_kms"); v != "" {
		kms, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid departure_kms")
			return nil, nil, false
		}
		req.DepartureKms = &kms
	}

	if v := r.FormValue("departure_at"); v != "" {
		at, err := time.Parse(formTimeLayout, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid departure_at")
			return nil, nil, false
		}
		req.DepartureAt = &at
	}

	if _, ok := r.MultipartForm.Value["companions"]; ok {
		companions := r.FormValue("companions")
		req.Companions = &companions
	}

	photos, closePhotos, ok := h.openPhotos(w, r, "photos")
	if !ok {
		return nil, nil, false
	}
	req.Photos = photos

	return req, closePhotos, true
}

// parseAdminEditRequest читает расширенную multipart-форму правки:
// помимо полей водителя допускает смену водителя, машины и данных прибытия
func (h *RoundHandler) parseAdminEditRequest(w http.ResponseWriter, r *http.Request) (*round.AdminEditRequest, func(), bool) {
	base, closeDeparture, ok := h.parseEditRequest(w, r)
	if !ok {
		return nil, nil, false
	}

	req := &round.AdminEditRequest{EditRequest: *base}

	if v := r.FormValue("driver_id"); v != "" {
		driverID, err := uuid.Parse(v)
		if err != nil {
			closeDeparture()
			respondError(w, http.StatusBadRequest, "Invalid driver_id")
			return nil, nil, false
		}
		req.DriverID = &driverID
	}

	if v := r.FormValue("vehicle_id"); v != "" {
		vehicleID, err := uuid.Parse(v)
		if err != nil {
			closeDeparture()
			respondError(w, http.StatusBadRequest, "Invalid vehicle_id")
			return nil, nil, false
		}
		req.VehicleID = &vehicleID
	}

	if v := r.FormValue("arrival_at"); v != "" {
		at, err := time.Parse(formTimeLayout, v)
		if err != nil {
			closeDeparture()
			respondError(w, http.StatusBadRequest, "Invalid arrival_at")
			return nil, nil, false
		}
		req.ArrivalAt = &at
	}

	if v := r.FormValue("arrival_kms"); v != "" {
		kms, err := strconv.ParseFloat(v, 64)
		if err != nil {
			closeDeparture()
			respondError(w, http.StatusBadRequest, "Invalid arrival_kms")
			return nil, nil, false
		}
		req.ArrivalKms = &kms
	}

	arrivalPhotos, closeArrival, ok := h.openPhotos(w, r, "arrival_photos")
	if !ok {
		closeDeparture()
		return nil, nil, false
	}
	req.ArrivalPhotos = arrivalPhotos

	closeAll := func() {
		closeDeparture()
		closeArrival()
	}

	return req, closeAll, true
}

func (h *RoundHandler) respondEditError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrRoundNotFound:
		respondError(w, http.StatusNotFound, "Round not found")
	case domain.ErrForbidden:
		respondError(w, http.StatusForbidden, "Round belongs to another driver")
	case domain.ErrRoundAlreadyClosed:
		respondError(w, http.StatusConflict, "Round is already closed")
	case domain.ErrUserNotFound:
		respondError(w, http.StatusNotFound, "Driver not found")
	case domain.ErrVehicleNotFound:
		respondError(w, http.StatusNotFound, "Vehicle not found")
	case domain.ErrDriverHasOpenRound:
		respondError(w, http.StatusConflict, "Driver already has an open round")
	case domain.ErrVehicleInUse:
		respondError(w, http.StatusConflict, "Vehicle is already in use")
	case domain.ErrOdometerRegression:
		respondError(w, http.StatusBadRequest, "Arrival kms cannot be lower than departure kms")
	case domain.ErrInvalidRoundData:
		respondError(w, http.StatusBadRequest, "Invalid round data")
	default:
		h.logger.Error("Failed to update round", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to update round")
	}
}

// EditRound правит открытый рейс текущего водителя
// PUT /api/v1/rounds/{id} (multipart/form-data)
func (h *RoundHandler) EditRound(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid round ID")
		return
	}

	req, closePhotos, ok := h.parseEditRequest(w, r)
	if !ok {
		return
	}
	defer closePhotos()

	updated, err := h.roundService.EditOpen(r.Context(), claims.UserID, id, req)
	if err != nil {
		h.respondEditError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    updated,
	})
}

// AdminEditRound правит любой рейс, включая смену водителя,
// машины, временных меток и данных прибытия
// PUT /api/v1/admin/rounds/{id} (multipart/form-data)
func (h *RoundHandler) AdminEditRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid round ID")
		return
	}

	req, closePhotos, ok := h.parseAdminEditRequest(w, r)
	if !ok {
		return
	}
	defer closePhotos()

	updated, err := h.roundService.AdminEdit(r.Context(), id, req)
	if err != nil {
		h.respondEditError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    updated,
	})
}

// ListRounds возвращает все рейсы
// GET /api/v1/admin/rounds
func (h *RoundHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	rounds, err := h.roundService.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list rounds", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list rounds")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rounds,
	})
}

// ListOpenRounds возвращает открытые рейсы
// GET /api/v1/admin/rounds/open
func (h *RoundHandler) ListOpenRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.roundService.ListOpen(r.Context())
	if err != nil {
		h.logger.Error("Failed to list open rounds", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list open rounds")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rounds,
	})
}

// ForceCloseRound принудительно закрывает рейс
// POST /api/v1/admin/rounds/{id}/force-close
func (h *RoundHandler) ForceCloseRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid round ID")
		return
	}

	closed, err := h.roundService.ForceClose(r.Context(), id)
	if err != nil {
		switch err {
		case domain.ErrRoundNotFound:
			respondError(w, http.StatusNotFound, "Round not found")
		case domain.ErrRoundAlreadyClosed:
			respondError(w, http.StatusConflict, "Round is already closed")
		default:
			h.logger.Error("Failed to force-close round", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to force-close round")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    closed,
	})
}

// DeleteRound удаляет рейс
// DELETE /api/v1/admin/rounds/{id}
func (h *RoundHandler) DeleteRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid round ID")
		return
	}

	if err := h.roundService.Delete(r.Context(), id); err != nil {
		if err == domain.ErrRoundNotFound {
			respondError(w, http.StatusNotFound, "Round not found")
			return
		}
		h.logger.Error("Failed to delete round", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to delete round")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Round deleted",
	})
}
