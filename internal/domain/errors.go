package domain

import "errors"

// Доменные ошибки - используются во всех слоях приложения

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidUserData    = errors.New("invalid user data")
	ErrInvalidRole        = errors.New("invalid user role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfDeletion       = errors.New("cannot delete own account")
)

// Vehicle errors
var (
	ErrVehicleNotFound      = errors.New("vehicle not found")
	ErrVehicleAlreadyExists = errors.New("vehicle already exists")
	ErrInvalidPlate         = errors.New("invalid license plate")
	ErrInvalidVehicleData   = errors.New("invalid vehicle data")
)

// Round errors
var (
	ErrRoundNotFound      = errors.New("round not found")
	ErrRoundAlreadyClosed = errors.New("round already closed")
	ErrDriverHasOpenRound = errors.New("driver already has an open round")
	ErrVehicleInUse       = errors.New("vehicle already has an open round")
	ErrOdometerRegression = errors.New("arrival odometer is below departure odometer")
	ErrInvalidRoundData   = errors.New("invalid round data")
)

// Incident errors
var (
	ErrIncidentNotFound    = errors.New("incident not found")
	ErrInvalidIncidentData = errors.New("invalid incident data")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// General errors
var (
	ErrInternal   = errors.New("internal server error")
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
)
