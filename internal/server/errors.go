package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/hiring-pipeline/internal/hiring"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrBadRequest indicates a request body that could not be read.
type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var partial *hiring.PartialWriteError
	if errors.As(err, &partial) {
		return http.StatusInternalServerError
	}

	var (
		emailTaken *ErrEmailAlreadyExists
		badCreds   *ErrInvalidCredentials
		badRequest *ErrBadRequest
	)
	switch {
	case errors.As(err, &emailTaken):
		return http.StatusConflict
	case errors.As(err, &badCreds):
		return http.StatusUnauthorized
	case errors.As(err, &badRequest), errors.Is(err, hiring.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, hiring.ErrUnauthenticated), errors.Is(err, hiring.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, hiring.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, hiring.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, hiring.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, hiring.ErrUpstreamNotification):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
