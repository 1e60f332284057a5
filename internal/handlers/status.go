package handlers

import (
	"errors"
	"net/http"

	"Musebox/internal/services"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, services.ErrTaggerNotConfigured):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
