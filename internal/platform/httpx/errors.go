package httpx

import (
	"errors"
	"net/http"

	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// RespondError maps the shared domain sentinels to RFC7807 responses.
// Handlers switch on their own domain errors first and fall back here.
// Anything unrecognised becomes an opaque 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		Problem(w, http.StatusConflict, "Invalid State", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
