package httpadapter

import (
	"net/http"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrParse):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrOracle):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
