package v1

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/auth"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/drive"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/parser"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/catalog"
)

// errorKind 错误类别及对应 HTTP 状态
func errorKind(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated), errors.Is(err, drive.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, drive.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, drive.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, drive.ErrMalformedRequest):
		return http.StatusBadRequest, "malformed_request"
	case errors.Is(err, drive.ErrServiceDisabled):
		return http.StatusServiceUnavailable, "service_disabled"
	case errors.Is(err, catalog.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case parser.IsFormatError(err):
		return http.StatusUnprocessableEntity, "invalid_report"
	case errors.Is(err, drive.ErrRemote):
		return http.StatusBadGateway, "remote"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// errorBody 统一错误响应
func errorBody(err error) (int, gin.H) {
	code, kind := errorKind(err)
	body := gin.H{"error": err.Error(), "kind": kind}

	var missing *parser.MissingColumnsError
	if errors.As(err, &missing) {
		body["missing"] = missing.Missing
		body["found"] = missing.Found
	}
	return code, body
}

func (h *Handler) fail(c *gin.Context, err error) {
	code, body := errorBody(err)
	if code >= http.StatusInternalServerError {
		log.Printf("[api] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, body)
}
