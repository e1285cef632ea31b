package drive

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/auth"
)

var (
	ErrUnauthorized     = errors.New("remote store: unauthorized")
	ErrForbidden        = errors.New("remote store: permission denied")
	ErrNotFound         = errors.New("remote store: resource not found")
	ErrMalformedRequest = errors.New("remote store: malformed request")
	ErrServiceDisabled  = errors.New("remote store: api disabled for this project")
	ErrRemote           = errors.New("remote store: request failed")
)

// APIError 远端调用错误
type APIError struct {
	Kind       error
	ResourceID string
	Detail     string
	Cause      error
}

func (e *APIError) Error() string {
	msg := e.Kind.Error()
	if e.ResourceID != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.ResourceID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// KindOf 返回错误类别，非远端错误返回 nil
func KindOf(err error) error {
	for _, k := range []error{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrMalformedRequest, ErrServiceDisabled, ErrRemote} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// mapError 将 Google API 错误映射为本地错误类别
func mapError(err error, resourceID string) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return &APIError{Kind: ErrUnauthorized, ResourceID: resourceID, Detail: "not signed in", Cause: err}
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &APIError{Kind: ErrRemote, ResourceID: resourceID, Detail: err.Error(), Cause: err}
	}

	detail := gerr.Message
	if detail == "" && len(gerr.Errors) > 0 {
		detail = gerr.Errors[0].Message
	}
	out := &APIError{ResourceID: resourceID, Detail: detail, Cause: err}
	switch gerr.Code {
	case http.StatusBadRequest:
		out.Kind = ErrMalformedRequest
	case http.StatusUnauthorized:
		out.Kind = ErrUnauthorized
	case http.StatusForbidden:
		if isServiceDisabled(gerr) {
			out.Kind = ErrServiceDisabled
		} else {
			out.Kind = ErrForbidden
		}
	case http.StatusNotFound:
		out.Kind = ErrNotFound
	default:
		out.Kind = ErrRemote
	}
	return out
}

func isServiceDisabled(gerr *googleapi.Error) bool {
	msg := strings.ToLower(gerr.Message)
	if strings.Contains(msg, "has not been used") || strings.Contains(msg, "is disabled") {
		return true
	}
	for _, item := range gerr.Errors {
		if item.Reason == "accessNotConfigured" || item.Reason == "SERVICE_DISABLED" {
			return true
		}
	}
	return false
}
