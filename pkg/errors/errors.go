package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gestor/backoffice/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound                 = errors.New("resource not found")
	ErrBadRequest               = errors.New("bad request")
	ErrConflict                 = errors.New("resource conflict")
	ErrInternal                 = errors.New("internal server error")
	ErrValidation               = errors.New("validation error")
	ErrLinkCreationFailed       = errors.New("linked entry creation failed")
	ErrLinkUpdateFailed         = errors.New("linked entry update failed")
	ErrLinkDeleteFailed         = errors.New("linked entry deletion failed")
	ErrDeletionBlocked          = errors.New("deletion blocked by dependent records")
	ErrAlreadyIssued            = errors.New("receipt already issued")
	ErrReceiptSequenceExhausted = errors.New("receipt sequence exhausted")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Cause      error             `json:"-"` // underlying failure, e.g. the store error that aborted a transaction
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"` // Parameters for i18n interpolation
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Localize returns a localized version of the error message
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, localizeParams(i18n.LocalizerFromContext(ctx), e.Params))
}

// LocalizeWith returns a localized version using a specific localizer
func (e *AppError) LocalizeWith(l *i18n.Localizer) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return l.T(e.MessageKey, localizeParams(l, e.Params))
}

// localizeParams translates parameter values that are themselves message keys
func localizeParams(l *i18n.Localizer, params map[string]string) map[string]string {
	if len(params) == 0 {
		return params
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
		switch k {
		case "resource", "origin":
			out[k] = l.T("resources." + v)
		case "children":
			out[k] = l.T("children." + v)
		}
		if out[k] == "resources."+v || out[k] == "children."+v {
			out[k] = v
		}
	}
	return out
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewWithKey creates a new AppError with an i18n key
func NewWithKey(code string, messageKey string, statusCode int, params ...map[string]string) *AppError {
	var p map[string]string
	if len(params) > 0 {
		p = params[0]
	}
	return &AppError{
		Code:       code,
		Message:    i18n.T(messageKey, p),
		MessageKey: messageKey,
		Params:     p,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithCause attaches the underlying failure
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// IsClientError reports whether the error should reach the caller unchanged
func (e *AppError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Common error constructors

// NotFound takes a resource key such as "vehicle"; the name is localized on render.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", i18n.T("resources."+resource)),
		MessageKey: "errors.not_found",
		Params:     map[string]string{"resource": resource},
		StatusCode: http.StatusNotFound,
	}
}

// BadRequest reports a malformed request; messageKey names the catalog entry
func BadRequest(messageKey string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    i18n.T(messageKey),
		MessageKey: messageKey,
		StatusCode: http.StatusBadRequest,
	}
}

// Duplicate reports a unique constraint violation on field
func Duplicate(field string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "DUPLICATE",
		Message:    fmt.Sprintf("%s is already in use", field),
		MessageKey: "errors.duplicate",
		Params:     map[string]string{"field": field},
		StatusCode: http.StatusConflict,
	}
}

// LinkedEntry rejects a direct change to an entry owned by a cost or payment
func LinkedEntry(originKind string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "LINKED_ENTRY",
		Message:    fmt.Sprintf("entry is linked to a %s and can only change through it", originKind),
		MessageKey: "errors.linked_entry",
		Params:     map[string]string{"origin": originKind},
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		MessageKey: "errors.validation_failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func LinkCreationFailed(cause error) *AppError {
	return &AppError{
		Err:        ErrLinkCreationFailed,
		Cause:      cause,
		Code:       "LINK_CREATION_FAILED",
		Message:    "could not create the record and its financial entry",
		MessageKey: "errors.link_creation_failed",
		StatusCode: http.StatusInternalServerError,
	}
}

func LinkUpdateFailed(cause error) *AppError {
	return &AppError{
		Err:        ErrLinkUpdateFailed,
		Cause:      cause,
		Code:       "LINK_UPDATE_FAILED",
		Message:    "could not update the record and its financial entry",
		MessageKey: "errors.link_update_failed",
		StatusCode: http.StatusInternalServerError,
	}
}

func LinkDeleteFailed(cause error) *AppError {
	return &AppError{
		Err:        ErrLinkDeleteFailed,
		Cause:      cause,
		Code:       "LINK_DELETE_FAILED",
		Message:    "could not delete the record and its financial entry",
		MessageKey: "errors.link_delete_failed",
		StatusCode: http.StatusInternalServerError,
	}
}

// DeletionBlocked rejects removing resource while children reference it
func DeletionBlocked(resource, children string) *AppError {
	return &AppError{
		Err:        ErrDeletionBlocked,
		Code:       "DELETION_BLOCKED",
		Message:    fmt.Sprintf("cannot delete %s while it has %s", resource, children),
		MessageKey: "errors.deletion_blocked",
		Params:     map[string]string{"resource": resource, "children": children},
		StatusCode: http.StatusConflict,
	}
}

func AlreadyIssued() *AppError {
	return &AppError{
		Err:        ErrAlreadyIssued,
		Code:       "ALREADY_ISSUED",
		Message:    "a receipt has already been issued for this payment",
		MessageKey: "errors.already_issued",
		StatusCode: http.StatusConflict,
	}
}

func ReceiptSequenceExhausted(year, month int) *AppError {
	period := fmt.Sprintf("%04d-%02d", year, month)
	return &AppError{
		Err:        ErrReceiptSequenceExhausted,
		Code:       "RECEIPT_SEQUENCE_EXHAUSTED",
		Message:    "no receipt numbers left for " + period,
		MessageKey: "errors.receipt_sequence_exhausted",
		Params:     map[string]string{"period": period},
		StatusCode: http.StatusConflict,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
