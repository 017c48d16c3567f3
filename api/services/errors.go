package services

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kittygram/kittygram-api/db"
	"github.com/kittygram/kittygram-api/models"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

var (
	ErrAuthorizationDenied = errors.New("you do not have permission to perform this action")
	ErrNotAuthenticated    = fmt.Errorf("%w: authentication credentials were not provided", ErrAuthorizationDenied)
	ErrRateLimitExceeded   = errors.New("request was throttled")
	ErrValidation          = errors.New("invalid input")
	ErrInvalidPage         = errors.New("invalid page")
)

// ValidationError carries a message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrValidation, e.Fields)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ThrottledError reports which throttle rejected the request and how long to wait.
type ThrottledError struct {
	Throttle string
	Wait     time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s by %s throttle", ErrRateLimitExceeded, e.Throttle)
}

func (e *ThrottledError) Unwrap() error { return ErrRateLimitExceeded }

// RetryAfter is the wait rounded up to whole seconds.
func (e *ThrottledError) RetryAfter() int {
	return int(math.Ceil(e.Wait.Seconds()))
}

// HandleErrResponse writes err as the detail of a JSON error body.
func HandleErrResponse(w http.ResponseWriter, statusCode int, err error) {
	WriteResponse(w, statusCode, models.ErrorResponse{Detail: err.Error()})
}

// WriteErr maps err to a status code and writes it. Unexpected errors are logged and hidden.
func WriteErr(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())

	var validationErr *ValidationError
	var throttledErr *ThrottledError
	var pqErr *pq.Error

	switch {
	case errors.As(err, &validationErr):
		logger.Debug().Interface("fields", validationErr.Fields).Msg("validation failed")
		WriteResponse(w, http.StatusBadRequest, models.ErrorResponse{
			Detail: ErrValidation.Error(),
			Errors: validationErr.Fields,
		})
	case errors.As(err, &throttledErr):
		wait := throttledErr.RetryAfter()
		w.Header().Set("Retry-After", strconv.Itoa(wait))
		HandleErrResponse(w, http.StatusTooManyRequests,
			fmt.Errorf("%w. Expected available in %d seconds", ErrRateLimitExceeded, wait))
	case errors.Is(err, ErrNotAuthenticated):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		HandleErrResponse(w, http.StatusUnauthorized, errors.New("authentication credentials were not provided"))
	case errors.Is(err, ErrAuthorizationDenied):
		HandleErrResponse(w, http.StatusForbidden, ErrAuthorizationDenied)
	case errors.Is(err, db.ErrNotFound), errors.Is(err, ErrInvalidPage):
		HandleErrResponse(w, http.StatusNotFound, err)
	case errors.As(err, &pqErr) && pqErr.Code.Class() == "23":
		// Integrity constraint violations are caused by the request
		logger.Warn().Err(err).Str("code", pqErr.Code.Name()).Msg("constraint violation")
		WriteResponse(w, http.StatusBadRequest, models.ErrorResponse{
			Detail: pqErr.Message,
			Code:   pqErr.Code.Name(),
		})
	default:
		logger.Error().Err(err).Msg("request failed")
		HandleErrResponse(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

// validationFields turns validator errors into a message per JSON field.
func validationFields(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			fields[field] = "This field is required."
		case "max":
			fields[field] = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		case "min":
			fields[field] = "This field may not be blank."
		default:
			fields[field] = fmt.Sprintf("Failed on the %q rule.", fe.Tag())
		}
	}
	return &ValidationError{Fields: fields}
}
