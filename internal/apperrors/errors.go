package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports a malformed or out-of-range input value.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceID)
}

// UnauthorizedError reports an authenticated caller that may not perform Action on Resource.
type UnauthorizedError struct {
	Action   string
	Resource string
	UserID   string
}

func (e *UnauthorizedError) Error() string {
	if e.UserID == "" {
		return fmt.Sprintf("not authorized to %s %s", e.Action, e.Resource)
	}
	return fmt.Sprintf("user %s is not authorized to %s %s", e.UserID, e.Action, e.Resource)
}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Resource, e.Field, e.Value)
}

// BusinessRuleError reports a violated domain invariant such as a duplicate tag.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Rule + ": " + e.Message
}

// ExternalServiceError reports a failure of a third-party dependency.
type ExternalServiceError struct {
	ServiceName string
	Operation   string
	StatusCode  int
	Timeout     bool
	Message     string
}

func (e *ExternalServiceError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s timed out: %s", e.ServiceName, e.Operation, e.Message)
	}
	return fmt.Sprintf("%s %s failed with status %d: %s", e.ServiceName, e.Operation, e.StatusCode, e.Message)
}

// ApplicationError wraps an unexpected internal failure.
type ApplicationError struct {
	Trace   string
	Message string
	Err     error
}

func (e *ApplicationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Trace, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Trace, e.Message, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

func NewValidation(field, message string) error {
	return &ValidationError{
		Message: message,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

func NewNotFound(resourceType, resourceID string) error {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

func NewUnauthorized(action, resource, userID string) error {
	return &UnauthorizedError{Action: action, Resource: resource, UserID: userID}
}

func NewBusinessRule(rule, message string) error {
	return &BusinessRuleError{Rule: rule, Message: message}
}

// IsExpected reports whether err belongs to the classified taxonomy and should
// reach the caller unwrapped.
func IsExpected(err error) bool {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		unauth     *UnauthorizedError
		conflict   *ConflictError
		rule       *BusinessRuleError
		external   *ExternalServiceError
		app        *ApplicationError
	)

	return errors.As(err, &validation) ||
		errors.As(err, &notFound) ||
		errors.As(err, &unauth) ||
		errors.As(err, &conflict) ||
		errors.As(err, &rule) ||
		errors.As(err, &external) ||
		errors.As(err, &app)
}

// Wrap returns err untouched when it is an expected error and otherwise
// wraps it into an ApplicationError labelled with trace.
func Wrap(err error, trace, message string) error {
	if err == nil {
		return nil
	}

	if IsExpected(err) {
		return err
	}

	return &ApplicationError{Trace: trace, Message: message, Err: err}
}

func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		unauth     *UnauthorizedError
		conflict   *ConflictError
		rule       *BusinessRuleError
		external   *ExternalServiceError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unauth):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &rule):
		return http.StatusUnprocessableEntity
	case errors.As(err, &external):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Body renders err as the structured JSON body returned to HTTP clients.
// Internal causes of an ApplicationError are not exposed.
func Body(err error) map[string]any {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		unauth     *UnauthorizedError
		conflict   *ConflictError
		rule       *BusinessRuleError
		external   *ExternalServiceError
		app        *ApplicationError
	)

	body := map[string]any{"message": err.Error()}

	switch {
	case errors.As(err, &validation):
		body["kind"] = "validation"
		body["message"] = validation.Message
		body["fields"] = validation.Fields
	case errors.As(err, &unauth):
		body["kind"] = "unauthorized"
		body["action"] = unauth.Action
		body["resource"] = unauth.Resource
		if unauth.UserID != "" {
			body["user_id"] = unauth.UserID
		}
	case errors.As(err, &notFound):
		body["kind"] = "not_found"
		body["resource_type"] = notFound.ResourceType
		body["resource_id"] = notFound.ResourceID
	case errors.As(err, &conflict):
		body["kind"] = "conflict"
		body["resource"] = conflict.Resource
		body["field"] = conflict.Field
	case errors.As(err, &rule):
		body["kind"] = "business_rule"
		body["rule"] = rule.Rule
		body["message"] = rule.Message
	case errors.As(err, &external):
		body["kind"] = "external_service"
		body["service_name"] = external.ServiceName
		body["operation"] = external.Operation
		body["status_code"] = external.StatusCode
		body["timeout"] = external.Timeout
	case errors.As(err, &app):
		body["kind"] = "application"
		body["trace"] = app.Trace
		body["message"] = app.Message
	default:
		body["kind"] = "application"
		body["message"] = "Internal server error"
	}

	return body
}
