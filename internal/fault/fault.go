// Package fault classifies raw failures into typed error records with a
// kind, category, and severity, and renders them as localized user-facing
// messages.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Kind is the failure taxonomy.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
	KindServer     Kind = "server"
	KindAuth       Kind = "auth"
	KindSystem     Kind = "system"
	KindUnknown    Kind = "unknown"
)

// Valid reports whether the kind is a member of the closed enumeration.
func (k Kind) Valid() bool {
	switch k {
	case KindNetwork, KindValidation, KindServer, KindAuth, KindSystem, KindUnknown:
		return true
	}
	return false
}

// Category identifies which part of the system the failure belongs to.
type Category string

const (
	CategoryChat        Category = "chat"
	CategoryTripPlanner Category = "trip_planner"
	CategoryAuth        Category = "authentication"
	CategoryAPI         Category = "api"
	CategoryUI          Category = "ui"
)

// Valid reports whether the category is a member of the closed enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryChat, CategoryTripPlanner, CategoryAuth, CategoryAPI, CategoryUI:
		return true
	}
	return false
}

// Severity grades how serious a failure is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is a member of the closed enumeration.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// TypedError is a classified failure record. It is immutable after creation.
type TypedError struct {
	Kind       Kind      `json:"kind"`
	Category   Category  `json:"category"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	Cause      error     `json:"-"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Error implements the error interface. The detail here is for logs only;
// user-facing text comes from UserMessage.
func (e *TypedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s/%s: %s: %v", e.Kind, e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.Category, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *TypedError) Unwrap() error {
	return e.Cause
}

// New constructs a TypedError, validating every enum member. An unknown kind,
// category, or severity, or an empty message, is itself a validation failure
// so integration bugs surface immediately instead of being defaulted away.
func New(kind Kind, category Category, severity Severity, message string, cause error) (*TypedError, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid error kind: %q", kind)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("invalid error category: %q", category)
	}
	if !severity.Valid() {
		return nil, fmt.Errorf("invalid error severity: %q", severity)
	}
	if message == "" {
		return nil, fmt.Errorf("error message must not be empty")
	}
	return &TypedError{
		Kind:       kind,
		Category:   category,
		Severity:   severity,
		Message:    message,
		Cause:      cause,
		OccurredAt: time.Now(),
	}, nil
}

// Classify maps a raw failure to a TypedError for the given category. Unlike
// New it is total: it only uses well-known enum members and never fails.
func Classify(cause error, category Category) *TypedError {
	if !category.Valid() {
		category = CategoryAPI
	}

	var typed *TypedError
	if errors.As(cause, &typed) {
		return typed
	}

	kind := KindUnknown
	severity := SeverityError
	message := "unclassified failure"

	var netErr net.Error
	switch {
	case cause == nil:
		message = "failure with no cause"
		kind = KindSystem
	case errors.Is(cause, context.Canceled):
		kind = KindNetwork
		severity = SeverityWarning
		message = "operation cancelled"
	case errors.Is(cause, context.DeadlineExceeded):
		kind = KindServer
		message = "operation timed out"
	case errors.As(cause, &netErr):
		kind = KindNetwork
		message = "transport failure"
	default:
		message = cause.Error()
	}

	return &TypedError{
		Kind:       kind,
		Category:   category,
		Severity:   severity,
		Message:    message,
		Cause:      cause,
		OccurredAt: time.Now(),
	}
}
