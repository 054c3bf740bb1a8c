// Package domain defines the submission model and the error taxonomy shared
// by the storage, service, and HTTP layers.
//
// This file contains the tagged error variants. Each variant carries its own
// typed payload and reports the HTTP status it maps to; the handlers package
// is the only place that turns one into a wire response.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is implemented by every domain error variant.
type StatusError interface {
	error
	// Status is the HTTP status code the error is rendered with.
	Status() int
	// Code is a stable, machine-readable identifier for clients.
	Code() string
}

// MissingFieldError reports a required form field that was not supplied.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string { return fmt.Sprintf("missing field %q", e.Field) }
func (e *MissingFieldError) Status() int   { return http.StatusBadRequest }
func (e *MissingFieldError) Code() string  { return "missing_field" }

// InvalidAnonymityError reports an anon value outside the accepted set.
type InvalidAnonymityError struct {
	Value    string
	Accepted []string
}

func (e *InvalidAnonymityError) Error() string {
	return fmt.Sprintf("invalid anon value %q, must be one of {%s}", e.Value, strings.Join(e.Accepted, ", "))
}
func (e *InvalidAnonymityError) Status() int  { return http.StatusBadRequest }
func (e *InvalidAnonymityError) Code() string { return "invalid_anon" }

// IdentityRequiredError is returned when a revealed submission has no
// authenticated identity to reveal.
type IdentityRequiredError struct{}

func (e *IdentityRequiredError) Error() string {
	return "anon=yes requires an authenticated identity"
}
func (e *IdentityRequiredError) Status() int  { return http.StatusBadRequest }
func (e *IdentityRequiredError) Code() string { return "identity_required" }

// EmptySubmissionError is returned when neither text nor a file was supplied.
type EmptySubmissionError struct{}

func (e *EmptySubmissionError) Error() string {
	return "submission must contain text or an attached file"
}
func (e *EmptySubmissionError) Status() int  { return http.StatusBadRequest }
func (e *EmptySubmissionError) Code() string { return "empty_submission" }

// UnauthorizedError is returned by the retrieval gateway.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Reason
}
func (e *UnauthorizedError) Status() int  { return http.StatusUnauthorized }
func (e *UnauthorizedError) Code() string { return "unauthorized" }

// PayloadTooLargeError is raised at the transport boundary when the request
// body exceeds the configured limit.
type PayloadTooLargeError struct {
	Limit int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.Limit)
}
func (e *PayloadTooLargeError) Status() int  { return http.StatusRequestEntityTooLarge }
func (e *PayloadTooLargeError) Code() string { return "payload_too_large" }

// NotImplementedError marks a recognized feature that is not built.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string { return e.Feature + " is not implemented" }
func (e *NotImplementedError) Status() int   { return http.StatusNotImplemented }
func (e *NotImplementedError) Code() string  { return "not_implemented" }

// InsufficientStorageError is returned by admission control and by the
// stores when the filesystem runs out of space.
type InsufficientStorageError struct {
	Area     string
	Free     uint64
	Required uint64
	Err      error
}

func (e *InsufficientStorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("insufficient storage in %s: %v", e.Area, e.Err)
	}
	return fmt.Sprintf("insufficient storage in %s: %d bytes free, %d required", e.Area, e.Free, e.Required)
}
func (e *InsufficientStorageError) Unwrap() error { return e.Err }
func (e *InsufficientStorageError) Status() int   { return http.StatusInsufficientStorage }
func (e *InsufficientStorageError) Code() string  { return "insufficient_storage" }

// InternalError wraps an unanticipated failure. Its cause is logged but never
// rendered to the caller.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return "internal error"
	}
	return "internal error: " + e.Err.Error()
}
func (e *InternalError) Unwrap() error { return e.Err }
func (e *InternalError) Status() int   { return http.StatusInternalServerError }
func (e *InternalError) Code() string  { return "internal_error" }

// AsStatusError extracts the domain variant from err. Anything that is not a
// domain error is wrapped in an InternalError.
func AsStatusError(err error) StatusError {
	if err == nil {
		return nil
	}
	var se StatusError
	if errors.As(err, &se) {
		return se
	}
	return &InternalError{Err: err}
}

// PublicMessage is the message safe to show to callers. Internal errors
// collapse to a generic text.
func PublicMessage(se StatusError) string {
	switch se.(type) {
	case *InternalError:
		return "internal server error"
	case *InsufficientStorageError:
		// free/required byte counts and paths stay in the logs
		return "insufficient storage, try again later"
	}
	return se.Error()
}
