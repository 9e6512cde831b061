/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a record or object is not found
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when attempting to create a record that already exists
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrQualityCheck is returned when a data quality check fails
	ErrQualityCheck = errors.New("quality check failed")

	// ErrBackendUnavailable is returned when a storage backend cannot be reached
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrNoIndexMap is returned when no index map is found for a record type
	ErrNoIndexMap = errors.New("no index map found for type")
)

// NotFoundError represents an error when a record or object is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a record already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// QualityCheckError represents a failed data quality assertion on a dataset
type QualityCheckError struct {
	Dataset string
	Check   string
}

func (e *QualityCheckError) Error() string {
	return fmt.Sprintf("quality check failed for dataset %q: %s", e.Dataset, e.Check)
}

func (e *QualityCheckError) Is(target error) bool {
	return target == ErrQualityCheck
}

// BackendUnavailableError represents an unreachable storage backend
type BackendUnavailableError struct {
	Backend string
	Cause   error
}

func (e *BackendUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend %q unavailable: %v", e.Backend, e.Cause)
	}
	return fmt.Sprintf("backend %q unavailable", e.Backend)
}

func (e *BackendUnavailableError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Cause
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(recordType, key string) error {
	return &NotFoundError{Type: recordType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(recordType, key string) error {
	return &AlreadyExistsError{Type: recordType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewQualityCheckError creates a new QualityCheckError
func NewQualityCheckError(dataset, check string) error {
	return &QualityCheckError{Dataset: dataset, Check: check}
}

// NewBackendUnavailableError creates a new BackendUnavailableError
func NewBackendUnavailableError(backend string, cause error) error {
	return &BackendUnavailableError{Backend: backend, Cause: cause}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsQualityCheck checks if an error is a quality check error
func IsQualityCheck(err error) bool {
	return errors.Is(err, ErrQualityCheck)
}

// IsBackendUnavailable checks if an error is a backend unavailable error
func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}
