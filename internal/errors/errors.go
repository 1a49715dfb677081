/*
 * Omeka S Deploy - Error Handling
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package errors

import (
	"fmt"
)

// Error types for better error handling and categorization
type ErrorType string

const (
	ErrTypeRegistry      ErrorType = "registry"
	ErrTypeFetch         ErrorType = "fetch"
	ErrTypeExtract       ErrorType = "extract"
	ErrTypeDependency    ErrorType = "dependency"
	ErrTypeDatabase      ErrorType = "database"
	ErrTypeRelease       ErrorType = "release"
	ErrTypeFileSystem    ErrorType = "filesystem"
	ErrTypeDocker        ErrorType = "docker"
	ErrTypeConfiguration ErrorType = "configuration"
	ErrTypeInternal      ErrorType = "internal"
)

// OmekaError represents a custom application error with context
type OmekaError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Operation string    `json:"operation"`
	Cause     error     `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *OmekaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error wrapping
func (e *OmekaError) Unwrap() error {
	return e.Cause
}

// New creates a new OmekaError
func New(errType ErrorType, operation, message string) *OmekaError {
	return &OmekaError{
		Type:      errType,
		Message:   message,
		Operation: operation,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, operation, message string) *OmekaError {
	return &OmekaError{
		Type:      errType,
		Message:   message,
		Operation: operation,
		Cause:     err,
	}
}

// Registry error constructors
func NewRegistryError(operation, message string) *OmekaError {
	return New(ErrTypeRegistry, operation, message)
}

func WrapRegistryError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeRegistry, operation, message)
}

// Fetch error constructors
func NewFetchError(operation, message string) *OmekaError {
	return New(ErrTypeFetch, operation, message)
}

func WrapFetchError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeFetch, operation, message)
}

// Extract error constructors
func NewExtractError(operation, message string) *OmekaError {
	return New(ErrTypeExtract, operation, message)
}

func WrapExtractError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeExtract, operation, message)
}

// Dependency error constructors
func NewDependencyError(operation, message string) *OmekaError {
	return New(ErrTypeDependency, operation, message)
}

func WrapDependencyError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeDependency, operation, message)
}

// Database error constructors
func NewDatabaseError(operation, message string) *OmekaError {
	return New(ErrTypeDatabase, operation, message)
}

func WrapDatabaseError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeDatabase, operation, message)
}

// Release error constructors
func NewReleaseError(operation, message string) *OmekaError {
	return New(ErrTypeRelease, operation, message)
}

func WrapReleaseError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeRelease, operation, message)
}

// FileSystem error constructors
func NewFileSystemError(operation, message string) *OmekaError {
	return New(ErrTypeFileSystem, operation, message)
}

func WrapFileSystemError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeFileSystem, operation, message)
}

// Docker error constructors
func NewDockerError(operation, message string) *OmekaError {
	return New(ErrTypeDocker, operation, message)
}

func WrapDockerError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeDocker, operation, message)
}

// Configuration error constructors
func NewConfigurationError(operation, message string) *OmekaError {
	return New(ErrTypeConfiguration, operation, message)
}

func WrapConfigurationError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeConfiguration, operation, message)
}

// Internal error constructors
func NewInternalError(operation, message string) *OmekaError {
	return New(ErrTypeInternal, operation, message)
}

func WrapInternalError(err error, operation, message string) *OmekaError {
	return Wrap(err, ErrTypeInternal, operation, message)
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if omekaErr, ok := err.(*OmekaError); ok {
		return omekaErr.Type == errType
	}
	return false
}

// GetType returns the error type if it's an OmekaError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if omekaErr, ok := err.(*OmekaError); ok {
		return omekaErr.Type
	}
	return ErrTypeInternal
}
