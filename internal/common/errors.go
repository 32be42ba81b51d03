// SPDX-License-Identifier: Apache-2.0

package common

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel every ConfigurationError matches with errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a missing or malformed registry, keyword table or setting.
// It is raised at startup and is never retried.
type ConfigurationError struct {
	Source  string
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Source, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(source, message string, cause error) *ConfigurationError {
	return &ConfigurationError{Source: source, Message: message, Cause: cause}
}

// UnknownSchemaError is returned when neither the requested nor the default schema exists.
type UnknownSchemaError struct {
	DocumentType string
}

func (e *UnknownSchemaError) Error() string {
	return fmt.Sprintf("no schema for document type %q and no default schema registered", e.DocumentType)
}

func (e *UnknownSchemaError) Is(target error) bool {
	return target == ErrConfiguration
}
