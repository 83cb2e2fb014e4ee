package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks an invalid window, span, threshold or similar parameter.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrEmptySeries marks a series with no usable close data.
	ErrEmptySeries = errors.New("empty price series")
	// ErrMissingChannel marks a request for a channel the input does not carry.
	ErrMissingChannel = errors.New("missing channel")
	// ErrDuplicateDate marks two observations on the same calendar day.
	ErrDuplicateDate = errors.New("duplicate date")
	// ErrMalformedInput marks tabular input that cannot be parsed.
	ErrMalformedInput = errors.New("malformed input")
)

// ConfigurationError reports which parameter was rejected.
type ConfigurationError struct {
	Param string
	Value any
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v", e.Param, e.Value)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(param string, value any) error {
	return &ConfigurationError{Param: param, Value: value}
}

// MissingChannelError reports the channel name that could not be found.
type MissingChannelError struct {
	Channel string
}

func (e *MissingChannelError) Error() string {
	return fmt.Sprintf("missing channel %q", e.Channel)
}

func (e *MissingChannelError) Unwrap() error { return ErrMissingChannel }
