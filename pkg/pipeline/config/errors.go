package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a raw parameter that cannot be turned into a configuration value.
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Param, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configError(param string, value any, reason string) error {
	return &ConfigError{Param: param, Value: value, Reason: reason}
}
