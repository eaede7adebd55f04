// Package errors provides the error handling and warning system used across
// the project. Errors are structured values carrying the offending
// configuration option or quantity so callers and logs can act on them,
// with stack traces attached via cockroachdb/errors.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// Default handler logs to standard error.
		log.Printf("nequip-warning: %v\n", w)
	}
	// zerolog warn hook, injected lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the handler invoked for advisory conditions such as
// ExtensivityWarning. Use it to silence or redirect warnings:
//
//	errors.SetWarningHandler(func(w error) {})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs the zerolog-backed warn function.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn raises an advisory condition. Warnings are never returned as errors;
// they go to the installed handler (zerolog-backed when available).
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// ExtensivityWarning is raised when a global shift is configured on an
// extensive quantity. Shifting the total energy makes the model no longer
// size-extensive; this is a physics concern, not a code defect, so it is
// advisory rather than fatal.
type ExtensivityWarning struct {
	Key   string
	Shift interface{}
}

func (w *ExtensivityWarning) Error() string {
	return fmt.Sprintf("global shift for %q is set to %v; the energy model will no longer be extensive", w.Key, w.Shift)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ExtensivityWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("key", w.Key).
		Interface("shift", w.Shift).
		Str("type", "ExtensivityWarning")
}

// NewExtensivityWarning creates a new ExtensivityWarning.
func NewExtensivityWarning(key string, shift interface{}) *ExtensivityWarning {
	return &ExtensivityWarning{Key: key, Shift: shift}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// ConfigError reports an invalid configuration value. It names the offending
// option so the failure is actionable at setup time.
type ConfigError struct {
	Option string
	Reason string
	Value  interface{}
}

func (e *ConfigError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("nequip: invalid configuration for %q: %s", e.Option, e.Reason)
	}
	return fmt.Sprintf("nequip: invalid configuration for %q: %s (got: %v)", e.Option, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("option", e.Option).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigError")
}

// NewConfigError creates a new ConfigError with a stack trace attached.
func NewConfigError(option, reason string, value interface{}) error {
	err := &ConfigError{Option: option, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// StatNameError reports a statistic identifier whose trailing stat token is
// not one of mean, std, rms.
type StatNameError struct {
	Name string
	Stat string
}

func (e *StatNameError) Error() string {
	return fmt.Sprintf("nequip: cannot handle statistic %q in identifier %q (expected mean, std or rms)", e.Stat, e.Name)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *StatNameError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("name", e.Name).
		Str("stat", e.Stat).
		Str("type", "StatNameError")
}

// NewStatNameError creates a new StatNameError with a stack trace attached.
func NewStatNameError(name, stat string) error {
	err := &StatNameError{Name: name, Stat: stat}
	return errors.WithStack(err)
}

// KeyKindError reports a loss variant applied to a quantity key of the wrong
// kind, e.g. a per-atom loss on a key that is not registered as graph-level.
type KeyKindError struct {
	Op   string
	Key  string
	Want string
}

func (e *KeyKindError) Error() string {
	return fmt.Sprintf("nequip: %s: key %q is not registered as a %s field", e.Op, e.Key, e.Want)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *KeyKindError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("key", e.Key).
		Str("want_kind", e.Want).
		Str("type", "KeyKindError")
}

// NewKeyKindError creates a new KeyKindError with a stack trace attached.
func NewKeyKindError(op, key, want string) error {
	err := &KeyKindError{Op: op, Key: key, Want: want}
	return errors.WithStack(err)
}

// NotImplementedError reports a requested operation variant that is valid in
// principle but not supported by this implementation.
type NotImplementedError struct {
	Op     string
	Reason string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("nequip: %s: not implemented: %s", e.Op, e.Reason)
}

// NewNotImplementedError creates a new NotImplementedError with a stack trace.
func NewNotImplementedError(op, reason string) error {
	err := &NotImplementedError{Op: op, Reason: reason}
	return errors.WithStack(err)
}

// DimensionError reports prediction/reference shape disagreement.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("nequip: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a new DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is invalid for the operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("nequip: %s: %s", e.Op, e.Message)
}

// NewValueError creates a new ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}
