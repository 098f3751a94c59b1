package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrEmptyQueryIdentifier indicates a query directive without identifier.
	ErrEmptyQueryIdentifier = errors.New("repox: empty query identifier")
	// ErrParamCountMismatch indicates a bridge method with the wrong number of parameters.
	ErrParamCountMismatch = errors.New("repox: parameter count mismatch")
	// ErrVoidReturnRequired indicates a method that must not return a value.
	ErrVoidReturnRequired = errors.New("repox: void return required")
	// ErrParamsNotSupported indicates a session accessor with parameters.
	ErrParamsNotSupported = errors.New("repox: parameters not supported")
	// ErrUnsupportedReturnType indicates a result type no strategy can produce.
	ErrUnsupportedReturnType = errors.New("repox: unsupported return type")
	// ErrUnsupportedTemporalTarget indicates a temporal binding on a non-time parameter.
	ErrUnsupportedTemporalTarget = errors.New("repox: unsupported temporal target")
	// ErrMissingErrorResult indicates a method without a trailing error result.
	ErrMissingErrorResult = errors.New("repox: missing error result")
	// ErrInvalidDirective indicates a malformed method directive.
	ErrInvalidDirective = errors.New("repox: invalid directive")
	// ErrUnhandledMethod indicates a method that matches no category.
	ErrUnhandledMethod = errors.New("repox: unhandled method")
	// ErrInvalidInterface indicates an interface-level failure.
	ErrInvalidInterface = errors.New("repox: invalid interface")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("repox: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("repox: code generation failed")
)

// DiagnosticKind identifies a method-level diagnostic.
type DiagnosticKind uint8

// Diagnostic kinds.
const (
	_ DiagnosticKind = iota
	EmptyQueryIdentifier
	ParamCountMismatch
	VoidReturnRequired
	ParamsNotSupported
	UnsupportedReturnType
	UnsupportedTemporalTarget
	MissingErrorResult
	InvalidDirective
	UnhandledMethod
)

var kinds = [...]struct {
	name string
	err  error
}{
	EmptyQueryIdentifier:      {"EmptyQueryIdentifier", ErrEmptyQueryIdentifier},
	ParamCountMismatch:        {"ParamCountMismatch", ErrParamCountMismatch},
	VoidReturnRequired:        {"VoidReturnRequired", ErrVoidReturnRequired},
	ParamsNotSupported:        {"ParamsNotSupported", ErrParamsNotSupported},
	UnsupportedReturnType:     {"UnsupportedReturnType", ErrUnsupportedReturnType},
	UnsupportedTemporalTarget: {"UnsupportedTemporalTarget", ErrUnsupportedTemporalTarget},
	MissingErrorResult:        {"MissingErrorResult", ErrMissingErrorResult},
	InvalidDirective:          {"InvalidDirective", ErrInvalidDirective},
	UnhandledMethod:           {"UnhandledMethod", ErrUnhandledMethod},
}

// String returns the kind name.
func (k DiagnosticKind) String() string {
	if int(k) < len(kinds) && kinds[k].name != "" {
		return kinds[k].name
	}
	return fmt.Sprintf("DiagnosticKind(%d)", k)
}

// Sentinel returns the sentinel error matched by diagnostics of kind k.
func (k DiagnosticKind) Sentinel() error {
	if int(k) < len(kinds) {
		return kinds[k].err
	}
	return nil
}

// MethodError is a classification or generation failure tied to one method.
// It never stops the processing of sibling methods.
type MethodError struct {
	Kind      DiagnosticKind
	Interface string
	Method    string
	Pos       string
	Message   string
}

// Error implements the error interface.
func (e *MethodError) Error() string {
	var b strings.Builder
	b.WriteString("repox: ")
	if e.Pos != "" {
		b.WriteString(e.Pos)
		b.WriteString(": ")
	}
	if e.Interface != "" {
		b.WriteString(e.Interface)
		b.WriteByte('.')
	}
	b.WriteString(e.Method)
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Is reports whether the target matches the sentinel error of the kind.
func (e *MethodError) Is(target error) bool {
	return target != nil && target == e.Kind.Sentinel()
}

// NewMethodError creates a new MethodError for method m.
func NewMethodError(kind DiagnosticKind, m *Method, format string, args ...any) *MethodError {
	return &MethodError{
		Kind:    kind,
		Method:  m.Name,
		Pos:     m.Pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsMethodError checks if an error is a MethodError.
func IsMethodError(err error) bool {
	var e *MethodError
	return errors.As(err, &e)
}

// InterfaceError represents a failure shared by every method of an
// interface, such as an invalid session binding. The interface is
// abandoned while others proceed.
type InterfaceError struct {
	Interface string
	Pos       string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *InterfaceError) Error() string {
	var b strings.Builder
	b.WriteString("repox: ")
	if e.Pos != "" {
		b.WriteString(e.Pos)
		b.WriteString(": ")
	}
	b.WriteString("interface ")
	b.WriteString(e.Interface)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *InterfaceError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for InterfaceError.
func (e *InterfaceError) Is(target error) bool {
	return target == ErrInvalidInterface
}

// NewInterfaceError creates a new InterfaceError.
func NewInterfaceError(iface, pos, message string, cause error) *InterfaceError {
	return &InterfaceError{
		Interface: iface,
		Pos:       pos,
		Message:   message,
		Cause:     cause,
	}
}

// IsInterfaceError checks if an error is an InterfaceError.
func IsInterfaceError(err error) bool {
	var e *InterfaceError
	return errors.As(err, &e)
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("repox: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("repox: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// IsConfigError checks if an error is a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// GenerationError represents a failure while emitting or writing code.
type GenerationError struct {
	Interface string
	File      string
	Cause     error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("repox: generation failed")
	if e.Interface != "" {
		b.WriteString(" for ")
		b.WriteString(e.Interface)
	}
	if e.File != "" {
		b.WriteString(" (")
		b.WriteString(e.File)
		b.WriteByte(')')
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(iface, file string, cause error) *GenerationError {
	return &GenerationError{
		Interface: iface,
		File:      file,
		Cause:     cause,
	}
}

// IsGenerationError checks if an error is a GenerationError.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}

// Diagnostics collects the method errors of one interface.
type Diagnostics []*MethodError

// Add appends err to the collection.
func (d *Diagnostics) Add(err *MethodError) {
	*d = append(*d, err)
}

// Of returns the diagnostics of the given kind.
func (d Diagnostics) Of(kind DiagnosticKind) Diagnostics {
	var out Diagnostics
	for _, e := range d {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// For returns the diagnostics reported against method.
func (d Diagnostics) For(method string) Diagnostics {
	var out Diagnostics
	for _, e := range d {
		if e.Method == method {
			out = append(out, e)
		}
	}
	return out
}

// Err joins all diagnostics into one error, or returns nil.
func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}
	errs := make([]error, len(d))
	for i, e := range d {
		errs[i] = e
	}
	return errors.Join(errs...)
}
