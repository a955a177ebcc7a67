// Package options defines the compiler's Options struct (the CLI surface
// of spec §6) and validates it once, at CLI-entry time, before the loader
// or any per-file slog handler is constructed.
package options

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/mcfdebug/mcfdebug/internal/diagnostics"
)

// Options is the single struct every compilation is parameterized by.
type Options struct {
	InputDir  string `validate:"required"`
	OutputDir string `validate:"required"`
	Namespace string `validate:"required,max=7,namespace_charset"`
	Shadow    bool
	LogLevel  string `validate:"omitempty,oneof=error warn info debug trace"`
	LogFile   string
	// Adapter suppresses the "-if_not_adapter-"-gated chat messages the
	// interactive resume/stop/breakpoint flow otherwise emits, for use by a
	// future Debug Adapter Protocol bridge that synthesizes its own.
	Adapter bool
	// DatapackName names the compiled datapack in tellraw text; defaults to
	// "mcfdebug" when empty.
	DatapackName string
}

// DefaultNamespace is the internal namespace used when --namespace is not
// given.
const DefaultNamespace = "mcfd"

// namespaceCharset matches the internal-namespace grammar: lowercase
// letters, digits, underscore.
var namespaceCharset = regexp.MustCompile(`^[a-z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("namespace_charset", func(fl validator.FieldLevel) bool {
		return namespaceCharset.MatchString(fl.Field().String())
	})
	return v
}

// Normalize fills in defaults (Namespace, DatapackName, LogLevel) for zero-value
// fields. It must run before Validate.
func (o *Options) Normalize() {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.DatapackName == "" {
		o.DatapackName = "mcfdebug"
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
}

// Validate runs struct-tag validation and translates the first failure
// into a ConfigError-kinded diagnostics.Diagnostic. A nil return means o is
// well-formed.
func (o *Options) Validate() *diagnostics.Diagnostic {
	if err := validate.Struct(o); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok || len(verrs) == 0 {
			return &diagnostics.Diagnostic{File: "<options>", Kind: diagnostics.KindConfigError, Message: err.Error()}
		}
		fe := verrs[0]
		return &diagnostics.Diagnostic{
			File:    "<options>",
			Kind:    diagnostics.KindConfigError,
			Message: describeFieldError(fe),
		}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "namespace_charset":
		return fmt.Sprintf("%s must match [a-z0-9_]+", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation %q", fe.Field(), fe.Tag())
	}
}
