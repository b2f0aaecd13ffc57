// Package errors provides standardized error types and helpers for the Mareh codebase.
//
// Callers discriminate failures with errors.Is against the sentinel values
// (or errors.As against the typed wrappers), never by matching message text.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrBookName indicates a title was not found in the library.
	ErrBookName = errors.New("unknown book")
	// ErrMalformed indicates a citation string could not be parsed.
	ErrMalformed = errors.New("could not parse reference")
	// ErrSections indicates the section or range portion of a citation
	// did not match the text's addressing scheme.
	ErrSections = errors.New("could not understand text sections")
	// ErrOutOfRange indicates a parsed section number exceeds the text's
	// declared length.
	ErrOutOfRange = errors.New("section out of range")
	// ErrStructural indicates a structurally invalid citation, such as one
	// with more than one range hyphen.
	ErrStructural = errors.New("structurally invalid reference")
	// ErrIbid indicates an ibid citation token, which is not supported.
	ErrIbid = errors.New("ibid reference not supported")
	// ErrSchema indicates a malformed schema document in the catalog.
	ErrSchema = errors.New("invalid schema")
)

// InputKind classifies citation-input failures.
type InputKind int

const (
	// KindMalformed is a citation that matched no known shape.
	KindMalformed InputKind = iota
	// KindSections is a failure in the section/range portion.
	KindSections
	// KindOutOfRange is a section number beyond the text's length.
	KindOutOfRange
	// KindStructural is a structural failure such as too many hyphens.
	KindStructural
	// KindIbid is the unsupported ibid ("שם") token.
	KindIbid
)

func (k InputKind) sentinel() error {
	switch k {
	case KindSections:
		return ErrSections
	case KindOutOfRange:
		return ErrOutOfRange
	case KindStructural:
		return ErrStructural
	case KindIbid:
		return ErrIbid
	default:
		return ErrMalformed
	}
}

// String returns a short name for the kind, used in logs and metrics labels.
func (k InputKind) String() string {
	switch k {
	case KindSections:
		return "sections"
	case KindOutOfRange:
		return "out_of_range"
	case KindStructural:
		return "structural"
	case KindIbid:
		return "ibid"
	default:
		return "malformed"
	}
}

// InputError represents a citation string that could not be resolved.
type InputError struct {
	Kind    InputKind // Failure classification
	Input   string    // Offending citation text, if known
	Message string    // Human-readable detail
	Err     error     // Underlying error, if any
}

func (e *InputError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%v: %q: %s", e.Kind.sentinel(), e.Input, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind.sentinel(), e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying error, so
// errors.Is keeps matching the sentinel when a cause is attached.
func (e *InputError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

// BookNameError represents a title lookup failure. For "X on Y" commentary
// citations, Part identifies which half failed.
type BookNameError struct {
	Title string // Title that was looked up
	Part  string // "commentator" or "base" for commentary lookups, else empty
	Err   error  // Underlying error, if any
}

func (e *BookNameError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("no %s named %q", e.Part, e.Title)
	}
	return fmt.Sprintf("no book named %q", e.Title)
}

func (e *BookNameError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrBookName, e.Err}
	}
	return []error{ErrBookName}
}

// SchemaError represents a schema-tree construction failure. This indicates
// a corrupt catalog record, not a bad citation string.
type SchemaError struct {
	Path    string // Node path within the schema document
	Message string // Human-readable detail
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("schema: %s", e.Message)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// Is reports whether err matches target, following wrapped errors.
// Re-exported so callers don't need both this package and stdlib errors.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error with the given text.
func New(text string) error {
	return errors.New(text)
}

// Errorf formats an error like fmt.Errorf, supporting %w wrapping.
func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
