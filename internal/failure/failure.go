// Package failure defines the typed error taxonomy shared by every pipeline step.
package failure

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// SourceUnavailable means a remote endpoint was unreachable or answered with a non-success status.
	SourceUnavailable Kind = "source_unavailable"
	// SourceShapeChanged means a fetch succeeded but the expected structure was not found.
	SourceShapeChanged Kind = "source_shape_changed"
	// UnknownYear means the requested year is not among the discovered extract years.
	UnknownYear Kind = "unknown_year"
	// EnrichmentFailed is a per-organization detail lookup failure.
	EnrichmentFailed Kind = "enrichment_failed"
	// UnparseableRevenue means a revenue value matched no recognized format.
	UnparseableRevenue Kind = "unparseable_revenue"
)

// Error carries a failure kind plus the step and year it happened in.
type Error struct {
	Kind Kind
	Step string
	Year int
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Step != "" {
		b.WriteString(" [step=")
		b.WriteString(e.Step)
		if e.Year != 0 {
			fmt.Fprintf(&b, " year=%d", e.Year)
		}
		b.WriteString("]")
	} else if e.Year != 0 {
		fmt.Fprintf(&b, " [year=%d]", e.Year)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the given kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf builds an error of the given kind from a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WithStep annotates err with the step and year it happened in. A kinded
// error keeps its kind; anything else becomes a *StepError.
func WithStep(err error, step string, year int) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		out := *fe
		if out.Step == "" {
			out.Step = step
		}
		if out.Year == 0 {
			out.Year = year
		}
		return &out
	}
	return &StepError{Step: step, Year: year, Err: err}
}

// StepError attaches step context to an error that has no failure kind.
type StepError struct {
	Step string
	Year int
	Err  error
}

func (e *StepError) Error() string {
	if e.Year != 0 {
		return fmt.Sprintf("step %s (year %d): %v", e.Step, e.Year, e.Err)
	}
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StepOf returns the step recorded on err, if any.
func StepOf(err error) (string, int) {
	var fe *Error
	if errors.As(err, &fe) && fe.Step != "" {
		return fe.Step, fe.Year
	}
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, se.Year
	}
	return "", 0
}

// IsNetwork reports whether err looks like a transport-level failure
// (timeouts, resets, refused connections, DNS).
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"eof",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Unavailable wraps a transport error or bad status as SourceUnavailable.
func Unavailable(err error) *Error {
	return New(SourceUnavailable, err)
}

// ShapeChanged wraps err as SourceShapeChanged.
func ShapeChanged(err error) *Error {
	return New(SourceShapeChanged, err)
}
