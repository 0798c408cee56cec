package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a reconciliation step produced no series.
type ErrorKind int

const (
	KindUnrecognizedSamplingGrid ErrorKind = iota + 1
	KindNoOverlap
	KindZeroOverlapMax
	KindZeroMean
	KindNoBaseline
	KindNoBaselineCoverage
	KindZeroPeak
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnrecognizedSamplingGrid:
		return "unrecognized_sampling_grid"
	case KindNoOverlap:
		return "no_overlap"
	case KindZeroOverlapMax:
		return "zero_overlap_max"
	case KindZeroMean:
		return "zero_mean"
	case KindNoBaseline:
		return "no_baseline"
	case KindNoBaselineCoverage:
		return "no_baseline_coverage"
	case KindZeroPeak:
		return "zero_peak"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Unresolvable reports whether the kind stems from sparse or flat data
// rather than from a decoding defect.
func (k ErrorKind) Unresolvable() bool {
	return k != KindUnrecognizedSamplingGrid
}

// ReconcileError is returned by the restore, stitch and rescale steps.
type ReconcileError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ReconcileError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is matches any ReconcileError of the same kind, so the sentinels below
// work with errors.Is regardless of Detail.
func (e *ReconcileError) Is(target error) bool {
	var t *ReconcileError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnrecognizedSamplingGrid = &ReconcileError{Kind: KindUnrecognizedSamplingGrid}
	ErrNoOverlap                = &ReconcileError{Kind: KindNoOverlap}
	ErrZeroOverlapMax           = &ReconcileError{Kind: KindZeroOverlapMax}
	ErrZeroMean                 = &ReconcileError{Kind: KindZeroMean}
	ErrNoBaseline               = &ReconcileError{Kind: KindNoBaseline}
	ErrNoBaselineCoverage       = &ReconcileError{Kind: KindNoBaselineCoverage}
	ErrZeroPeak                 = &ReconcileError{Kind: KindZeroPeak}
)

// NewError builds a ReconcileError with a formatted detail message.
func NewError(kind ErrorKind, format string, args ...interface{}) error {
	return &ReconcileError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or 0 if err is not a ReconcileError.
func KindOf(err error) ErrorKind {
	var re *ReconcileError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

// IsUnresolvable reports whether err means "not enough usable data" as
// opposed to a hard decoding failure.
func IsUnresolvable(err error) bool {
	kind := KindOf(err)
	return kind != 0 && kind.Unresolvable()
}
