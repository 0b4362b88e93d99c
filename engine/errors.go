package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrHeadSelection is returned when a query specifies neither mean
	// over heads nor a single head index.
	ErrHeadSelection = errors.New("engine: head selection required: use MeanHeads() or Head(i)")

	// ErrEmptySelection is returned for an inverse query over an empty
	// patch set. An empty selection usually means a region-to-patch
	// mapping bug upstream, so it is an error rather than a zero map.
	ErrEmptySelection = errors.New("engine: empty patch selection")

	// ErrAggregation is returned for an unknown aggregation policy.
	ErrAggregation = errors.New("engine: unknown aggregation")
)

// HeadRangeError reports a head index outside [0, H).
type HeadRangeError struct {
	Head  int
	Heads int
}

func (e *HeadRangeError) Error() string {
	return fmt.Sprintf("engine: head %d out of range [0,%d)", e.Head, e.Heads)
}

// QueryRangeError reports a query index outside [0, Q).
type QueryRangeError struct {
	Query   int
	Queries int
}

func (e *QueryRangeError) Error() string {
	return fmt.Sprintf("engine: query %d out of range [0,%d)", e.Query, e.Queries)
}

// KeyRangeError reports a selected key index outside [0, K).
type KeyRangeError struct {
	Key  int
	Keys int
}

func (e *KeyRangeError) Error() string {
	return fmt.Sprintf("engine: key %d out of range [0,%d)", e.Key, e.Keys)
}

// UnknownCameraError reports a camera name absent from the token layout.
type UnknownCameraError struct {
	CamName string
}

func (e *UnknownCameraError) Error() string {
	return fmt.Sprintf("engine: unknown camera %q", e.CamName)
}

// LayoutMismatchError reports a tensor whose dimensions disagree with the
// token layout or BEV grid it is paired with.
type LayoutMismatchError struct {
	What     string
	Expected int
	Actual   int
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("engine: %s mismatch: tensor has %d, expected %d", e.What, e.Actual, e.Expected)
}
