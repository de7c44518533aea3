package lod

import "errors"

var (
	// ErrInvalidTriangle is returned by the query API for ids outside the
	// current triangle range.
	ErrInvalidTriangle = errors.New("lod: invalid triangle id")

	// ErrInvalidOptions is returned when Options fail validation.
	ErrInvalidOptions = errors.New("lod: invalid options")

	// ErrCapacityExceeded means a division batch would grow the buffers past
	// the configured limits. The batch is not applied.
	ErrCapacityExceeded = errors.New("lod: buffer capacity exceeded")

	// ErrInconsistent reports a broken structural invariant. It indicates a
	// logic defect, not bad input.
	ErrInconsistent = errors.New("lod: inconsistent graph")

	// ErrNoFixedPoint is returned when the update loop hits its iteration cap.
	ErrNoFixedPoint = errors.New("lod: update did not reach a fixed point")

	// ErrUpdateInProgress is returned when a Body is used re-entrantly.
	ErrUpdateInProgress = errors.New("lod: update already in progress")
)
