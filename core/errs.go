package core

import "errors"

var (
	ErrNilResult      = errors.New("nil simulation result")
	ErrEmptyRuinRates = errors.New("empty ruin_rates series")
	ErrUnorderedAges  = errors.New("ages out of order")
	ErrSeriesLength   = errors.New("percentile series length mismatch")
	ErrStaleRun       = errors.New("stale run superseded by a newer submission")
)
