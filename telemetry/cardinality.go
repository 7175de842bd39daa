package telemetry

import (
	"fmt"
	"sync"
)

// Dimension names one of the label sets the guard bounds.
type Dimension int

const (
	DimensionToolName Dimension = iota
	DimensionErrorKind
	DimensionMemoryOpClass
	DimensionHTTPRoute
)

var dimensionLimits = map[Dimension]int{
	DimensionToolName:      20,
	DimensionErrorKind:     10,
	DimensionMemoryOpClass: 4,
	DimensionHTTPRoute:     30,
}

func (d Dimension) String() string {
	switch d {
	case DimensionToolName:
		return "tool_name"
	case DimensionErrorKind:
		return "error_kind"
	case DimensionMemoryOpClass:
		return "memory_op_class"
	case DimensionHTTPRoute:
		return "http_route"
	default:
		return "unknown"
	}
}

// ErrCardinalityExceeded is returned when an emission would introduce a
// label value beyond a dimension's bound.
type ErrCardinalityExceeded struct {
	Dimension Dimension
	Limit     int
	Value     string
}

func (e *ErrCardinalityExceeded) Error() string {
	return fmt.Sprintf("telemetry: %s cardinality limit (%d) exceeded by value %q", e.Dimension, e.Limit, e.Value)
}

// CardinalityGuard tracks the distinct label values seen per dimension and
// rejects an emission that would grow a dimension past its bound, rather
// than silently dropping the label or letting it grow unbounded.
type CardinalityGuard struct {
	mu   sync.Mutex
	seen map[Dimension]map[string]struct{}
}

func NewCardinalityGuard() *CardinalityGuard {
	return &CardinalityGuard{seen: make(map[Dimension]map[string]struct{})}
}

// Check admits value under dimension, returning *ErrCardinalityExceeded if
// value is new and the dimension is already at its limit. A previously seen
// value is always admitted, even at the limit.
func (g *CardinalityGuard) Check(dimension Dimension, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	values, ok := g.seen[dimension]
	if !ok {
		values = make(map[string]struct{})
		g.seen[dimension] = values
	}

	if _, exists := values[value]; exists {
		return nil
	}

	limit := dimensionLimits[dimension]
	if len(values) >= limit {
		return &ErrCardinalityExceeded{Dimension: dimension, Limit: limit, Value: value}
	}

	values[value] = struct{}{}
	return nil
}

// Count reports how many distinct values a dimension has admitted so far.
func (g *CardinalityGuard) Count(dimension Dimension) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen[dimension])
}
