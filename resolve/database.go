// Package resolve is the Resolver component (spec.md §2 R, §4.R):
// name resolution, overload resolution, type inference, and the
// three-stage declaration state machine, built atop a generic
// memoized query engine.
package resolve

import (
	"fmt"
	"sync"

	"github.com/emberlang/ember/ast"
)

// Stage is the resolution stage a query result belongs to, one of the
// three the resolver runs per declaration (spec.md §2, §4.R).
type Stage int

const (
	StageParameters Stage = iota
	StageSymbol
	StageAll
)

func (s Stage) String() string {
	switch s {
	case StageParameters:
		return "resolve_parameters"
	case StageSymbol:
		return "resolve_symbol"
	case StageAll:
		return "resolve_all"
	default:
		return "?"
	}
}

// Key identifies one memoized query result: a declaration at a stage.
// Adapted from the teacher's queryID (query.go), which combined a
// query name string with an arbitrary comparable key; here the query
// name is folded into Stage since every query over a DeclID is one of
// exactly three stages.
type Key struct {
	Decl  ast.DeclID
	Stage Stage
}

// Query is a memoizable computation over a Database, adapted from the
// teacher's Query[K, V] (query.go) generalized from grammar
// transformations to declaration-resolution stages.
type Query[K comparable, V any] struct {
	Name    string
	Compute func(db *Database, key K) (V, error)
}

type cachedValue struct {
	value any
	err   error
}

// Database is the resolver's memoized work engine: it caches stage
// results per declaration and, unlike the teacher's single
// `activeQuery` pointer (query.go), keeps a full stack of in-flight
// keys so a circular-dependency diagnostic can report every
// participant in the cycle, not just the two ends (spec.md §4.R
// "Circular-dependency detection").
type Database struct {
	mu        sync.Mutex
	cache     map[any]cachedValue
	inFlight  []any
	inFlightSet map[any]int // key -> index into inFlight, for O(1) cycle checks
}

func NewDatabase() *Database {
	return &Database{
		cache:       map[any]cachedValue{},
		inFlightSet: map[any]int{},
	}
}

// ErrCycle is returned by Get when key is already in flight; the
// caller (the stage dispatcher in resolve.go) is responsible for
// turning this into a diagnostic with one note per cycle participant.
type ErrCycle struct {
	Chain []any
}

func (e *ErrCycle) Error() string {
	return fmt.Sprintf("resolve: circular dependency across %d declarations", len(e.Chain))
}

// Get runs q.Compute(db, key) if not already cached, memoizing the
// result. If key is already in flight (a recursive Get for the same
// key further down the call stack) it returns *ErrCycle with the
// current in-flight stack as the chain, instead of recursing forever.
func Get[K comparable, V any](db *Database, q *Query[K, V], key K) (V, error) {
	var zero V
	cacheKey := queryKey{name: q.Name, key: key}

	db.mu.Lock()
	if cached, ok := db.cache[cacheKey]; ok {
		db.mu.Unlock()
		if cached.err != nil {
			return zero, cached.err
		}
		return cached.value.(V), nil
	}
	if idx, ok := db.inFlightSet[cacheKey]; ok {
		chain := append([]any{}, db.inFlight[idx:]...)
		chain = append(chain, cacheKey)
		db.mu.Unlock()
		return zero, &ErrCycle{Chain: chain}
	}
	db.inFlightSet[cacheKey] = len(db.inFlight)
	db.inFlight = append(db.inFlight, cacheKey)
	db.mu.Unlock()

	value, err := q.Compute(db, key)

	db.mu.Lock()
	delete(db.inFlightSet, cacheKey)
	db.inFlight = db.inFlight[:len(db.inFlight)-1]
	db.cache[cacheKey] = cachedValue{value: value, err: err}
	db.mu.Unlock()

	return value, err
}

type queryKey struct {
	name string
	key  any
}

// Reset clears every cached result and in-flight marker, used between
// independent compilations sharing one Database (tests mostly).
func (db *Database) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.cache = map[any]cachedValue{}
	db.inFlight = nil
	db.inFlightSet = map[any]int{}
}
