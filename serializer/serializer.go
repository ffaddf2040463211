// Package serializer implements the differencing engines: given the rows of a new
// query pass and the snapshot produced by the previous pass, they report which rows
// were added and which were removed, then serialize the new snapshot.
//
// Rows have no identity of their own. Each engine encodes a row to bytes and uses
// those bytes as the row's identity: CrowSerializer matches binary Crow rows,
// LineSerializer and StringMapLineSerializer match lines of JSON, ArraySerializer
// matches the string maps of a JSON array.
//
// Every engine follows the same cycle:
//
//	failed := s.BeginData(history, listener, columns)
//	for _, r := range rows {
//	    isNew, err := s.AddNewResult(r)
//	    ...
//	}
//	changed, err := s.EndData()
//	snapshot, err := s.Serialize(nil)
//
// A serializer is not safe for concurrent use, and may be reused by calling
// BeginData again.
package serializer

import (
	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/row"
)

// ResultsSerializer is the contract shared by all engines, over row type R.
type ResultsSerializer[R any] interface {
	// ID returns the serializer id recorded in snapshot envelopes.
	ID() format.SerializerID
	// BeginData resets the serializer and loads historical, the previous snapshot.
	// It reports true when historical could not be parsed; the pass then continues
	// as if there were no history. listener may be nil. known fixes the column order;
	// when empty the columns are inferred from the rows.
	BeginData(historical []byte, listener Listener[R], known []*row.Column) (historyFailed bool)
	// AddNewResult adds one row of the new pass and reports whether it was absent
	// from history. A row that cannot be encoded returns an error and is left out of
	// the snapshot; the pass stays usable.
	AddNewResult(r R) (isNew bool, err error)
	// EndData reports every unmatched history row as removed and returns whether
	// any row was added or removed.
	EndData() (changed bool, err error)
	// Serialize appends the new snapshot to dst.
	Serialize(dst []byte) ([]byte, error)
	// Stats returns the counters of the current pass.
	Stats() Stats
}

// Listener receives the rows a pass adds and removes.
type Listener[R any] interface {
	OnAdded(r R)
	OnRemoved(r R)
}

// ListenerFuncs adapts a pair of functions to Listener. Nil functions are ignored.
type ListenerFuncs[R any] struct {
	Added   func(r R)
	Removed func(r R)
}

var _ Listener[row.Row] = ListenerFuncs[row.Row]{}

func (l ListenerFuncs[R]) OnAdded(r R) {
	if l.Added != nil {
		l.Added(r)
	}
}

func (l ListenerFuncs[R]) OnRemoved(r R) {
	if l.Removed != nil {
		l.Removed(r)
	}
}

// Stats counts the outcome of one pass.
type Stats struct {
	// Added is the number of rows absent from history.
	Added int
	// Removed is the number of history rows not matched by the pass.
	Removed int
	// Unchanged is the number of rows matched in history.
	Unchanged int
	// Failed is the number of rows rejected by AddNewResult.
	Failed int
	// History is the number of rows loaded from history.
	History int
	// Discarded is the number of unmatched history entries that could not be
	// decoded and so were dropped without a removed callback.
	Discarded int
}

// Changed reports whether the new snapshot differs from history.
func (s Stats) Changed() bool {
	return s.Added > 0 || s.Removed > 0 || s.Discarded > 0
}

type state uint8

const (
	stateIdle state = iota
	stateBegun
	stateEnded
)

// pass holds the per-pass state shared by the engines.
type pass[R any] struct {
	cfg      *Config
	state    state
	stats    Stats
	listener Listener[R]
}

func (p *pass[R]) begin(listener Listener[R]) {
	p.state = stateBegun
	p.stats = Stats{}
	p.listener = listener
}

func (p *pass[R]) checkBegun() error {
	if p.state != stateBegun {
		return errs.ErrNotBegun
	}

	return nil
}

func (p *pass[R]) checkEnded() error {
	if p.state != stateEnded {
		return errs.ErrNotEnded
	}

	return nil
}

func (p *pass[R]) added(r R) {
	p.stats.Added++
	if p.listener != nil {
		p.listener.OnAdded(r)
	}
}

func (p *pass[R]) removed(r R) {
	p.stats.Removed++
	if p.listener != nil {
		p.listener.OnRemoved(r)
	}
}

// Stats returns the counters of the current pass.
func (p *pass[R]) Stats() Stats {
	return p.stats
}
