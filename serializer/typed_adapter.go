package serializer

import (
	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/row"
)

// TypedAdapter serves typed rows through a string-map serializer.
//
// Rows are rendered over the known or inferred columns with row.ToStringMap.
// Added callbacks receive the caller's own row; removed rows are resolved back to
// typed rows through the column list and the configured resolver.
type TypedAdapter struct {
	inner    ResultsSerializer[row.StringMap]
	cfg      *Config
	columns  columnSet
	listener Listener[row.Row]
	current  row.Row
	state    state
}

var _ ResultsSerializer[row.Row] = (*TypedAdapter)(nil)

// NewTypedAdapter wraps inner.
func NewTypedAdapter(inner ResultsSerializer[row.StringMap], opts ...Option) (*TypedAdapter, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &TypedAdapter{inner: inner, cfg: cfg}, nil
}

func (a *TypedAdapter) ID() format.SerializerID {
	return a.inner.ID()
}

func (a *TypedAdapter) BeginData(historical []byte, listener Listener[row.Row], known []*row.Column) bool {
	a.columns.reset(known)
	a.listener = listener
	a.current = nil
	a.state = stateBegun

	return a.inner.BeginData(historical, adapterListener{a}, nil)
}

// AddNewResult leaves the column list untouched when the row is rejected.
func (a *TypedAdapter) AddNewResult(r row.Row) (bool, error) {
	if a.state != stateBegun {
		return false, errs.ErrNotBegun
	}

	mark := a.columns.observe(r, a.cfg.logger)
	a.current = r
	defer func() { a.current = nil }()

	isNew, err := a.inner.AddNewResult(row.ToStringMap(r, a.columns.cols))
	if err != nil {
		a.columns.rollback(mark)
		return false, err
	}

	return isNew, nil
}

func (a *TypedAdapter) EndData() (bool, error) {
	changed, err := a.inner.EndData()
	if err != nil {
		return false, err
	}
	a.state = stateEnded

	return changed, nil
}

func (a *TypedAdapter) Serialize(dst []byte) ([]byte, error) {
	return a.inner.Serialize(dst)
}

func (a *TypedAdapter) Stats() Stats {
	return a.inner.Stats()
}

type adapterListener struct {
	a *TypedAdapter
}

func (l adapterListener) OnAdded(sm row.StringMap) {
	if l.a.listener == nil {
		return
	}

	r := l.a.current
	if r == nil {
		r = toRow(sm, l.a.columns.resolver(l.a.cfg.resolver), l.a.cfg.logger)
	}
	l.a.listener.OnAdded(r)
}

func (l adapterListener) OnRemoved(sm row.StringMap) {
	if l.a.listener == nil {
		return
	}

	l.a.listener.OnRemoved(toRow(sm, l.a.columns.resolver(l.a.cfg.resolver), l.a.cfg.logger))
}
