package serializer

import (
	"bytes"

	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/internal/multiset"
	"github.com/arloliu/rowdiff/internal/pool"
	"github.com/arloliu/rowdiff/row"
)

// lines is the core of the line-delimited JSON engines. History is a set of
// trimmed non-empty lines and a new row matches when its line is in the set.
type lines[R any] struct {
	pass[R]
	history *multiset.Counted
	out     *pool.ByteBuffer
	line    *pool.ByteBuffer
}

func newLines[R any](cfg *Config) lines[R] {
	return lines[R]{
		pass:    pass[R]{cfg: cfg},
		history: multiset.NewCounted(true),
		out:     pool.GetSnapshotBuffer(),
		line:    pool.GetRowBuffer(),
	}
}

func (l *lines[R]) beginLines(historical []byte, listener Listener[R]) {
	l.begin(listener)
	l.history.Reset()
	l.out.Reset()

	for line := range bytes.SplitSeq(historical, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		l.history.Add(line)
	}
	l.stats.History = l.history.Len()
}

// addLine writes the encoded row held in l.line to the output and matches it
// against history.
func (l *lines[R]) addLine(r R) bool {
	l.out.Grow(l.line.Len() + 1)
	l.out.MustWrite(l.line.Bytes())
	l.out.MustWriteByte('\n')

	if l.history.Consume(l.line.Bytes()) {
		l.stats.Unchanged++
		return false
	}

	l.added(r)

	return true
}

// endLines reports the unmatched history lines as removed. Lines that are not a
// JSON object are logged and counted as discarded.
func (l *lines[R]) endLines(convert func(row.StringMap) R) (bool, error) {
	if err := l.checkBegun(); err != nil {
		return false, err
	}
	l.state = stateEnded

	for line := range l.history.Remaining() {
		sm, err := decodeObject([]byte(line))
		if err != nil {
			l.cfg.logger.Warn("discarding undecodable history line", "line", line, "error", err)
			l.stats.Discarded++

			continue
		}
		l.removed(convert(sm))
	}

	return l.stats.Changed(), nil
}

func (l *lines[R]) Serialize(dst []byte) ([]byte, error) {
	if err := l.checkEnded(); err != nil {
		return dst, err
	}

	return append(dst, l.out.Bytes()...), nil
}

// Release returns the output buffers to the pool. The serializer must not be used
// afterwards.
func (l *lines[R]) Release() {
	pool.PutSnapshotBuffer(l.out)
	pool.PutRowBuffer(l.line)
	l.out, l.line = nil, nil
}

// LineSerializer differences typed rows as line-delimited JSON.
//
// Every row becomes one JSON object on its own line, with the present values in
// column order rendered as strings:
//
//	{"name":"bob","age":"32","active":"1"}
//
// History lines form a set, so repeated history lines collapse into one.
type LineSerializer struct {
	lines[row.Row]
	columns columnSet
}

var _ ResultsSerializer[row.Row] = (*LineSerializer)(nil)

// NewLineSerializer creates a line JSON serializer over typed rows.
func NewLineSerializer(opts ...Option) (*LineSerializer, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &LineSerializer{lines: newLines[row.Row](cfg)}, nil
}

func (s *LineSerializer) ID() format.SerializerID {
	return format.JSON
}

func (s *LineSerializer) BeginData(historical []byte, listener Listener[row.Row], known []*row.Column) bool {
	s.columns.reset(known)
	s.beginLines(historical, listener)

	return false
}

func (s *LineSerializer) AddNewResult(r row.Row) (bool, error) {
	if err := s.checkBegun(); err != nil {
		return false, err
	}

	s.columns.observe(r, s.cfg.logger)
	s.line.B = appendRowJSON(s.line.B[:0], r, s.columns.cols)

	return s.addLine(r), nil
}

func (s *LineSerializer) EndData() (bool, error) {
	resolver := s.columns.resolver(s.cfg.resolver)

	return s.endLines(func(sm row.StringMap) row.Row {
		return toRow(sm, resolver, s.cfg.logger)
	})
}

// StringMapLineSerializer differences string maps as line-delimited JSON with
// sorted keys.
type StringMapLineSerializer struct {
	lines[row.StringMap]
}

var _ ResultsSerializer[row.StringMap] = (*StringMapLineSerializer)(nil)

// NewStringMapLineSerializer creates a line JSON serializer over string maps.
func NewStringMapLineSerializer(opts ...Option) (*StringMapLineSerializer, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &StringMapLineSerializer{lines: newLines[row.StringMap](cfg)}, nil
}

func (s *StringMapLineSerializer) ID() format.SerializerID {
	return format.JSON
}

// BeginData starts a pass. known is ignored, string maps carry their own keys.
func (s *StringMapLineSerializer) BeginData(historical []byte, listener Listener[row.StringMap], _ []*row.Column) bool {
	s.beginLines(historical, listener)
	return false
}

func (s *StringMapLineSerializer) AddNewResult(sm row.StringMap) (bool, error) {
	if err := s.checkBegun(); err != nil {
		return false, err
	}

	s.line.B = appendStringMapJSON(s.line.B[:0], sm)

	return s.addLine(sm), nil
}

func (s *StringMapLineSerializer) EndData() (bool, error) {
	return s.endLines(func(sm row.StringMap) row.StringMap { return sm })
}
