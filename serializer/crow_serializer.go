package serializer

import (
	"github.com/arloliu/rowdiff/encoding"
	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/internal/multiset"
	"github.com/arloliu/rowdiff/internal/pool"
	"github.com/arloliu/rowdiff/row"
)

// CrowSerializer differences typed rows through the binary Crow encoding.
//
// Each new row is encoded and its bytes, without the kind marker, are looked up in
// a counted multiset built from the history rows. Decoding history is deferred to
// EndData, where only the rows nobody matched are fully decoded.
type CrowSerializer struct {
	pass[row.Row]
	columns columnSet
	enc     *encoding.CrowEncoder
	dec     encoding.CrowDecoder
	history *multiset.Counted
	headers []byte // header records of the history snapshot
}

var _ ResultsSerializer[row.Row] = (*CrowSerializer)(nil)

// NewCrowSerializer creates a Crow serializer.
func NewCrowSerializer(opts ...Option) (*CrowSerializer, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &CrowSerializer{
		pass:    pass[row.Row]{cfg: cfg},
		enc:     encoding.NewCrowEncoder(),
		dec:     encoding.NewCrowDecoder(),
		history: multiset.NewCounted(false),
	}, nil
}

func (s *CrowSerializer) ID() format.SerializerID {
	return format.Crow
}

func (s *CrowSerializer) BeginData(historical []byte, listener Listener[row.Row], known []*row.Column) bool {
	s.begin(listener)
	s.columns.reset(known)
	s.enc.Reset()
	s.history.Reset()
	s.headers = nil

	if len(historical) == 0 {
		return false
	}

	headers, err := s.dec.Scan(historical, func(encoded []byte) error {
		s.history.Add(encoded)
		return nil
	})
	if err != nil {
		s.cfg.logger.Warn("discarding malformed history", "serializer", "crow", "size", len(historical), "error", err)
		s.history.Reset()

		return true
	}

	s.headers = headers
	s.stats.History = s.history.Len()

	return false
}

func (s *CrowSerializer) AddNewResult(r row.Row) (bool, error) {
	if err := s.checkBegun(); err != nil {
		return false, err
	}

	mark := s.columns.observe(r, s.cfg.logger)
	for _, col := range s.columns.cols {
		if err := s.enc.Put(col, r[col]); err != nil {
			s.enc.DiscardRow()
			s.columns.rollback(mark)
			s.stats.Failed++

			return false, err
		}
	}

	s.enc.FlushHeaders()
	key := s.enc.Flush()
	if s.history.Consume(key) {
		s.stats.Unchanged++
		return false, nil
	}

	s.added(r)

	return true, nil
}

func (s *CrowSerializer) EndData() (bool, error) {
	if err := s.checkBegun(); err != nil {
		return false, err
	}
	s.state = stateEnded

	remaining := s.history.Len()
	if remaining == 0 {
		return s.stats.Changed(), nil
	}

	buf := pool.GetSnapshotBuffer()
	defer pool.PutSnapshotBuffer(buf)

	buf.MustWrite(s.headers)
	for encoded := range s.history.Remaining() {
		buf.Grow(1 + len(encoded))
		buf.MustWriteByte(encoding.RecordRow)
		buf.MustWriteString(encoded)
	}

	collector := &removedRows{s: s}
	if err := s.dec.Decode(buf.Bytes(), s.columns.resolver(s.cfg.resolver), collector); err != nil {
		// the rows were validated by Scan, so this is a broken invariant
		s.cfg.logger.Error("failed to decode unmatched history rows", "error", err)
		s.stats.Discarded += remaining - collector.rows
	}

	return s.stats.Changed(), nil
}

func (s *CrowSerializer) Serialize(dst []byte) ([]byte, error) {
	if err := s.checkEnded(); err != nil {
		return dst, err
	}

	return append(dst, s.enc.Bytes()...), nil
}

// Release returns the encoder buffers to the pool. The serializer must not be used
// afterwards.
func (s *CrowSerializer) Release() {
	s.enc.Release()
}

// removedRows rebuilds unmatched history rows and reports them as removed.
type removedRows struct {
	s    *CrowSerializer
	cur  row.Row
	rows int
}

var _ encoding.Visitor = (*removedRows)(nil)

func (c *removedRows) OnField(col *row.Column, v row.Value) error {
	if c.cur == nil {
		c.cur = make(row.Row)
	}
	c.cur[col] = v

	return nil
}

func (c *removedRows) OnFieldError(info encoding.FieldInfo, err error) error {
	c.s.cfg.logger.Warn("skipping history field", "field", info.Name, "type", info.Type, "error", err)
	return nil
}

func (c *removedRows) OnRowEnd([]byte) error {
	r := c.cur
	if r == nil {
		r = row.Row{}
	}
	c.cur = nil
	c.rows++
	c.s.removed(r)

	return nil
}
