package serializer

import (
	"bytes"

	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/internal/multiset"
	"github.com/arloliu/rowdiff/internal/pool"
	"github.com/arloliu/rowdiff/row"
)

// ArraySerializer differences string maps stored as one JSON array of objects:
//
//	[{"active":"1","age":"32","name":"bob"},{"active":"0","name":"Judy"}]
//
// History is a multiset, so a row present twice in history needs two equal new
// rows to be fully matched. Objects are written with sorted keys.
type ArraySerializer struct {
	pass[row.StringMap]
	history *multiset.StringMaps
	out     *pool.ByteBuffer // comma separated objects, without brackets
	results int
}

var _ ResultsSerializer[row.StringMap] = (*ArraySerializer)(nil)

// NewArraySerializer creates an array JSON serializer.
func NewArraySerializer(opts ...Option) (*ArraySerializer, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &ArraySerializer{
		pass:    pass[row.StringMap]{cfg: cfg},
		history: multiset.NewStringMaps(),
		out:     pool.GetSnapshotBuffer(),
	}, nil
}

func (s *ArraySerializer) ID() format.SerializerID {
	return format.OsqueryJSON
}

// BeginData starts a pass. known is ignored, string maps carry their own keys.
//
// Empty or blank history means no history. Anything else must be a JSON array of
// objects; otherwise the whole history is discarded.
func (s *ArraySerializer) BeginData(historical []byte, listener Listener[row.StringMap], _ []*row.Column) bool {
	s.begin(listener)
	s.history.Reset()
	s.out.Reset()
	s.results = 0

	if len(bytes.TrimSpace(historical)) == 0 {
		return false
	}

	rows, err := decodeArray(historical)
	if err != nil {
		s.cfg.logger.Warn("discarding malformed history", "serializer", "array", "size", len(historical), "error", err)
		return true
	}

	for _, sm := range rows {
		s.history.Add(sm)
	}
	s.stats.History = s.history.Len()
	if s.history.HasCollision() {
		s.cfg.logger.Debug("history rows share a hash bucket", "rows", s.stats.History)
	}

	return false
}

func (s *ArraySerializer) AddNewResult(sm row.StringMap) (bool, error) {
	if err := s.checkBegun(); err != nil {
		return false, err
	}

	if s.results > 0 {
		s.out.MustWriteByte(',')
	}
	s.out.B = appendStringMapJSON(s.out.B, sm)
	s.results++

	if s.history.Remove(sm) {
		s.stats.Unchanged++
		return false, nil
	}

	s.added(sm)

	return true, nil
}

func (s *ArraySerializer) EndData() (bool, error) {
	if err := s.checkBegun(); err != nil {
		return false, err
	}
	s.state = stateEnded

	for sm := range s.history.All() {
		s.removed(sm)
	}

	return s.stats.Changed(), nil
}

// Serialize appends the JSON array. A pass without rows serializes to "[]".
func (s *ArraySerializer) Serialize(dst []byte) ([]byte, error) {
	if err := s.checkEnded(); err != nil {
		return dst, err
	}

	dst = append(dst, '[')
	dst = append(dst, s.out.Bytes()...)

	return append(dst, ']'), nil
}

// Release returns the output buffer to the pool. The serializer must not be used
// afterwards.
func (s *ArraySerializer) Release() {
	pool.PutSnapshotBuffer(s.out)
	s.out = nil
}
