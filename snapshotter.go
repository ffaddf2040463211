package rowdiff

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/arloliu/rowdiff/compress"
	"github.com/arloliu/rowdiff/errs"
	"github.com/arloliu/rowdiff/format"
	"github.com/arloliu/rowdiff/internal/options"
	"github.com/arloliu/rowdiff/row"
	"github.com/arloliu/rowdiff/serializer"
	"github.com/arloliu/rowdiff/snapshot"
)

type snapshotterConfig struct {
	compression format.CompressionType
	logger      serializer.Logger
	resolver    row.Resolver
}

// Option configures a Snapshotter.
type Option = options.Option[*snapshotterConfig]

// WithCompression sets the compression of the snapshot envelope. The default is
// format.CompressionNone.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(cfg *snapshotterConfig) error {
		if !c.IsValid() {
			return fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, c)
		}
		cfg.compression = c

		return nil
	})
}

// WithLogger sets the logger used by the snapshotter and its serializer.
func WithLogger(logger serializer.Logger) Option {
	return options.NoError(func(cfg *snapshotterConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

// WithResolver sets the fallback resolver for history fields outside the pass's
// columns. See serializer.WithResolver.
func WithResolver(resolver row.Resolver) Option {
	return options.NoError(func(cfg *snapshotterConfig) {
		cfg.resolver = resolver
	})
}

// Result is the outcome of one Snapshotter pass.
type Result struct {
	// Snapshot is the envelope to persist and pass to the next Diff.
	Snapshot []byte
	// Changed reports whether any row was added or removed.
	Changed bool
	// Stats holds the serializer counters of the pass.
	Stats serializer.Stats
	// HistoryDiscarded is set when the previous snapshot could not be used and the
	// pass ran as if there were none.
	HistoryDiscarded bool
	// Compression describes how the new payload compressed.
	Compression compress.CompressionStats
}

// Snapshotter runs full differencing passes against persisted snapshot envelopes.
//
// It is not safe for concurrent use; use one Snapshotter per query.
type Snapshotter struct {
	cfg *snapshotterConfig
	ser serializer.ResultsSerializer[row.Row]
	buf []byte
}

// NewSnapshotter creates a snapshotter for serializer id.
func NewSnapshotter(id format.SerializerID, opts ...Option) (*Snapshotter, error) {
	cfg := &snapshotterConfig{
		compression: format.CompressionNone,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	ser, err := New(id, serializer.WithLogger(cfg.logger), serializer.WithResolver(cfg.resolver))
	if err != nil {
		return nil, err
	}

	return &Snapshotter{cfg: cfg, ser: ser}, nil
}

// ID returns the serializer id written into the envelopes.
func (s *Snapshotter) ID() format.SerializerID {
	return s.ser.ID()
}

// Diff compares rows against prev, the envelope returned by the previous pass, and
// reports the differences to listener, which may be nil.
//
// An empty prev means there is no history. A prev that is corrupted, truncated or
// written by another serializer is logged and treated the same way. Rows that
// cannot be encoded are logged, counted in Stats.Failed and left out of the
// snapshot.
//
// Parameters:
//   - prev: Previous envelope, or nil
//   - rows: The rows of the new pass
//   - cols: Column order; when empty it is inferred from the rows
//   - listener: Receives added and removed rows
//
// Returns:
//   - Result: The new envelope and the pass outcome
//   - error: A serializer state error or an envelope packing error
func (s *Snapshotter) Diff(prev []byte, rows []row.Row, cols []*row.Column, listener serializer.Listener[row.Row]) (Result, error) {
	var res Result

	var history []byte
	if len(prev) > 0 {
		payload, err := snapshot.UnpackFor(s.ser.ID(), prev)
		if err != nil {
			s.cfg.logger.Warn("discarding previous snapshot", "serializer", s.ser.ID(), "size", len(prev), "error", err)
			res.HistoryDiscarded = true
		} else {
			history = payload
		}
	}

	if s.ser.BeginData(history, listener, cols) {
		res.HistoryDiscarded = true
	}

	for i, r := range rows {
		if _, err := s.ser.AddNewResult(r); err != nil {
			s.cfg.logger.Warn("skipping row", "serializer", s.ser.ID(), "index", i, "error", err)
		}
	}

	changed, err := s.ser.EndData()
	if err != nil {
		return res, err
	}

	payload, err := s.ser.Serialize(s.buf[:0])
	if err != nil {
		return res, err
	}
	s.buf = payload

	out, cstats, err := snapshot.PackWithStats(s.ser.ID(), s.cfg.compression, payload)
	if err != nil {
		return res, fmt.Errorf("failed to pack snapshot: %w", err)
	}

	res.Snapshot = out
	res.Changed = changed
	res.Stats = s.ser.Stats()
	res.Compression = cstats

	s.cfg.logger.Debug("snapshot pass finished",
		"serializer", s.ser.ID(),
		"added", res.Stats.Added,
		"removed", res.Stats.Removed,
		"unchanged", res.Stats.Unchanged,
		"failed", res.Stats.Failed,
		"snapshot_size", len(out),
	)

	return res, nil
}
