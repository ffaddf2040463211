package serializer

import "github.com/arloliu/rowdiff/row"

// columnSet is the column list of a pass, either fixed by the caller or inferred
// from the rows as they arrive.
type columnSet struct {
	cols  row.Columns
	infer bool
}

func (s *columnSet) reset(known []*row.Column) {
	s.cols = append(s.cols[:0:0], known...)
	s.infer = len(known) == 0
}

// observe extends an inferred list with the columns of r it has not seen, sorted
// by name. It returns the previous length so a failed row can be rolled back.
//
// In both modes a column sharing a listed name under another descriptor is logged,
// since its value is left out of the row.
func (s *columnSet) observe(r row.Row, logger Logger) int {
	n := len(s.cols)
	if !s.infer {
		for col := range r {
			if existing, ok := s.cols.Lookup(col.Name()); ok && existing != col {
				logger.Debug("skipping value of a column with a foreign descriptor", "column", col.Name())
			}
		}

		return n
	}

	for _, col := range row.InferColumns(r) {
		existing, ok := s.cols.Lookup(col.Name())
		if !ok {
			s.cols = append(s.cols, col)
			continue
		}
		if existing != col {
			logger.Debug("skipping value of a column with a foreign descriptor", "column", col.Name())
		}
	}

	return n
}

func (s *columnSet) rollback(n int) {
	s.cols = s.cols[:n]
}

func (s *columnSet) resolver(fallback row.Resolver) row.Resolver {
	if fallback == nil {
		return s.cols
	}

	return resolverChain{s.cols, fallback}
}

// toRow resolves sm back to a typed row and logs the names it could not resolve.
func toRow(sm row.StringMap, resolver row.Resolver, logger Logger) row.Row {
	r, skipped := row.FromStringMap(sm, resolver)
	if len(skipped) > 0 {
		logger.Warn("skipping unresolved history fields", "fields", skipped)
	}

	return r
}
