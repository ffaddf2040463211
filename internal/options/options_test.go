package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	level   string
	retries int
	strict  bool
}

var errBadRetries = errors.New("retries must be positive")

func withRetries(n int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if n <= 0 {
			return errBadRetries
		}
		c.retries = n

		return nil
	})
}

func withLevel(level string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.level = level
	})
}

func withStrict() Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.strict = true
	})
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option[*testConfig]
		want    testConfig
		wantErr error
	}{
		{
			name: "no options",
			want: testConfig{level: "info", retries: 1},
		},
		{
			name: "all options in order",
			opts: []Option[*testConfig]{withLevel("debug"), withRetries(3), withStrict()},
			want: testConfig{level: "debug", retries: 3, strict: true},
		},
		{
			name: "later options win",
			opts: []Option[*testConfig]{withLevel("debug"), withLevel("warn")},
			want: testConfig{level: "warn", retries: 1},
		},
		{
			name: "nil option skipped",
			opts: []Option[*testConfig]{nil, withStrict()},
			want: testConfig{level: "info", retries: 1, strict: true},
		},
		{
			name:    "error stops processing",
			opts:    []Option[*testConfig]{withRetries(0), withStrict()},
			want:    testConfig{level: "info", retries: 1},
			wantErr: errBadRetries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &testConfig{level: "info", retries: 1}
			err := Apply(cfg, tt.opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, *cfg)
		})
	}
}

func TestApply_ValueTarget(t *testing.T) {
	var seen []string
	opt := NoError(func(s string) { seen = append(seen, s) })

	require.NoError(t, Apply("x", Option[string](opt), Option[string](opt)))
	require.Equal(t, []string{"x", "x"}, seen)
}
