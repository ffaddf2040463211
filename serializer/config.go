package serializer

import (
	"io"
	"log/slog"

	"github.com/arloliu/rowdiff/internal/options"
	"github.com/arloliu/rowdiff/row"
)

// Logger receives the recoverable degradations of a pass: malformed history,
// unknown history fields and undecodable history entries.
//
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the settings shared by all serializers.
type Config struct {
	logger   Logger
	resolver row.Resolver
}

// Option configures a serializer.
type Option = options.Option[*Config]

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger Logger) Option {
	return options.NoError(func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithResolver sets a fallback resolver for history fields that are not among the
// pass's columns, typically the application's row.Registry. Without it such fields
// are logged and skipped.
func WithResolver(resolver row.Resolver) Option {
	return options.NoError(func(c *Config) {
		c.resolver = resolver
	})
}

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolverChain tries each resolver in order.
type resolverChain []row.Resolver

func (c resolverChain) Lookup(name string) (*row.Column, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if col, ok := r.Lookup(name); ok {
			return col, true
		}
	}

	return nil, false
}
