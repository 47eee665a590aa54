// Package dexconfig carries the few knobs the core needs. There is no
// file-backed configuration surface; a plain struct built with functional
// options covers everything.
package dexconfig

// Config controls interpreter-visible leniency and the optional GC pause
// around the hot instruction loop.
type Config struct {
	// StrictFields turns the interpreter's lenient field/static paths into
	// fatal RuntimeErrors: missing-field and missing-static reads,
	// tag-mismatch gets/puts, and writes to undeclared statics all abort
	// the frame instead of warning and proceeding. Off by default.
	StrictFields bool

	// GCPacing disables Go's GC for the duration of one Module.Run call,
	// keeping collector pauses out of the dispatch loop. Restored
	// unconditionally on return.
	GCPacing  bool
	GCPercent int
}

type Option func(*Config)

func Default() Config {
	return Config{StrictFields: false, GCPacing: false, GCPercent: 100}
}

func WithStrictFields() Option {
	return func(c *Config) { c.StrictFields = true }
}

func WithGCPacing(restorePercent int) Option {
	return func(c *Config) {
		c.GCPacing = true
		c.GCPercent = restorePercent
	}
}

func New(opts ...Option) Config {
	c := Default()
	for _, o := range opts {
		o(&c)
	}
	return c
}
