// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. A NoOpLogger is substituted wherever a nil logger would
// otherwise appear.
package logging
