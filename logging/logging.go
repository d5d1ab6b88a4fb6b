// Package logging centralizes the runtime's structured logging setup.
// The teacher repo rolls its own bare-bones Logger interface with no
// backing library; this module instead wires zerolog (a real dependency
// of both alexisbeaulieu97-Streamy and r3e-network-service_layer) so
// every component gets leveled, structured output for free.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a component-scoped logger writing human-readable console
// output. Set PIPELINE_LOG_LEVEL (debug|info|warn|error) to change
// verbosity; it defaults to info.
func New(component string) zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("PIPELINE_LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(level).With().Timestamp().Str("component", component).Logger()
}
