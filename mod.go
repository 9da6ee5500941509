// Package ticket implements a ledger-resident ticket contest. The root package
// holds the global logger and the list of prometheus collectors that the other
// packages populate.
package ticket

import (
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "LLVL"

const defaultLevel = zerolog.InfoLevel

func init() {
	lvl := os.Getenv(EnvLogLevel)

	Logger = Logger.Level(ParseLevel(lvl))
	Logger.Debug().Msgf("setting log level to %s", Logger.GetLevel())
}

// ParseLevel returns the logging level matching the string, or the default
// level if it is empty or unknown.
func ParseLevel(lvl string) zerolog.Level {
	switch strings.ToLower(lvl) {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	case "none":
		return zerolog.Disabled
	default:
		return defaultLevel
	}
}

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default, it only prints
// info level logs, but it can be changed through a environment variable.
var Logger = zerolog.New(logout).Level(defaultLevel).
	With().Timestamp().Logger().
	With().Caller().Logger()

// PromCollectors exposes the prometheus collectors of the packages. An
// application registers them to its own registry, for instance:
//
//	prometheus.MustRegister(ticket.PromCollectors...)
var PromCollectors []prometheus.Collector
