package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/fnmesh/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated AppConfig,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.AppConfig, bool, error) {
	flagSet := flag.NewFlagSet("fnmesh", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
fnmesh - manifest-driven cross-endpoint routing runtime.

Usage:
  fnmesh [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the fnmesh.hcl options file. Empty discovers it.")
	manifestFlag := flagSet.String("manifest", "", "Path to the build manifest. Empty uses the standard search list.")
	listenFlag := flagSet.String("listen", "", "Listen address for the load-balanced HTTP app, e.g. ':8080'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &app.AppConfig{
		ConfigPath:   *configFlag,
		ManifestPath: *manifestFlag,
		Listen:       *listenFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	}, false, nil
}
