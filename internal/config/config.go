// Package config loads the printer's immutable startup configuration from
// environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ipops/ipops/internal/ipops"
)

// PageFormat selects how a frame is rendered onto a page.
type PageFormat string

const (
	FormatText       PageFormat = "TEXT"
	FormatDataMatrix PageFormat = "DATA_MATRIX"
)

// Settings is the printer's validated, immutable configuration. It is built
// once at startup by Load and never mutated afterward.
type Settings struct {
	MaxBufferSize           int
	ContiguousMinBufferSize int
	ContiguousDataTimeout   float64 // seconds
	NewFramePollingRate     float64 // seconds
	PDFDataFormat           PageFormat
	LogLevel                slog.Level
	StateDir                string // directory holding the persistent page counter
}

// Load reads IPOPS_PRINTER_* environment variables, applies defaults, and
// validates the result. All violations are reported together.
func Load(getenv func(string) string) (Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	s := Settings{
		MaxBufferSize:           1500,
		ContiguousMinBufferSize: 1400,
		ContiguousDataTimeout:   10.0,
		NewFramePollingRate:     0.15,
		PDFDataFormat:           FormatDataMatrix,
		LogLevel:                slog.LevelInfo,
		StateDir:                defaultStateDir(),
	}

	var errs error

	if v := getenv("IPOPS_PRINTER_MAX_BUFFER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierror.Append(errs, &ipops.ConfigError{Key: "IPOPS_PRINTER_MAX_BUFFER_SIZE", Msg: "not an integer"})
		} else {
			s.MaxBufferSize = n
		}
	}
	if v := getenv("IPOPS_PRINTER_CONTIGUOUS_MIN_BUFFER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierror.Append(errs, &ipops.ConfigError{Key: "IPOPS_PRINTER_CONTIGUOUS_MIN_BUFFER_SIZE", Msg: "not an integer"})
		} else {
			s.ContiguousMinBufferSize = n
		}
	}
	if v := getenv("IPOPS_PRINTER_CONTIGUOUS_DATA_TIMEOUT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = multierror.Append(errs, &ipops.ConfigError{Key: "IPOPS_PRINTER_CONTIGUOUS_DATA_TIMEOUT", Msg: "not a number"})
		} else {
			s.ContiguousDataTimeout = f
		}
	}
	if v := getenv("IPOPS_PRINTER_NEW_FRAME_POLLING_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = multierror.Append(errs, &ipops.ConfigError{Key: "IPOPS_PRINTER_NEW_FRAME_POLLING_RATE", Msg: "not a number"})
		} else {
			s.NewFramePollingRate = f
		}
	}
	if v := getenv("IPOPS_PRINTER_PDF_DATA_FORMAT"); v != "" {
		f, err := parsePageFormat(v)
		if err != nil {
			errs = multierror.Append(errs, err)
		} else {
			s.PDFDataFormat = f
		}
	}
	if v := getenv("IPOPS_PRINTER_LOG_LEVEL"); v != "" {
		lvl, err := parseLogLevel(v)
		if err != nil {
			errs = multierror.Append(errs, err)
		} else {
			s.LogLevel = lvl
		}
	}
	if v := getenv("IPOPS_STATE_DIR"); v != "" {
		s.StateDir = v
	}

	if s.MaxBufferSize < 2 || s.MaxBufferSize > 10000 {
		errs = multierror.Append(errs, &ipops.ConfigError{Key: "IPOPS_PRINTER_MAX_BUFFER_SIZE", Msg: "must be in 2..10000"})
	}
	if s.ContiguousMinBufferSize < 1 || s.ContiguousMinBufferSize >= s.MaxBufferSize {
		errs = multierror.Append(errs, &ipops.ConfigError{Key: "IPOPS_PRINTER_CONTIGUOUS_MIN_BUFFER_SIZE", Msg: "must be in 1..MAX_BUFFER_SIZE-1"})
	}
	if s.ContiguousDataTimeout < 0.01 || s.ContiguousDataTimeout > 1000 {
		errs = multierror.Append(errs, &ipops.ConfigError{Key: "IPOPS_PRINTER_CONTIGUOUS_DATA_TIMEOUT", Msg: "must be in 0.01..1000"})
	}
	if s.NewFramePollingRate < 0.01 || s.NewFramePollingRate > 10 {
		errs = multierror.Append(errs, &ipops.ConfigError{Key: "IPOPS_PRINTER_NEW_FRAME_POLLING_RATE", Msg: "must be in 0.01..10"})
	}

	if errs != nil {
		return Settings{}, errs
	}
	return s, nil
}

func parsePageFormat(raw string) (PageFormat, error) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(raw))
	switch norm {
	case "text", "txt", "raw", "string", "str", "base64":
		return FormatText, nil
	case "matrix", "qrcode", "datamatrix":
		return FormatDataMatrix, nil
	default:
		return "", &ipops.ConfigError{Key: "IPOPS_PRINTER_PDF_DATA_FORMAT", Msg: "unrecognized format " + raw}
	}
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToUpper(raw) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR", "CRITICAL":
		return slog.LevelError, nil
	default:
		return 0, &ipops.ConfigError{Key: "IPOPS_PRINTER_LOG_LEVEL", Msg: "unrecognized level " + raw}
	}
}

func defaultStateDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.local/state/IPoPS-printer"
	}
	return "/var/lib/IPoPS-printer"
}
