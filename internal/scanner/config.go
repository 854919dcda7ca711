// Package scanner drives the scanner side of the IPoPS link: capturing
// images from the local "scanimage" utility, decoding Data-Matrix pages,
// reassembling them into contiguous runs, and forwarding completed runs to
// an outbound sink.
package scanner

import (
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ipops/ipops/internal/ipops"
)

// CaptureFormat selects the image format requested from scanimage.
type CaptureFormat string

const (
	FormatPNG  CaptureFormat = "png"
	FormatJPEG CaptureFormat = "jpeg"
	FormatTIFF CaptureFormat = "tiff"
)

// Settings is the scanner's validated, immutable configuration, built once
// at process start and never mutated afterward — the scanner-side sibling
// of config.Settings.
type Settings struct {
	LogLevel      slog.Level
	StateDir      string
	SinkPath      string
	CaptureFormat CaptureFormat

	FTPEnabled  bool
	FTPHost     string
	FTPUser     string
	FTPPassword string
}

// Load reads IPOPS_SCANNER_* and IPOPS_INBOUND_PATH environment variables,
// applies defaults, and validates the result. All violations are reported
// together via multierror, matching config.Load's policy.
func Load(getenv func(string) string) (Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	s := Settings{
		LogLevel:      slog.LevelInfo,
		StateDir:      defaultStateDir(),
		SinkPath:      "/var/run/printun",
		CaptureFormat: FormatTIFF,
	}

	var errs error

	if v := getenv("IPOPS_INBOUND_PATH"); v != "" {
		s.SinkPath = v
	}
	if v := getenv("IPOPS_SCANNER_LOG_LEVEL"); v != "" {
		lvl, err := parseLogLevel(v)
		if err != nil {
			errs = multierror.Append(errs, err)
		} else {
			s.LogLevel = lvl
		}
	}
	if v := getenv("IPOPS_SCANNER_CAPTURE_FORMAT"); v != "" {
		f, err := parseCaptureFormat(v)
		if err != nil {
			errs = multierror.Append(errs, err)
		} else {
			s.CaptureFormat = f
		}
	}
	if v := getenv("IPOPS_STATE_DIR"); v != "" {
		s.StateDir = v
	}
	if v := getenv("IPOPS_SCANNER_FTP_HOST"); v != "" {
		s.FTPEnabled = true
		s.FTPHost = v
	}
	if v := getenv("IPOPS_SCANNER_FTP_USER"); v != "" {
		s.FTPUser = v
	}
	if v := getenv("IPOPS_SCANNER_FTP_PASSWORD"); v != "" {
		s.FTPPassword = v
	}

	if errs != nil {
		return Settings{}, errs
	}
	return s, nil
}

func parseCaptureFormat(raw string) (CaptureFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	default:
		return "", &ipops.ConfigError{Key: "IPOPS_SCANNER_CAPTURE_FORMAT", Msg: "unrecognized format " + raw}
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
		return 0, &ipops.ConfigError{Key: "IPOPS_SCANNER_LOG_LEVEL", Msg: "unrecognized level " + raw}
	}
}

func defaultStateDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.local/state/IPoPS-scanner"
	}
	return "/var/lib/IPoPS-scanner"
}

