// Command ipops-scanner drives a flatbed scanner, decodes Data-Matrix
// pages, reassembles contiguous runs, and forwards them to an outbound
// pipe (and, optionally, an FTP server).
package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ipops/ipops/internal/scanner"
)

func main() {
	os.Exit(run())
}

func run() int {
	virtualPipeFile := flag.String("virtual-pipe-file", "", "override the configured outbound pipe path")
	flag.Parse()

	settings, err := scanner.Load(os.Getenv)
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		return 2
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: settings.LogLevel})))
	if *virtualPipeFile != "" {
		settings.SinkPath = *virtualPipeFile
	}

	capDev := scanner.NewCapturer(settings.CaptureFormat)
	if _, err := capDev.LookPath("scanimage"); err != nil {
		os.Stderr.WriteString("'scanimage' executable not found on PATH\n")
		return 1
	}

	state, err := scanner.NewSessionState(settings.StateDir, time.Now())
	if err != nil {
		os.Stderr.WriteString("failed to initialize session state: " + err.Error() + "\n")
		return 2
	}

	sink := buildSink(settings)

	console := scanner.NewConsole(os.Stdin, os.Stdout, int(os.Stdout.Fd()), capDev, state, sink)
	if err := console.Run(); err != nil && err != io.EOF {
		os.Stderr.WriteString("scanner console failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}

func buildSink(settings scanner.Settings) scanner.Sink {
	sinks := []scanner.Sink{scanner.NewPipeSink(settings.SinkPath)}
	if settings.FTPEnabled {
		sinks = append(sinks, scanner.NewFTPSink(settings.FTPHost, settings.FTPUser, settings.FTPPassword))
	}
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &scanner.MultiSink{Sinks: sinks}
}
