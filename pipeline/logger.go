package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

var globalLogger = logrus.New() // global logger that can be overridden by user.

// SetGlobalLogger allows changing the package-wide default logger.
func SetGlobalLogger(l *logrus.Logger) {
	if l != nil {
		globalLogger = l
	}
}

type LogOptions struct {
	Level logrus.Level
	// Dir receives run-<UTC timestamp>.log; empty disables the file.
	Dir    string
	Stderr io.Writer
}

// InitLog builds a logger writing to stderr and, when Dir is set, to a
// per-run log file. The returned closer releases the file.
func InitLog(opts LogOptions) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetLevel(opts.Level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	out := opts.Stderr
	if out == nil {
		out = os.Stderr
	}
	closer := io.Closer(nopCloser{})
	stamp := time.Now().UTC().Format("20060102-150405")
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.Create(filepath.Join(opts.Dir, "run-"+stamp+".log"))
		if err != nil {
			return nil, nil, fmt.Errorf("creating log file: %w", err)
		}
		out = io.MultiWriter(out, f)
		closer = f
	}
	logger.SetOutput(out)

	logger.Info("Logger initialized")
	logger.Infof("Batch Start (UTC): %s", stamp)
	logger.WithFields(logrus.Fields{
		"os":   runtime.GOOS,
		"arch": runtime.GOARCH,
		"go":   runtime.Version(),
		"cpus": runtime.NumCPU(),
	}).Info("Platform")
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
