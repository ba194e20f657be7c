package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ochronus/gofileup/internal/archive"
	"github.com/ochronus/gofileup/internal/config"
	"github.com/ochronus/gofileup/internal/services/gofile"
	"github.com/ochronus/gofileup/internal/upload"
	"github.com/sirupsen/logrus"
)

// Container centralizes the core dependencies used across the application.
// It is intentionally small and uses interfaces so callers (and tests) can
// substitute implementations easily.
type Container struct {
	Config       *config.Config
	Logger       *logrus.Logger
	GofileClient gofile.ClientAPI
	Archiver     archive.Archiver
	Output       io.Writer
	Uploader     *upload.Uploader
}

// Option allows customizing the container during construction.
type Option func(*Container) error

// WithLogger overrides the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Container) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}

// WithGofileClient overrides the default Gofile client.
func WithGofileClient(client gofile.ClientAPI) Option {
	return func(c *Container) error {
		if client == nil {
			return fmt.Errorf("gofile client cannot be nil")
		}
		c.GofileClient = client
		return nil
	}
}

// WithArchiver overrides the default zip archiver.
func WithArchiver(archiver archive.Archiver) Option {
	return func(c *Container) error {
		if archiver == nil {
			return fmt.Errorf("archiver cannot be nil")
		}
		c.Archiver = archiver
		return nil
	}
}

// WithOutput overrides where download pages are printed (default: stdout).
func WithOutput(w io.Writer) Option {
	return func(c *Container) error {
		if w == nil {
			return fmt.Errorf("output cannot be nil")
		}
		c.Output = w
		return nil
	}
}

// NewContainer builds a Container with sensible defaults derived from cfg.
// Options can be supplied to override specific dependencies (useful in tests).
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	container := &Container{
		Config: cfg,
		Logger: buildDefaultLogger(cfg.Loglevel),
		Output: os.Stdout,
	}

	// Apply options early so tests can inject mocks before defaults are created.
	for _, opt := range opts {
		if err := opt(container); err != nil {
			return nil, err
		}
	}

	if container.GofileClient == nil {
		container.GofileClient = gofile.NewClient(
			gofile.WithAPIURL(cfg.APIURL),
			gofile.WithUploadURL(cfg.UploadURL),
			gofile.WithDiscoveryTimeout(time.Duration(cfg.Timeout)*time.Second),
		)
	}

	if container.Archiver == nil {
		container.Archiver = archive.ZipArchiver{}
	}

	container.Uploader = upload.NewUploader(
		container.GofileClient,
		upload.WithArchiver(container.Archiver),
		upload.WithZone(cfg.Zone),
		upload.WithFields(cfg.Upload.ExtraFields),
		upload.WithOutput(container.Output),
		upload.WithLogger(container.Logger),
	)

	return container, nil
}

func buildDefaultLogger(levelStr string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
