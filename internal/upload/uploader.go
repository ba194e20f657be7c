package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochronus/gofileup/internal/archive"
	"github.com/ochronus/gofileup/internal/services/gofile"
	"github.com/sirupsen/logrus"
)

const fileField = "file"

// Uploader turns a local file or directory into a Gofile download page.
// It holds no mutable state; concurrent calls on distinct paths are safe.
type Uploader struct {
	client    gofile.ClientAPI
	archiver  archive.Archiver
	canceller Canceller
	zone      string
	fields    map[string]string
	out       io.Writer
	logger    *logrus.Logger
}

// Option customizes an Uploader.
type Option func(*Uploader)

// WithArchiver overrides the directory archiver.
func WithArchiver(a archive.Archiver) Option {
	return func(u *Uploader) {
		if a != nil {
			u.archiver = a
		}
	}
}

// WithCanceller sets the canceller checked before each transfer.
func WithCanceller(c Canceller) Option {
	return func(u *Uploader) {
		if c != nil {
			u.canceller = c
		}
	}
}

// WithZone sets the zone used for server selection.
func WithZone(zone string) Option {
	return func(u *Uploader) {
		if zone != "" {
			u.zone = zone
		}
	}
}

// WithFields adds extra form fields sent alongside the file.
func WithFields(fields map[string]string) Option {
	return func(u *Uploader) {
		u.fields = fields
	}
}

// WithOutput sets where download pages are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(u *Uploader) {
		if w != nil {
			u.out = w
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUploader creates a new Uploader on top of a Gofile client
func NewUploader(client gofile.ClientAPI, opts ...Option) *Uploader {
	u := &Uploader{
		client:    client,
		archiver:  archive.ZipArchiver{},
		canceller: NeverCancel,
		zone:      gofile.DefaultZone,
		out:       os.Stdout,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Cancellable returns a copy of u that consults c instead of its own canceller.
func (u *Uploader) Cancellable(c Canceller) *Uploader {
	clone := *u
	if c != nil {
		clone.canceller = c
	}
	return &clone
}

// Upload uploads a file, or a directory archived into <path>.zip, and returns
// its download page. The archive is left on disk. A cancelled result is
// returned with a nil error.
func (u *Uploader) Upload(ctx context.Context, path string) (*Result, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrUploadIncomplete)
		}
		return nil, err
	}

	if info.IsDir() {
		u.logger.Infof("[%s]: archiving directory", path)
		zipPath, err := u.archiver.Zip(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to archive %s: %w", path, err)
		}
		u.logger.Infof("[%s]: archived to %s", path, zipPath)

		path = zipPath
		if info, err = os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: %w", path, ErrUploadIncomplete)
		}
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrUploadIncomplete)
	}

	server, err := u.discover(ctx)
	if err != nil {
		return nil, err
	}

	result, err := u.uploadTo(ctx, path, server)
	if err != nil {
		return nil, err
	}
	if result.Cancelled() {
		return result, nil
	}

	if result.Data == nil || result.Data.DownloadPage == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrUploadIncomplete)
	}

	result.DownloadPage = result.Data.DownloadPage
	fmt.Fprintln(u.out, result.DownloadPage)
	u.logger.Infof("%s: upload done", result)

	return result, nil
}

// UploadFile uploads a single existing file and returns the decoded response
// data. The file is renamed in place first, with spaces in its base name
// replaced by periods. No download page check is done here.
func (u *Uploader) UploadFile(ctx context.Context, path string) (*Result, error) {
	server, err := u.discover(ctx)
	if err != nil {
		return nil, err
	}
	return u.uploadTo(ctx, path, server)
}

// discover queries the discovery endpoint once and selects a server
func (u *Uploader) discover(ctx context.Context) (gofile.Server, error) {
	servers, err := u.client.GetServers(ctx)
	if err != nil {
		return gofile.Server{}, fmt.Errorf("failed to discover gofile servers: %w", err)
	}

	server, err := gofile.SelectServer(servers, u.zone)
	if err != nil {
		return gofile.Server{}, fmt.Errorf("zone %q: %w", u.zone, err)
	}

	u.logger.Debugf("Selected gofile server %s (zone %s) out of %d", server.Name, server.Zone, len(servers))
	return server, nil
}

// uploadTo renames path to its upload-safe name and transfers it to server
func (u *Uploader) uploadTo(ctx context.Context, path string, server gofile.Server) (*Result, error) {
	newPath := SanitizePath(path)
	if newPath != path {
		if err := os.Rename(path, newPath); err != nil {
			return nil, fmt.Errorf("failed to rename %s: %w", path, err)
		}
		u.logger.Infof("[%s]: renamed to %s", path, newPath)
	}

	if u.canceller.IsCancelled() {
		u.logger.Infof("[%s]: upload cancelled", newPath)
		return &Result{Status: StatusCancelled, Path: newPath}, nil
	}

	url := u.client.UploadURL(server)
	u.logger.Infof("[%s]: upload started to %s", newPath, url)

	env, err := u.client.UploadMultipart(ctx, url, newPath, fileField, u.fields)
	if err != nil {
		return nil, err
	}

	raw, err := gofile.HandleResponse(env)
	if err != nil {
		return nil, err
	}

	var data gofile.UploadData
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("error decoding gofile upload data: %w", err)
		}
	}

	return &Result{Status: StatusCompleted, Path: newPath, Data: &data}, nil
}

// SanitizePath replaces every space in the base name of path with a period.
// The directory part is left untouched.
func SanitizePath(path string) string {
	base := filepath.Base(path)
	clean := strings.ReplaceAll(base, " ", ".")
	if clean == base {
		return path
	}
	return filepath.Join(filepath.Dir(path), clean)
}
