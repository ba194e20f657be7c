package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/ochronus/gofileup/internal/services/gofile"
)

// ErrUploadIncomplete is returned when the upload finished without a usable
// download page, or the path was neither a file nor a directory.
var ErrUploadIncomplete = errors.New("failed to upload to Gofile, please try again later")

// Status represents the outcome of an upload call
type Status int

const (
	StatusCompleted Status = iota
	StatusCancelled
)

// String returns a string representation of the status
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Result is returned by a successful or cancelled upload
type Result struct {
	Status       Status
	DownloadPage string
	// Path is the file that was (or would have been) transferred, after
	// archiving and renaming.
	Path string
	// Data is the decoded upload response; nil when cancelled.
	Data *gofile.UploadData
}

// Cancelled reports whether the upload was skipped by the caller's canceller
func (r *Result) Cancelled() bool {
	return r.Status == StatusCancelled
}

// String returns a formatted string representation of the result
func (r *Result) String() string {
	if r.Cancelled() {
		return fmt.Sprintf("[cancelled: %s]", r.Path)
	}
	return fmt.Sprintf("[%s: %s]", r.Path, r.DownloadPage)
}

// Canceller is consulted once, right before the transfer starts.
type Canceller interface {
	IsCancelled() bool
}

// CancelFunc adapts a plain function to Canceller.
type CancelFunc func() bool

// IsCancelled calls f.
func (f CancelFunc) IsCancelled() bool {
	return f()
}

// NeverCancel is a Canceller that never cancels.
var NeverCancel Canceller = CancelFunc(func() bool { return false })

// ContextCanceller reports cancellation once ctx is done.
func ContextCanceller(ctx context.Context) Canceller {
	return CancelFunc(func() bool { return ctx.Err() != nil })
}
