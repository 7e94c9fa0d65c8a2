package resume

import (
	"github.com/vango-dev/resume/internal/errors"
)

// Sentinel errors for errors.Is. Every error returned by this package carries
// one of these codes.
var (
	ErrSnapshotTooLarge    = errors.New("E020")
	ErrMissingRoute        = errors.New("E021")
	ErrGraphSerialization  = errors.New("E022")
	ErrInvalidRegistration = errors.New("E023")
	ErrVersionMismatch     = errors.New("E030")
	ErrInvalidVersion      = errors.New("E031")
	ErrNodeNotFound        = errors.New("E040")
	ErrHandlerNotFound     = errors.New("E041")
	ErrSourceNotAllowed    = errors.New("E042")
	ErrSourceCompile       = errors.New("E043")
	ErrTimeout             = errors.New("E050")
	ErrParse               = errors.New("E060")
	ErrMissingState        = errors.New("E061")
	ErrRestore             = errors.New("E062")
	ErrHandlerFailed       = errors.New("E063")
)

// ErrNotResumed is returned by Document.Dispatch before a successful Resume.
var ErrNotResumed = errors.Newf(errors.CategoryResume, "document has not been resumed")

// ErrNoListener is returned by Document.Dispatch when the node has no
// listener for the event.
var ErrNoListener = errors.Newf(errors.CategoryResolution, "no listener bound")
