package attnlens

import (
	"errors"
	"fmt"

	"github.com/whesense/attnlens/blobstore"
	"github.com/whesense/attnlens/scene"
)

var (
	// ErrNotFound is returned when a manifest or side-car blob is absent
	// from the store.
	ErrNotFound = errors.New("not found")

	// ErrSuperseded is returned by Session.Switch when a later Switch
	// started before this one finished; the completion is discarded.
	ErrSuperseded = errors.New("scene load superseded")

	// ErrSessionClosed is returned by operations on a closed Session.
	ErrSessionClosed = errors.New("session closed")
)

// translateError maps subpackage errors onto the package's public contract.
// Typed errors that already carry their context (*scene.PrecisionError,
// *tensor.ShapeError, the decode and engine request errors) pass through
// unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Precision failures keep their sentinel so callers can branch on
	// errors.Is(err, scene.ErrPrecisionUnavailable).
	var pe *scene.PrecisionError
	if errors.As(err, &pe) {
		return err
	}

	return err
}
