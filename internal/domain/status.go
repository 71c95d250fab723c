package domain

import (
	"errors"
	"fmt"
	"math/big"
)

// Status is the auction lifecycle state as encoded on-chain.
type Status uint8

const (
	StatusLive      Status = 0
	StatusCancelled Status = 1
	StatusCompleted Status = 2
)

// Color tokens matching the marketplace UI palette.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorBlue   = "blue"
)

// ErrUnrecognizedStatus is returned when the chain reports a status code
// outside the known {0,1,2} encoding.
var ErrUnrecognizedStatus = errors.New("unrecognized auction status")

// StatusFromChain decodes the raw status word. Unknown codes are rejected
// rather than coerced to Completed.
func StatusFromChain(raw *big.Int) (Status, error) {
	if raw == nil || !raw.IsUint64() || raw.Uint64() > uint64(StatusCompleted) {
		return 0, fmt.Errorf("%w: %v", ErrUnrecognizedStatus, raw)
	}
	return Status(raw.Uint64()), nil
}

// Label returns the display label for a known status.
func (s Status) Label() string {
	switch s {
	case StatusLive:
		return "Live"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Completed"
	}
}

// Color returns the display color token for a known status.
func (s Status) Color() string {
	switch s {
	case StatusLive:
		return ColorGreen
	case StatusCancelled:
		return ColorYellow
	default:
		return ColorBlue
	}
}

// LabelOrDefault mirrors the display-layer convention of treating any code
// that is not Live or Cancelled as Completed. Only for rendering values that
// already passed StatusFromChain once; the sync path never uses it.
func LabelOrDefault(raw uint64) string {
	switch raw {
	case uint64(StatusLive):
		return "Live"
	case uint64(StatusCancelled):
		return "Cancelled"
	default:
		return "Completed"
	}
}

// ColorOrDefault is the color counterpart of LabelOrDefault.
func ColorOrDefault(raw uint64) string {
	switch raw {
	case uint64(StatusLive):
		return ColorGreen
	case uint64(StatusCancelled):
		return ColorYellow
	default:
		return ColorBlue
	}
}

// String returns the status label.
func (s Status) String() string {
	return s.Label()
}

// IsValid checks if the status is a known encoded value.
func (s Status) IsValid() bool {
	return s <= StatusCompleted
}
