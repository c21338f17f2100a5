package downloadcfg

// CancelMode defines when a cancel request takes effect.
// Values: "boundary" | "immediate".
type CancelMode string

const (
	// CancelAtBoundary checks for cancellation only before each file. A file
	// already transferring runs to completion or to an I/O failure.
	CancelAtBoundary CancelMode = "boundary"
	// CancelImmediate also aborts the file in flight between two chunks.
	CancelImmediate CancelMode = "immediate"
)

// ParseCancelMode converts a string to a CancelMode with default.
func ParseCancelMode(s string) CancelMode {
	switch CancelMode(s) {
	case CancelImmediate:
		return CancelImmediate
	case CancelAtBoundary:
		fallthrough
	default:
		return CancelAtBoundary
	}
}
