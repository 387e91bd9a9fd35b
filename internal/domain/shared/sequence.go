package shared

import (
	"context"
	"fmt"
	"time"
)

// Sequence names used for human-readable codes.
const (
	SequenceOrder    = "order"
	SequencePayment  = "payment"
	SequenceShipment = "shipment"
)

// SequenceReserver reserves the next value of a per-day counter.
// Implementations must be atomic across processes: two callers reserving
// for the same (name, day) never receive the same value.
type SequenceReserver interface {
	Next(ctx context.Context, name string, day time.Time) (int64, error)
}

// FormatCode renders PREFIX-YYYYMMDD-NNN with seq zero-padded to width digits
func FormatCode(prefix string, day time.Time, seq int64, width int) string {
	return fmt.Sprintf("%s-%s-%0*d", prefix, day.UTC().Format("20060102"), width, seq)
}

// Clock abstracts wall time so timing rules can be tested deterministically
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock backed by time.Now in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// NextCode reserves the next value of the (name, day) counter and formats it as a code
func NextCode(ctx context.Context, r SequenceReserver, name, prefix string, width int, day time.Time) (string, error) {
	seq, err := r.Next(ctx, name, day)
	if err != nil {
		return "", fmt.Errorf("reserve %s sequence: %w", name, err)
	}
	return FormatCode(prefix, day, seq, width), nil
}
