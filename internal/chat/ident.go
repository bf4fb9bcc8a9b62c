// Package chat provides the process-wide message identity and clock helpers.
package chat

import (
	"fmt"
	"time"

	"go.uber.org/atomic"
)

var msgCounter atomic.Uint64

// NextID returns a fresh message identifier. Identifiers are unique for the
// lifetime of the process and strictly increasing in allocation order, safe
// under concurrent callers.
func NextID() string {
	return fmt.Sprintf("msg_%d", msgCounter.Inc())
}

// NowUTC returns the current time as an ISO-8601 UTC string with second
// precision and a trailing literal Z.
func NowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
