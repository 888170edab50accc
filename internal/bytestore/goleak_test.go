package bytestore

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures ConsistentOpen's errgroup-based concurrent file opens
// leave no goroutines behind, the same guarantee the teacher's core
// package enforces around its own concurrent primitives.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}
