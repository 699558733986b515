package profile

import "time"

// Stats is a shared, labelled collection of elapsed durations. It may
// receive concurrent merges from sibling branch tasks before a join reads
// it, so implementations must be safe for concurrent use.
type Stats interface {
	// Merge records the elapsed duration under the label. Merging the same
	// label twice keeps the last value, it never drops other entries.
	Merge(label string, elapsed time.Duration)
	// Snapshot returns a copy of every recorded entry.
	Snapshot() map[string]time.Duration
	// Len returns the number of recorded labels.
	Len() int
}
