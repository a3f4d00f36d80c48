package model

// JobKind names the background work a job requests.
type JobKind string

// Job kinds.
const (
	// JobRecompute rebuilds every derived structure for one snapshot version.
	JobRecompute JobKind = "recompute"
)

// Job is the payload flowing through the background queue.
type Job struct {
	ID      string
	Kind    JobKind
	Version uint64
}
