package models

import (
	"fmt"

	"github.com/ryecroft/amsync/internal/shared"
)

// SyncRun records the outcome counts of one completed sync.
type SyncRun struct {
	base
	playlist   string
	requested  int
	added      int
	notFound   int
	failedSync int
}

// NewSyncRun creates a sync run record.
func NewSyncRun(sequence int, playlist string, requested, added, notFound, failedSync int) *SyncRun {
	return &SyncRun{
		base:       newBase(sequence),
		playlist:   playlist,
		requested:  requested,
		added:      added,
		notFound:   notFound,
		failedSync: failedSync,
	}
}

func (r *SyncRun) Playlist() string { return r.playlist }
func (r *SyncRun) Requested() int   { return r.requested }
func (r *SyncRun) Added() int       { return r.added }
func (r *SyncRun) NotFound() int    { return r.notFound }
func (r *SyncRun) FailedSync() int  { return r.failedSync }

// Validate checks the counts are consistent: the three outcome buckets
// must account for every requested track.
func (r *SyncRun) Validate() error {
	if r.playlist == "" {
		return fmt.Errorf("%w: playlist is required", shared.ErrInvalidInput)
	}

	if r.requested < 0 || r.added < 0 || r.notFound < 0 || r.failedSync < 0 {
		return fmt.Errorf("%w: counts must be non-negative", shared.ErrInvalidInput)
	}

	if r.added+r.notFound+r.failedSync != r.requested {
		return fmt.Errorf("%w: outcome counts do not sum to requested", shared.ErrInvalidInput)
	}

	return nil
}
