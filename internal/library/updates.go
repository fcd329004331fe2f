package library

// Phase identifies a step of the sync state machine.
type Phase int

const (
	PhaseResolving Phase = iota
	PhaseLibraryAdd
	PhaseSettling
	PhasePlaylistAdd
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseResolving:
		return "resolving"
	case PhaseLibraryAdd:
		return "adding to library"
	case PhaseSettling:
		return "waiting for library"
	case PhasePlaylistAdd:
		return "building playlist"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// ProgressUpdate is a point-in-time view of a running sync, suitable
// for driving a progress display.
type ProgressUpdate struct {
	Phase   Phase
	Index   int
	Total   int
	Track   string
	Message string
}

// sendProgress delivers an update without blocking. A slow or absent
// consumer never stalls the sync.
func (c *Coordinator) sendProgress(update ProgressUpdate) {
	if c.progress == nil {
		return
	}

	select {
	case c.progress <- update:
	default:
	}
}
