package tasks

import (
	"fmt"

	"github.com/desertthunder/mandolin/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveLists Phase = iota
	FetchTrack
	TrackDone
)

func (p Phase) String() string {
	switch p {
	case ResolveLists:
		return "resolve_lists"
	case FetchTrack:
		return "fetch_track"
	case TrackDone:
		return "track_done"
	default:
		return ""
	}
}

func resolveListUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveLists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving %s...", step, total, name),
	}
}

func fetchTrackUpdate(step, total int, ref models.TrackReference) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, ref),
		Data:    ref,
	}
}

func trackDoneUpdate(step, total int, ref models.TrackReference, err error) ProgressUpdate {
	res := models.TrackResult{Reference: ref, Err: err}
	if err != nil {
		res.Error = err.Error()
		return ProgressUpdate{
			Phase:   TrackDone,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, ref, err),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   TrackDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, ref),
		Data:    res,
	}
}
