package upload

import "fmt"

// ProgressUpdate represents a progress event of a running pipeline.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase   // Pipeline phase
	Step    int     // Current step number within phase
	Total   int     // Total steps in this phase
	Asset   string  // Asset id, when the event concerns one asset
	Percent float64 // Overall weighted percentage, 0-100
	Message string  // Human-readable message for display
	Data    any     // Optional phase-specific data for advanced UIs
}

// Pipeline phase enumeration
type Phase int

const (
	Validate Phase = iota
	UploadCover
	UploadMedia
	WriteRecord
	Cleanup
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Validate:
		return "validate"
	case UploadCover:
		return "upload_cover"
	case UploadMedia:
		return "upload_media"
	case WriteRecord:
		return "write_record"
	case Cleanup:
		return "cleanup"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func phaseFor(r Role) Phase {
	if r == RoleCover {
		return UploadCover
	}
	return UploadMedia
}

func startUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validate,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Uploading %d files...", total),
	}
}

func assetStartUpdate(step, total int, a *Asset, overall float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phaseFor(a.Role),
		Step:    step,
		Total:   total,
		Asset:   a.ID,
		Percent: overall,
		Message: fmt.Sprintf("[%d/%d] Uploading %s...", step, total, a.File.Name),
	}
}

func assetProgressUpdate(step, total int, a *Asset, overall float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phaseFor(a.Role),
		Step:    step,
		Total:   total,
		Asset:   a.ID,
		Percent: overall,
		Message: fmt.Sprintf("Uploading... %.0f%%", overall),
	}
}

func assetDoneUpdate(step, total int, a *Asset, overall float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phaseFor(a.Role),
		Step:    step,
		Total:   total,
		Asset:   a.ID,
		Percent: overall,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, a.File.Name),
		Data:    *a,
	}
}

func writeRecordUpdate(collection string, overall float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteRecord,
		Step:    1,
		Total:   1,
		Percent: overall,
		Message: fmt.Sprintf("Saving record to %s...", collection),
	}
}

func doneUpdate(res *Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Percent: res.Progress,
		Message: fmt.Sprintf("Saved %s/%s", res.Collection, res.RecordID),
		Data:    res,
	}
}

func failedUpdate(overall float64, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Step:    1,
		Total:   1,
		Percent: overall,
		Message: Message(err),
	}
}

func cleanupUpdate(step, total int, path string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   Cleanup,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, path, err),
		}
	}
	return ProgressUpdate{
		Phase:   Cleanup,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] removed %s", step, total, path),
	}
}
