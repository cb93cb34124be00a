package tasks

import "fmt"

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
	FetchCatalog Phase = iota
	ExportSongs
	ExportVideos
	ExportRelease
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchCatalog:
		return "fetch_catalog"
	case ExportSongs:
		return "export_songs"
	case ExportVideos:
		return "export_videos"
	case ExportRelease:
		return "export_release"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchingCatalogUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    1,
		Total:   1,
		Message: "Fetching catalog...",
	}
}

func songsExportedUpdate(count int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSongs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exported %d songs to %s", count, path),
		Data:    path,
	}
}

func videosExportedUpdate(count int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportVideos,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exported %d videos to %s", count, path),
		Data:    path,
	}
}

func exportingReleaseUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRelease,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRelease,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRelease,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: "Wrote manifest " + path,
		Data:    path,
	}
}
