// package formatter renders catalog data as CSV, Markdown, plain text or JSON and formats playback clocks
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/encore/internal/models"
)

// Format names an export format.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts text, csv, markdown (or md) and json. An empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// FormatClock renders seconds as m:ss. Unknown or negative durations render as 0:00.
func FormatClock(seconds float64) string {
	total := wholeSeconds(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatLongClock renders seconds as h:mm:ss.
func FormatLongClock(seconds float64) string {
	total := wholeSeconds(seconds)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func wholeSeconds(seconds float64) int {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	return int(math.Floor(seconds))
}

// ExportSongs renders songs in the given format.
func ExportSongs(songs []models.TopSong, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return SongsToCSV(songs)
	case FormatMarkdown:
		return SongsToMarkdown("Top Songs", songs)
	case FormatJSON:
		return ToJSON(songs, true)
	case FormatText, "":
		return SongsToText(songs)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// SongsToCSV converts songs to CSV with columns: ID, Title, Artist, Duration, Song URL, Artwork URL, Created
func SongsToCSV(songs []models.TopSong) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Duration", "Song URL", "Artwork URL", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			song.ID,
			song.Title,
			song.Artist,
			strconv.FormatFloat(song.Duration, 'f', -1, 64),
			song.SongURL,
			song.ArtworkURL,
			formatTime(song.CreatedAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsToMarkdown converts songs to a numbered Markdown list under title
func SongsToMarkdown(title string, songs []models.TopSong) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(songs))

	for i, song := range songs {
		t := song.Track()
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, t.DisplayArtist(), t.DisplayTitle(), FormatClock(song.Duration))
	}

	return buf.Bytes(), nil
}

// SongsToText converts songs to plain text, one per line
func SongsToText(songs []models.TopSong) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Songs: %d\n\n", len(songs))
	for i, song := range songs {
		t := song.Track()
		fmt.Fprintf(&buf, "%d. %s - %s (%s)\n", i+1, t.DisplayArtist(), t.DisplayTitle(), FormatClock(song.Duration))
	}

	return buf.Bytes(), nil
}

// ReleasesToText lists releases with their songs indented below.
func ReleasesToText(releases []models.Release) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Releases: %d\n\n", len(releases))
	for _, r := range releases {
		name := r.Name
		if name == "" && len(r.Tracks) > 0 {
			name = r.Tracks[0].Title
		}
		fmt.Fprintf(&buf, "[%s] %s (%s)\n", r.Kind.Label(), name, r.ID)
		for i, tr := range r.Tracks {
			fmt.Fprintf(&buf, "  %d. %s - %s\n", i+1, tr.Artist, tr.Title)
		}
	}

	return buf.Bytes(), nil
}

// VideosToText lists videos, one per line.
func VideosToText(videos []models.Video) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Videos: %d\n\n", len(videos))
	for i, v := range videos {
		fmt.Fprintf(&buf, "%d. %s: %s\n", i+1, v.Title, v.Description)
	}

	return buf.Bytes(), nil
}

// ReleaseToMarkdown converts a release to Markdown with an optional cover image
func ReleaseToMarkdown(release models.Release, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	title := release.Name
	if title == "" {
		title = release.Kind.Label()
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Type**: %s\n", release.Kind.Label())
	fmt.Fprintf(&buf, "**Songs**: %d\n", len(release.Tracks))
	if !release.CreatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Released**: %s\n", release.CreatedAt.Format("2006-01-02"))
	}
	buf.WriteString("\n## Songs\n\n")

	for i, tr := range release.Tracks {
		fmt.Fprintf(&buf, "%d. %s - [%s](%s)\n", i+1, tr.Artist, tr.Title, tr.AudioURL)
	}

	return buf.Bytes(), nil
}

// ToJSON marshals v, indented when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteSongsExport writes songs to path in the given format.
//
// Defaults to songs.{ext} in the working directory.
func WriteSongsExport(songs []models.TopSong, format Format, path string) (string, error) {
	if path == "" {
		path = "songs." + format.Extension()
	}

	data, err := ExportSongs(songs, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// Extension returns the file extension used for exports in this format.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// ReleaseExportResult contains information about files created by WriteReleaseExport
type ReleaseExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteReleaseExport writes a release as {dir}/README.md, with the cover downloaded to {dir}/cover{ext}.
//
// Directory name defaults to the release ID. A cover that cannot be downloaded is reported to warn and skipped.
func WriteReleaseExport(release models.Release, outputDir string, client *http.Client, warn func(error)) (*ReleaseExportResult, error) {
	if outputDir == "" {
		outputDir = release.ID
	}
	if outputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &ReleaseExportResult{Directory: outputDir, Files: []string{}}

	var coverFilename string
	if release.CoverURL != "" {
		imageData, err := DownloadImage(client, release.CoverURL)
		if err != nil {
			if warn != nil {
				warn(err)
			}
		} else {
			coverFilename = "cover" + coverExtension(release.CoverURL)
			coverPath := filepath.Join(outputDir, coverFilename)
			if err := os.WriteFile(coverPath, imageData, 0644); err != nil {
				if warn != nil {
					warn(fmt.Errorf("failed to save cover image: %w", err))
				}
				coverFilename = ""
			} else {
				result.CoverImage = coverPath
				result.Files = append(result.Files, coverPath)
			}
		}
	}

	mdData, err := ReleaseToMarkdown(release, coverFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

func coverExtension(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	switch ext := strings.ToLower(filepath.Ext(url)); ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return ".jpg"
	}
}
