// package models defines the data model for the media catalog
package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Fields is a schemaless document body.
type Fields map[string]any

type serverTimestamp struct{}

// ServerTimestamp may be used as a field value; the document store replaces it with its own clock on write.
var ServerTimestamp = serverTimestamp{}

// Document is a stored record and its metadata.
type Document struct {
	ID         string
	Collection string
	Fields     Fields
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decode unmarshals the document fields into v using the JSON tags of v.
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", d.Collection, d.ID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode document %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// ListOptions controls ordering of [DocumentStore.List]. An empty OrderBy keeps insertion order.
type ListOptions struct {
	OrderBy    string
	Descending bool
	Limit      int
}

// DocumentStore is the narrow read/write contract over the hosted document database.
type DocumentStore interface {
	// Get returns the document or an error wrapping shared.ErrDocumentNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string, opts ListOptions) ([]Document, error)
	// Add stores fields under a generated id and returns it.
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, collection, id string, fields Fields) error
	// UpdateFields merges fields into an existing document. Keys may be dotted paths into nested maps.
	UpdateFields(ctx context.Context, collection, id string, fields Fields) error
}

// Record is implemented by every catalog entity that is written to a [DocumentStore].
type Record interface {
	Collection() string
	ToFields() Fields
}

var (
	_ Record = Release{}
	_ Record = TopSong{}
	_ Record = Video{}
	_ Record = HomeSettings{}
)

// Display defaults for incomplete documents.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
)

// Track is a playable item. ID joins UI selection state and playback state.
type Track struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	MediaURL        string  `json:"mediaUrl"`
	ArtworkURL      string  `json:"artworkUrl,omitempty"`
	DurationSeconds float64 `json:"durationSeconds"` // 0 until the media reports metadata
}

// DisplayTitle returns the title or [UnknownTitle].
func (t Track) DisplayTitle() string {
	if strings.TrimSpace(t.Title) == "" {
		return UnknownTitle
	}
	return t.Title
}

// DisplayArtist returns the artist or [UnknownArtist].
func (t Track) DisplayArtist() string {
	if strings.TrimSpace(t.Artist) == "" {
		return UnknownArtist
	}
	return t.Artist
}

// ReleaseKind is the release-kind selector. The zero value means nothing was chosen.
type ReleaseKind string

const (
	KindUnset  ReleaseKind = ""
	KindSingle ReleaseKind = "single"
	KindEP     ReleaseKind = "ep"
	KindAlbum  ReleaseKind = "album"
)

// ParseReleaseKind accepts single, ep or album in any case. An empty string yields [KindUnset].
func ParseReleaseKind(s string) (ReleaseKind, error) {
	switch k := ReleaseKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindUnset, KindSingle, KindEP, KindAlbum:
		return k, nil
	default:
		return KindUnset, fmt.Errorf("unknown release kind %q", s)
	}
}

// RequiresName reports whether releases of this kind need a collection name.
func (k ReleaseKind) RequiresName() bool {
	return k != KindSingle
}

// Label returns the form label (Single, EP, Album).
func (k ReleaseKind) Label() string {
	switch k {
	case KindSingle:
		return "Single"
	case KindEP:
		return "EP"
	case KindAlbum:
		return "Album"
	default:
		return ""
	}
}

// Collection returns the document collection releases of this kind are written to.
func (k ReleaseKind) Collection() string {
	switch k {
	case KindSingle:
		return "singles"
	case KindEP:
		return "eps"
	case KindAlbum:
		return "albums"
	default:
		return ""
	}
}

// ReleaseKinds lists the selectable kinds in form order.
func ReleaseKinds() []ReleaseKind {
	return []ReleaseKind{KindSingle, KindEP, KindAlbum}
}

// TrackEntry is one song inside a [Release].
type TrackEntry struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	AudioURL string `json:"audioUrl"`
}

// Release is a single, EP or album. It is written once, after every asset has a remote URL.
type Release struct {
	ID        string       `json:"-"`
	Kind      ReleaseKind  `json:"kind"`
	Name      string       `json:"name,omitempty"`
	CoverURL  string       `json:"artwork"`
	Tracks    []TrackEntry `json:"songs"`
	CreatedAt time.Time    `json:"timestamp"`
}

func (r Release) Collection() string { return r.Kind.Collection() }

func (r Release) ToFields() Fields {
	songs := make([]any, len(r.Tracks))
	for i, tr := range r.Tracks {
		songs[i] = map[string]any{"title": tr.Title, "artist": tr.Artist, "audioUrl": tr.AudioURL}
	}

	f := Fields{
		"kind":      string(r.Kind),
		"songs":     songs,
		"artwork":   r.CoverURL,
		"timestamp": ServerTimestamp,
	}
	if r.Kind.RequiresName() {
		f["name"] = r.Name
	}
	return f
}

// PlayableTracks expands the release into engine tracks sharing the cover artwork.
func (r Release) PlayableTracks() []Track {
	out := make([]Track, len(r.Tracks))
	for i, tr := range r.Tracks {
		out[i] = Track{
			ID:         fmt.Sprintf("%s:%d", r.ID, i),
			Title:      tr.Title,
			Artist:     tr.Artist,
			MediaURL:   tr.AudioURL,
			ArtworkURL: r.CoverURL,
		}
	}
	return out
}

// TopSongsCollection holds [TopSong] documents.
const TopSongsCollection = "songs"

// TopSong is a featured song shown on the music page.
type TopSong struct {
	ID         string    `json:"-"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	ArtworkURL string    `json:"artworkURL"`
	SongURL    string    `json:"songURL"`
	Duration   float64   `json:"duration"`
	CreatedAt  time.Time `json:"timestamp"`
}

func (s TopSong) Collection() string { return TopSongsCollection }

func (s TopSong) ToFields() Fields {
	return Fields{
		"title":      s.Title,
		"artist":     s.Artist,
		"artworkURL": s.ArtworkURL,
		"songURL":    s.SongURL,
		"duration":   s.Duration,
		"timestamp":  ServerTimestamp,
	}
}

// Track converts the song for the playback engine.
func (s TopSong) Track() Track {
	return Track{
		ID:              s.ID,
		Title:           s.Title,
		Artist:          s.Artist,
		MediaURL:        s.SongURL,
		ArtworkURL:      s.ArtworkURL,
		DurationSeconds: s.Duration,
	}
}

// VideosCollection holds [Video] documents.
const VideosCollection = "videos"

// Video is a gallery item.
type Video struct {
	ID          string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"videoURL"`
	CreatedAt   time.Time `json:"timestamp"`
}

func (v Video) Collection() string { return VideosCollection }

func (v Video) ToFields() Fields {
	return Fields{
		"title":       v.Title,
		"description": v.Description,
		"videoURL":    v.VideoURL,
		"timestamp":   ServerTimestamp,
	}
}

// Track converts the video for the playback engine; the description stands in for the artist line.
func (v Video) Track() Track {
	return Track{ID: v.ID, Title: v.Title, Artist: v.Description, MediaURL: v.VideoURL}
}
