package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
)

// File is a user-selected binary. It is opened only when its upload starts.
type File struct {
	Name string // base name used in the destination path
	Path string // local path, empty for in-memory files
	Size int64
	open func() (io.ReadCloser, error)
}

// OpenFile stats the file at path. The content is read during upload.
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", shared.ErrInvalidInput, path)
	}
	return &File{
		Name: filepath.Base(path),
		Path: path,
		Size: info.Size(),
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// NewFile wraps in-memory content.
func NewFile(name string, data []byte) *File {
	return &File{
		Name: name,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Open returns a reader over the file content.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("%w: file %s has no content", shared.ErrInvalidInput, f.Name)
	}
	return f.open()
}

// Limits bound what the forms accept.
type Limits struct {
	MaxTracks            int
	MaxVideoBytes        int64
	MaxTitleLength       int
	MaxDescriptionLength int
}

// DefaultLimits mirrors the defaults of the example configuration.
func DefaultLimits() Limits {
	return Limits{
		MaxTracks:            10,
		MaxVideoBytes:        300 * 1024 * 1024,
		MaxTitleLength:       50,
		MaxDescriptionLength: 150,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxTracks <= 0 {
		l.MaxTracks = d.MaxTracks
	}
	if l.MaxVideoBytes <= 0 {
		l.MaxVideoBytes = d.MaxVideoBytes
	}
	if l.MaxTitleLength <= 0 {
		l.MaxTitleLength = d.MaxTitleLength
	}
	if l.MaxDescriptionLength <= 0 {
		l.MaxDescriptionLength = d.MaxDescriptionLength
	}
	return l
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// TrackInput is one song row of the release form.
type TrackInput struct {
	Title  string
	Artist string
	File   *File
}

// ReleaseForm is the multi-track release submission.
type ReleaseForm struct {
	Kind   models.ReleaseKind
	Name   string
	Cover  *File
	Tracks []TrackInput
}

// Reset restores the initial form: no kind, no cover and one empty song row.
func (f *ReleaseForm) Reset() {
	*f = ReleaseForm{Tracks: []TrackInput{{}}}
}

// Validate reports the first problem with the form.
func (f ReleaseForm) Validate(l Limits) error {
	l = l.withDefaults()

	switch {
	case f.Kind == models.KindUnset:
		return invalid("kind", "Please select an upload type (Single, EP, or Album).")
	case f.Kind.RequiresName() && blank(f.Name):
		return invalid("name", "Please enter a name for the EP or Album.")
	case f.Cover == nil:
		return invalid("cover", "Please select an artwork image.")
	case len(f.Tracks) == 0:
		return invalid("tracks", "Please add at least one song.")
	case len(f.Tracks) > l.MaxTracks:
		return invalid("tracks", "A release can have at most %d songs.", l.MaxTracks)
	}

	for i, tr := range f.Tracks {
		n := i + 1
		switch {
		case blank(tr.Title):
			return invalid(fmt.Sprintf("tracks[%d].title", i), "Please enter a title for song %d.", n)
		case blank(tr.Artist):
			return invalid(fmt.Sprintf("tracks[%d].artist", i), "Please enter an artist for song %d.", n)
		case tr.File == nil:
			return invalid(fmt.Sprintf("tracks[%d].file", i), "Please select a song file for song %d.", n)
		}
	}
	return nil
}

// SongForm is the top-song submission. A zero Duration is probed from the song file.
type SongForm struct {
	Title    string
	Artist   string
	Cover    *File
	Song     *File
	Duration float64
}

// Reset clears every field.
func (f *SongForm) Reset() {
	*f = SongForm{}
}

// Validate reports the first problem with the form. Duration is checked by the pipeline after probing.
func (f SongForm) Validate() error {
	switch {
	case blank(f.Title):
		return invalid("title", "Please enter a song title.")
	case blank(f.Artist):
		return invalid("artist", "Please enter an artist name.")
	case f.Cover == nil:
		return invalid("cover", "Please select an artwork image.")
	case f.Song == nil:
		return invalid("song", "Please select a song file.")
	}
	return nil
}

// VideoForm is the gallery video submission.
type VideoForm struct {
	Title       string
	Description string
	File        *File
}

// Reset clears every field.
func (f *VideoForm) Reset() {
	*f = VideoForm{}
}

// Validate reports the first problem with the form.
func (f VideoForm) Validate(l Limits) error {
	l = l.withDefaults()

	switch {
	case blank(f.Title) || utf8.RuneCountInString(f.Title) > l.MaxTitleLength:
		return invalid("title", "Title is required and must be less than %d characters.", l.MaxTitleLength)
	case blank(f.Description) || utf8.RuneCountInString(f.Description) > l.MaxDescriptionLength:
		return invalid("description", "Description is required and must be less than %d characters.", l.MaxDescriptionLength)
	case f.File == nil:
		return invalid("file", "Please select a video file.")
	case f.File.Size > l.MaxVideoBytes:
		return invalid("file", "Video file size exceeds %dMB.", l.MaxVideoBytes/(1024*1024))
	}
	return nil
}
