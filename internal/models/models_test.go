package models

import (
	"testing"
	"time"
)

func TestReleaseKind(t *testing.T) {
	tc := []struct {
		input        string
		want         ReleaseKind
		collection   string
		requiresName bool
		wantErr      bool
	}{
		{input: "Single", want: KindSingle, collection: "singles"},
		{input: "EP", want: KindEP, collection: "eps", requiresName: true},
		{input: " album ", want: KindAlbum, collection: "albums", requiresName: true},
		{input: "", want: KindUnset, requiresName: true},
		{input: "mixtape", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseReleaseKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReleaseKind() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ParseReleaseKind() = %q, want %q", got, tt.want)
			}
			if got.Collection() != tt.collection {
				t.Errorf("Collection() = %q, want %q", got.Collection(), tt.collection)
			}
			if got.RequiresName() != tt.requiresName {
				t.Errorf("RequiresName() = %v, want %v", got.RequiresName(), tt.requiresName)
			}
		})
	}
}

func TestReleaseFields(t *testing.T) {
	t.Run("single omits name", func(t *testing.T) {
		r := Release{Kind: KindSingle, Name: "ignored", CoverURL: "c", Tracks: []TrackEntry{{Title: "A", Artist: "B", AudioURL: "u"}}}
		f := r.ToFields()

		if _, ok := f["name"]; ok {
			t.Error("single releases should not carry a name")
		}
		if f["timestamp"] != ServerTimestamp {
			t.Error("expected server timestamp placeholder")
		}
		songs, ok := f["songs"].([]any)
		if !ok || len(songs) != 1 {
			t.Fatalf("expected one song, got %#v", f["songs"])
		}
		if songs[0].(map[string]any)["audioUrl"] != "u" {
			t.Errorf("unexpected song entry %#v", songs[0])
		}
	})

	t.Run("album keeps name", func(t *testing.T) {
		f := Release{Kind: KindAlbum, Name: "Night Drive"}.ToFields()
		if f["name"] != "Night Drive" {
			t.Errorf("expected name, got %#v", f["name"])
		}
	})

	t.Run("PlayableTracks shares cover", func(t *testing.T) {
		r := Release{ID: "r1", CoverURL: "cover", Tracks: []TrackEntry{{Title: "A"}, {Title: "B"}}}
		tracks := r.PlayableTracks()
		if len(tracks) != 2 || tracks[1].ID != "r1:1" || tracks[1].ArtworkURL != "cover" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})
}

func TestDocumentDecode(t *testing.T) {
	doc := Document{
		ID:         "s1",
		Collection: TopSongsCollection,
		Fields: Fields{
			"title":      "Lights",
			"artist":     "Nova",
			"songURL":    "https://cdn/song.mp3",
			"artworkURL": "https://cdn/art.jpg",
			"duration":   float64(215),
			"timestamp":  "2026-01-02T03:04:05.000000000Z",
		},
	}

	var song TopSong
	if err := doc.Decode(&song); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if song.Title != "Lights" || song.Duration != 215 {
		t.Errorf("unexpected song %+v", song)
	}
	if !song.CreatedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", song.CreatedAt)
	}
}

func TestTrackDisplay(t *testing.T) {
	tr := Track{Title: "  ", Artist: ""}
	if tr.DisplayTitle() != UnknownTitle {
		t.Errorf("DisplayTitle() = %q", tr.DisplayTitle())
	}
	if tr.DisplayArtist() != UnknownArtist {
		t.Errorf("DisplayArtist() = %q", tr.DisplayArtist())
	}
}

func TestHomeSettings(t *testing.T) {
	t.Run("UpdateFields flattens social links", func(t *testing.T) {
		h := HomeSettings{RecordLabel: "Indie", SocialLinks: SocialLinks{Spotify: "https://open.spotify.com/x"}}
		f := h.UpdateFields()

		if f["socialLinks.spotify"] != "https://open.spotify.com/x" {
			t.Errorf("expected dotted spotify path, got %#v", f["socialLinks.spotify"])
		}
		if _, ok := f["socialLinks"]; ok {
			t.Error("nested map should be flattened")
		}
		if len(f) != len(SettingsFieldNames()) {
			t.Errorf("expected %d fields, got %d", len(SettingsFieldNames()), len(f))
		}
	})

	t.Run("Set", func(t *testing.T) {
		var h HomeSettings
		for _, name := range SettingsFieldNames() {
			if err := h.Set(name, "v"); err != nil {
				t.Errorf("Set(%q) error: %v", name, err)
			}
		}
		if h.SocialLinks.TikTok != "v" || h.Email != "v" {
			t.Errorf("fields not assigned: %+v", h)
		}
		if err := h.Set("socialLinks.myspace", "v"); err == nil {
			t.Error("expected error for unknown field")
		}
	})
}
