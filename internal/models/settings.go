package models

import (
	"fmt"
	"unicode/utf8"

	"github.com/desertthunder/encore/internal/shared"
)

// Location of the homepage settings document.
const (
	SettingsCollection = "home"
	SettingsDocument   = "settings"
)

// SocialLinks are the outbound profile links shown on the homepage.
type SocialLinks struct {
	YouTubeMusic string `json:"youtubeMusic"`
	Spotify      string `json:"spotify"`
	AppleMusic   string `json:"appleMusic"`
	Instagram    string `json:"instagram"`
	YouTube      string `json:"youtube"`
	Facebook     string `json:"facebook"`
	TikTok       string `json:"tiktok"`
}

// HomeSettings is the editable homepage content.
type HomeSettings struct {
	LatestSongTitle       string      `json:"latestSongTitle"`
	LatestSongDescription string      `json:"latestSongDescription"`
	RecordLabel           string      `json:"recordLabel"`
	SocialLinks           SocialLinks `json:"socialLinks"`
	PhoneNumber           string      `json:"phoneNumber"`
	Email                 string      `json:"email"`
}

func (h HomeSettings) Collection() string { return SettingsCollection }

func (h HomeSettings) ToFields() Fields {
	return Fields{
		"latestSongTitle":       h.LatestSongTitle,
		"latestSongDescription": h.LatestSongDescription,
		"recordLabel":           h.RecordLabel,
		"socialLinks": map[string]any{
			"youtubeMusic": h.SocialLinks.YouTubeMusic,
			"spotify":      h.SocialLinks.Spotify,
			"appleMusic":   h.SocialLinks.AppleMusic,
			"instagram":    h.SocialLinks.Instagram,
			"youtube":      h.SocialLinks.YouTube,
			"facebook":     h.SocialLinks.Facebook,
			"tiktok":       h.SocialLinks.TikTok,
		},
		"phoneNumber": h.PhoneNumber,
		"email":       h.Email,
	}
}

// Validate applies the homepage field length limits.
func (h HomeSettings) Validate() error {
	switch {
	case utf8.RuneCountInString(h.LatestSongTitle) > 20:
		return fmt.Errorf("%w: Latest Song Title must be 20 characters or less.", shared.ErrValidation)
	case utf8.RuneCountInString(h.LatestSongDescription) > 60:
		return fmt.Errorf("%w: Latest Song Description must be 60 characters or less.", shared.ErrValidation)
	case utf8.RuneCountInString(h.RecordLabel) > 30:
		return fmt.Errorf("%w: Record Label must be 30 characters or less.", shared.ErrValidation)
	}
	return nil
}

// UpdateFields flattens the settings into dotted-path fields for a partial update.
func (h HomeSettings) UpdateFields() Fields {
	out := Fields{}
	for k, v := range h.ToFields() {
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range nested {
				out[k+"."+nk] = nv
			}
			continue
		}
		out[k] = v
	}
	return out
}

// SettingsFieldNames lists every dotted path accepted by [HomeSettings.Set].
func SettingsFieldNames() []string {
	return []string{
		"latestSongTitle", "latestSongDescription", "recordLabel",
		"socialLinks.youtubeMusic", "socialLinks.spotify", "socialLinks.appleMusic", "socialLinks.instagram",
		"socialLinks.youtube", "socialLinks.facebook", "socialLinks.tiktok",
		"phoneNumber", "email",
	}
}

// Set assigns one field by its dotted path.
func (h *HomeSettings) Set(path, value string) error {
	switch path {
	case "latestSongTitle":
		h.LatestSongTitle = value
	case "latestSongDescription":
		h.LatestSongDescription = value
	case "recordLabel":
		h.RecordLabel = value
	case "socialLinks.youtubeMusic":
		h.SocialLinks.YouTubeMusic = value
	case "socialLinks.spotify":
		h.SocialLinks.Spotify = value
	case "socialLinks.appleMusic":
		h.SocialLinks.AppleMusic = value
	case "socialLinks.instagram":
		h.SocialLinks.Instagram = value
	case "socialLinks.youtube":
		h.SocialLinks.YouTube = value
	case "socialLinks.facebook":
		h.SocialLinks.Facebook = value
	case "socialLinks.tiktok":
		h.SocialLinks.TikTok = value
	case "phoneNumber":
		h.PhoneNumber = value
	case "email":
		h.Email = value
	default:
		return fmt.Errorf("unknown settings field %q", path)
	}
	return nil
}
