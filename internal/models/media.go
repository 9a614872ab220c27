package models

import "errors"

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// ValidMediaType reports whether s is one of the known type tags.
// The feed endpoints silently ignore anything else as a filter value.
func ValidMediaType(s string) bool {
	return s == string(MediaTypeImage) || s == string(MediaTypeVideo)
}

type AspectRatio string

const (
	AspectRatioSquare   AspectRatio = "1:1"
	AspectRatioWide     AspectRatio = "16:9"
	AspectRatioPortrait AspectRatio = "9:16"
)

func ValidAspectRatio(s string) bool {
	switch AspectRatio(s) {
	case AspectRatioSquare, AspectRatioWide, AspectRatioPortrait:
		return true
	}
	return false
}

// MediaItem is the persisted unit of the feed. Generated images carry
// Prompt and AspectRatio; seed video records carry Thumbnail instead,
// so both are optional on the wire.
type MediaItem struct {
	ID          int64       `json:"id"`
	Src         string      `json:"src"`
	Alt         string      `json:"alt"`
	Author      string      `json:"author"`
	Likes       int         `json:"likes"`
	Type        MediaType   `json:"type"`
	AspectRatio AspectRatio `json:"aspectRatio,omitempty"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
	Prompt      string      `json:"prompt,omitempty"`
}

var (
	ErrMissingSrc       = errors.New("media item has no src")
	ErrUnknownMediaType = errors.New("unknown media type")
	ErrBadAspectRatio   = errors.New("invalid aspect ratio")
)

// Validate enforces the per-type field rules before a record enters
// the feed. Legacy records may omit aspectRatio entirely.
func (m MediaItem) Validate() error {
	if m.Src == "" {
		return ErrMissingSrc
	}
	if m.Type != MediaTypeImage && m.Type != MediaTypeVideo {
		return ErrUnknownMediaType
	}
	if m.AspectRatio != "" && !ValidAspectRatio(string(m.AspectRatio)) {
		return ErrBadAspectRatio
	}
	return nil
}
