package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidateMediaItem(t *testing.T) {
	valid := MediaItem{
		ID:          1,
		Src:         "data:image/png;base64,abc",
		Alt:         "a red fox",
		Author:      "vertex",
		Type:        MediaTypeImage,
		AspectRatio: AspectRatioWide,
		Prompt:      "a red fox",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	legacy := MediaItem{ID: 2, Src: "https://example.com/v.mp4", Type: MediaTypeVideo}
	if err := legacy.Validate(); err != nil {
		t.Fatalf("legacy video without aspect ratio rejected: %v", err)
	}

	noSrc := valid
	noSrc.Src = ""
	if err := noSrc.Validate(); !errors.Is(err, ErrMissingSrc) {
		t.Fatalf("expected ErrMissingSrc, got %v", err)
	}

	badType := valid
	badType.Type = "gif"
	if err := badType.Validate(); !errors.Is(err, ErrUnknownMediaType) {
		t.Fatalf("expected ErrUnknownMediaType, got %v", err)
	}

	badRatio := valid
	badRatio.AspectRatio = "4:3"
	if err := badRatio.Validate(); !errors.Is(err, ErrBadAspectRatio) {
		t.Fatalf("expected ErrBadAspectRatio, got %v", err)
	}
}

func TestMediaItemJSONOmitsOptionalFields(t *testing.T) {
	item := MediaItem{
		ID:     3,
		Src:    "https://example.com/v.mp4",
		Alt:    "clip",
		Author: "seed",
		Type:   MediaTypeVideo,
	}
	raw, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"aspectRatio", "thumbnail", "prompt"} {
		if strings.Contains(string(raw), field) {
			t.Fatalf("empty %s should be omitted: %s", field, raw)
		}
	}
}

func TestValidMediaType(t *testing.T) {
	if !ValidMediaType("image") || !ValidMediaType("video") {
		t.Fatal("known type tags rejected")
	}
	for _, bad := range []string{"", "gif", "Image", "VIDEO"} {
		if ValidMediaType(bad) {
			t.Fatalf("%q accepted as media type", bad)
		}
	}
}
