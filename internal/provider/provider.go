// Package provider holds the closed set of image-generation backends
// and the per-provider call conventions the dispatcher relies on.
package provider

import (
	"context"
	"net/http"

	"mediafeed/api/internal/config"
)

type Key string

const (
	KeyOpenAI    Key = "openai"
	KeyFireworks Key = "fireworks"
	KeyReplicate Key = "replicate"
	KeyVertex    Key = "vertex"
)

// DimensionFormat tells the dispatcher which dimension parameter a
// provider understands: a fixed pixel size or an aspect-ratio string.
type DimensionFormat string

const (
	DimensionSize        DimensionFormat = "size"
	DimensionAspectRatio DimensionFormat = "aspectRatio"
)

// GenerateParams is the normalized call shape. Exactly one of Size or
// AspectRatio is set, according to the provider's DimensionFormat.
// Seed is nil for providers that rely on upstream default seeding.
type GenerateParams struct {
	Prompt      string
	Size        string
	AspectRatio string
	Seed        *int64
	// Options is an opaque per-provider channel; each client reads
	// only its own key.
	Options map[Key]map[string]any
}

// Image is a successful generation: raw PNG bytes plus any upstream
// warnings, which callers log but never fail on.
type Image struct {
	Data     []byte
	Warnings []string
}

type Client interface {
	Generate(ctx context.Context, params GenerateParams) (*Image, error)
}

type Config struct {
	NewClient       func(modelID string) Client
	DimensionFormat DimensionFormat
}

type Registry struct {
	configs map[Key]Config
}

// NewRegistry wires the four known providers. httpClient is shared by
// all clients; per-call deadlines come from the caller's context.
func NewRegistry(cfg config.ProvidersConfig, httpClient *http.Client) *Registry {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Registry{
		configs: map[Key]Config{
			KeyOpenAI: {
				NewClient: func(modelID string) Client {
					return newOpenAIClient(cfg.OpenAI, modelID, httpClient)
				},
				DimensionFormat: DimensionSize,
			},
			KeyFireworks: {
				NewClient: func(modelID string) Client {
					return newFireworksClient(cfg.Fireworks, modelID, httpClient)
				},
				DimensionFormat: DimensionAspectRatio,
			},
			KeyReplicate: {
				NewClient: func(modelID string) Client {
					return newReplicateClient(cfg.Replicate, modelID, httpClient)
				},
				DimensionFormat: DimensionSize,
			},
			KeyVertex: {
				NewClient: func(modelID string) Client {
					return newVertexClient(cfg.Vertex, modelID, httpClient)
				},
				DimensionFormat: DimensionAspectRatio,
			},
		},
	}
}

func (r *Registry) Lookup(key Key) (Config, bool) {
	cfg, ok := r.configs[key]
	return cfg, ok
}

// Keys returns the registered provider keys, for validation messages
// and tests.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.configs))
	for k := range r.configs {
		keys = append(keys, k)
	}
	return keys
}
