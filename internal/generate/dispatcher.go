// Package generate runs one image-generation attempt per request:
// validate, call the provider under a hard deadline, persist the
// result at the head of the feed.
package generate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"mediafeed/api/internal/config"
	"mediafeed/api/internal/feed"
	"mediafeed/api/internal/ids"
	"mediafeed/api/internal/models"
	"mediafeed/api/internal/provider"
	"mediafeed/api/internal/storage"
)

// Failure classes surfaced to the handler, which maps them to status
// codes and client-safe messages. Provider detail stays in the logs.
var (
	ErrInvalidRequest = errors.New("invalid request parameters")
	ErrTimeout        = errors.New("request timed out")
	ErrGeneration     = errors.New("image generation failed")
	ErrPersist        = errors.New("failed to persist media")
)

type Request struct {
	Prompt      string `json:"prompt"`
	Provider    string `json:"provider"`
	ModelID     string `json:"modelId"`
	AspectRatio string `json:"aspectRatio"`
}

type Result struct {
	Provider string `json:"provider"`
	Image    string `json:"image"` // base64-encoded PNG
}

type Dispatcher struct {
	registry *provider.Registry
	store    feed.Store
	objects  *storage.ObjectStore // nil keeps images inline as data URIs
	cfg      config.GenerateConfig
	log      zerolog.Logger
	seedFn   func() int64
}

func NewDispatcher(registry *provider.Registry, store feed.Store, objects *storage.ObjectStore, cfg config.GenerateConfig, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		store:    store,
		objects:  objects,
		cfg:      cfg,
		log:      log,
		seedFn:   func() int64 { return rand.Int63n(1000000) },
	}
}

type callOutcome struct {
	image *provider.Image
	err   error
}

// Dispatch executes exactly one generation attempt. There is no
// queuing, no retry; the first of {provider settles, deadline fires}
// decides the outcome, and a result arriving after the deadline is
// discarded without touching the feed.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	requestID := ids.NewRequestID()
	logger := d.log.With().
		Str("request_id", requestID).
		Str("provider", req.Provider).
		Str("model", req.ModelID).
		Logger()

	cfg, err := d.validate(req)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected generation request")
		return Result{}, err
	}

	params := d.buildParams(cfg.DimensionFormat, req)
	client := cfg.NewClient(req.ModelID)

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	// Buffered so the provider goroutine can always deliver and exit,
	// even when the deadline branch already won the select.
	outcomes := make(chan callOutcome, 1)
	start := time.Now()
	go func() {
		image, err := client.Generate(callCtx, params)
		outcomes <- callOutcome{image: image, err: err}
	}()

	var outcome callOutcome
	select {
	case <-callCtx.Done():
		logger.Error().
			Dur("elapsed", time.Since(start)).
			Msg("generation timed out")
		return Result{}, ErrTimeout
	case outcome = <-outcomes:
	}

	if outcome.err != nil {
		if errors.Is(outcome.err, context.DeadlineExceeded) {
			logger.Error().
				Dur("elapsed", time.Since(start)).
				Msg("generation timed out")
			return Result{}, ErrTimeout
		}
		// Full upstream detail is logged here and nowhere else.
		logger.Error().
			Err(outcome.err).
			Dur("elapsed", time.Since(start)).
			Msg("generation failed")
		return Result{}, ErrGeneration
	}

	for _, warning := range outcome.image.Warnings {
		logger.Warn().Str("warning", warning).Msg("provider warning")
	}
	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(outcome.image.Data)).
		Msg("generation completed")

	// The feed write is part of the unit of work: an image the user
	// cannot observe in the feed counts as a failed request.
	item, err := d.persist(ctx, req, outcome.image.Data)
	if err != nil {
		logger.Error().Err(err).Msg("persisting generated media failed")
		return Result{}, ErrPersist
	}
	logger.Info().Int64("media_id", item.ID).Msg("media recorded")

	return Result{
		Provider: req.Provider,
		Image:    base64.StdEncoding.EncodeToString(outcome.image.Data),
	}, nil
}

// validate applies the client-error rules: all fields required, the
// provider must be registered, the ratio must be a known value.
func (d *Dispatcher) validate(req Request) (provider.Config, error) {
	if req.Prompt == "" || req.Provider == "" || req.ModelID == "" {
		return provider.Config{}, ErrInvalidRequest
	}
	cfg, ok := d.registry.Lookup(provider.Key(req.Provider))
	if !ok {
		return provider.Config{}, ErrInvalidRequest
	}
	if req.AspectRatio != "" && !models.ValidAspectRatio(req.AspectRatio) {
		return provider.Config{}, ErrInvalidRequest
	}
	return cfg, nil
}

func (d *Dispatcher) buildParams(format provider.DimensionFormat, req Request) provider.GenerateParams {
	params := provider.GenerateParams{
		Prompt: req.Prompt,
		// Imagen rejects a caller-supplied seed while watermarking is
		// on, so the flag rides along on every call.
		Options: map[provider.Key]map[string]any{
			provider.KeyVertex: {"addWatermark": false},
		},
	}

	if format == provider.DimensionSize {
		params.Size = d.cfg.DefaultSize
	} else {
		params.AspectRatio = req.AspectRatio
		if params.AspectRatio == "" {
			params.AspectRatio = string(models.AspectRatioSquare)
		}
	}

	// OpenAI has no seed parameter; everyone else gets one for
	// variance control.
	if provider.Key(req.Provider) != provider.KeyOpenAI {
		seed := d.seedFn()
		params.Seed = &seed
	}

	return params
}

func (d *Dispatcher) persist(ctx context.Context, req Request, data []byte) (models.MediaItem, error) {
	item := models.MediaItem{
		ID:          ids.NewMediaID(),
		Alt:         req.Prompt,
		Author:      req.Provider,
		Likes:       0,
		Type:        models.MediaTypeImage,
		AspectRatio: models.AspectRatio(req.AspectRatio),
		Prompt:      req.Prompt,
	}

	if d.objects != nil {
		url, err := d.objects.PutImage(ctx, item.ID, data)
		if err != nil {
			return models.MediaItem{}, fmt.Errorf("offload image: %w", err)
		}
		item.Src = url
	} else {
		item.Src = "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	}

	if err := d.store.InsertAtHead(ctx, item); err != nil {
		return models.MediaItem{}, err
	}
	return item, nil
}
