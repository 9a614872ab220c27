package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mediafeed/api/internal/config"
)

// Fireworks serves image generation per-model and answers with raw
// PNG bytes when asked via the Accept header.
type fireworksClient struct {
	endpoint config.ProviderEndpoint
	modelID  string
	client   *http.Client
}

func newFireworksClient(endpoint config.ProviderEndpoint, modelID string, client *http.Client) *fireworksClient {
	return &fireworksClient{endpoint: endpoint, modelID: modelID, client: client}
}

type fireworksRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Seed        *int64 `json:"seed,omitempty"`
}

func (c *fireworksClient) Generate(ctx context.Context, params GenerateParams) (*Image, error) {
	body, err := json.Marshal(fireworksRequest{
		Prompt:      params.Prompt,
		AspectRatio: params.AspectRatio,
		Seed:        params.Seed,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/image_generation/%s", c.endpoint.BaseURL, c.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")
	req.Header.Set("Authorization", "Bearer "+c.endpoint.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fireworks request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fireworks response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fireworks status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fireworks returned empty image")
	}

	return &Image{Data: raw}, nil
}
