package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mediafeed/api/internal/config"
)

type replicateClient struct {
	endpoint config.ProviderEndpoint
	modelID  string
	client   *http.Client
}

func newReplicateClient(endpoint config.ProviderEndpoint, modelID string, client *http.Client) *replicateClient {
	return &replicateClient{endpoint: endpoint, modelID: modelID, client: client}
}

type replicateInput struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	Seed   *int64 `json:"seed,omitempty"`
}

type replicateRequest struct {
	Input replicateInput `json:"input"`
}

type replicateResponse struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	Logs   string          `json:"logs"`
}

func (c *replicateClient) Generate(ctx context.Context, params GenerateParams) (*Image, error) {
	body, err := json.Marshal(replicateRequest{
		Input: replicateInput{
			Prompt: params.Prompt,
			Size:   params.Size,
			Seed:   params.Seed,
		},
	})
	if err != nil {
		return nil, err
	}

	// Prefer: wait holds the request open until the prediction
	// settles, so one round trip covers the whole generation.
	url := fmt.Sprintf("%s/models/%s/predictions", c.endpoint.BaseURL, c.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.endpoint.APIKey)
	req.Header.Set("Prefer", "wait")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate response: %w", err)
	}

	var out replicateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("replicate decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if out.Error != "" {
			return nil, fmt.Errorf("replicate status %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("replicate status %d", resp.StatusCode)
	}
	if out.Status == "failed" || out.Status == "canceled" {
		return nil, fmt.Errorf("replicate prediction %s: %s", out.Status, out.Error)
	}

	outputURL, err := firstOutputURL(out.Output)
	if err != nil {
		return nil, err
	}

	data, err := c.fetchOutput(ctx, outputURL)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if strings.Contains(out.Logs, "NSFW") {
		warnings = append(warnings, "replicate flagged output as potentially NSFW")
	}
	return &Image{Data: data, Warnings: warnings}, nil
}

// firstOutputURL handles the two output shapes replicate models use:
// a single URL string or an array of URL strings.
func firstOutputURL(output json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(output, &single); err == nil && single != "" {
		return single, nil
	}
	var many []string
	if err := json.Unmarshal(output, &many); err == nil && len(many) > 0 {
		return many[0], nil
	}
	return "", fmt.Errorf("replicate returned no output")
}

func (c *replicateClient) fetchOutput(ctx context.Context, outputURL string) ([]byte, error) {
	// Some models hand back the image inline as a data URI.
	if strings.HasPrefix(outputURL, "data:") {
		idx := strings.Index(outputURL, ",")
		if idx < 0 {
			return nil, fmt.Errorf("replicate malformed data uri")
		}
		return base64.StdEncoding.DecodeString(outputURL[idx+1:])
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, outputURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate fetch output: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("replicate fetch output status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
