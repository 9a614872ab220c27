package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mediafeed/api/internal/config"
)

type vertexClient struct {
	endpoint config.ProviderEndpoint
	modelID  string
	client   *http.Client
}

func newVertexClient(endpoint config.ProviderEndpoint, modelID string, client *http.Client) *vertexClient {
	return &vertexClient{endpoint: endpoint, modelID: modelID, client: client}
}

type vertexInstance struct {
	Prompt string `json:"prompt"`
}

type vertexParameters struct {
	SampleCount  int    `json:"sampleCount"`
	AspectRatio  string `json:"aspectRatio,omitempty"`
	Seed         *int64 `json:"seed,omitempty"`
	AddWatermark *bool  `json:"addWatermark,omitempty"`
}

type vertexRequest struct {
	Instances  []vertexInstance `json:"instances"`
	Parameters vertexParameters `json:"parameters"`
}

type vertexResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
		RaiFilteredReason  string `json:"raiFilteredReason"`
	} `json:"predictions"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *vertexClient) Generate(ctx context.Context, params GenerateParams) (*Image, error) {
	parameters := vertexParameters{
		SampleCount: 1,
		AspectRatio: params.AspectRatio,
		Seed:        params.Seed,
	}
	// The opaque options channel; Imagen rejects a caller seed unless
	// watermarking is turned off, so the dispatcher always sets this.
	if opts, ok := params.Options[KeyVertex]; ok {
		if v, ok := opts["addWatermark"].(bool); ok {
			parameters.AddWatermark = &v
		}
	}

	body, err := json.Marshal(vertexRequest{
		Instances:  []vertexInstance{{Prompt: params.Prompt}},
		Parameters: parameters,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/publishers/google/models/%s:predict", c.endpoint.BaseURL, c.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.endpoint.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vertex request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vertex response: %w", err)
	}

	var out vertexResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("vertex decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return nil, fmt.Errorf("vertex status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return nil, fmt.Errorf("vertex status %d", resp.StatusCode)
	}
	if len(out.Predictions) == 0 {
		return nil, fmt.Errorf("vertex returned no predictions")
	}

	var warnings []string
	pred := out.Predictions[0]
	if pred.RaiFilteredReason != "" {
		warnings = append(warnings, "vertex responsible-AI filter: "+pred.RaiFilteredReason)
	}
	if pred.BytesBase64Encoded == "" {
		return nil, fmt.Errorf("vertex prediction carried no image data")
	}

	data, err := base64.StdEncoding.DecodeString(pred.BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("vertex image payload: %w", err)
	}
	return &Image{Data: data, Warnings: warnings}, nil
}
