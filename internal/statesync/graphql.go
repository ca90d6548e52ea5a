package statesync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vk/fnmesh/internal/apikey"
)

const (
	environmentQuery = `query ($id: ID!) {
  environment(id: $id) { activeBuildId }
}`
	buildQuery = `query ($id: ID!) {
  build(id: $id) { id manifest }
}`
	updateManifestMutation = `mutation ($buildId: ID!, $manifest: JSON!) {
  updateBuildManifest(buildId: $buildId, manifest: $manifest) { id }
}`
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// post performs one GraphQL round trip and decodes the data envelope into
// out. Transport failures and server-reported errors come back as-is so the
// caller's retry loop can classify them.
func (c *Client) post(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := apikey.Resolve(ctx, c.apiKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &queryError{messages: []string{
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(detail)),
		}}
	}

	var envelope gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		qe := &queryError{}
		for _, e := range envelope.Errors {
			qe.messages = append(qe.messages, e.Message)
		}
		return qe
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
