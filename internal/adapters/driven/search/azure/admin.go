// Package azure provides a search admin adapter over the Azure AI
// Search REST API. Only resource deletion is implemented; rollback is
// the sole caller.
package azure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
)

// Ensure SearchAdmin implements the interface.
var _ driven.SearchAdmin = (*SearchAdmin)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// apiVersion is the Azure AI Search REST API version used for all
	// requests. Knowledge sources and agents require a preview version.
	apiVersion = "2025-05-01-preview"
)

// Config holds configuration for the Azure search admin.
type Config struct {
	// Endpoint is the search service endpoint (required), e.g.
	// https://myservice.search.windows.net.
	Endpoint string

	// APIKey is the admin API key (required).
	APIKey string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// SearchAdmin deletes search indexes, knowledge sources and knowledge
// agents by name.
type SearchAdmin struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewSearchAdmin creates a new Azure search admin.
func NewSearchAdmin(cfg Config) (*SearchAdmin, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azure search: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azure search: API key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &SearchAdmin{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
	}, nil
}

// DeleteIndex removes the search index. A missing index is not an
// error.
func (s *SearchAdmin) DeleteIndex(ctx context.Context, name string) error {
	return s.delete(ctx, "indexes", name)
}

// DeleteKnowledgeSource removes the knowledge source.
func (s *SearchAdmin) DeleteKnowledgeSource(ctx context.Context, name string) error {
	return s.delete(ctx, "knowledgeSources", name)
}

// DeleteKnowledgeAgent removes the knowledge agent.
func (s *SearchAdmin) DeleteKnowledgeAgent(ctx context.Context, name string) error {
	return s.delete(ctx, "agents", name)
}

// delete issues a DELETE for one resource. 404 is treated as success so
// repeated rollbacks stay idempotent.
func (s *SearchAdmin) delete(ctx context.Context, collection, name string) error {
	endpoint := fmt.Sprintf("%s/%s/%s?api-version=%s",
		s.endpoint, collection, url.PathEscape(name), apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("azure search: status %d (failed to read body: %w)", resp.StatusCode, err)
	}
	return fmt.Errorf("azure search: status %d: %s", resp.StatusCode, string(body))
}
