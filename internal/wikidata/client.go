// Package wikidata talks to the Wikidata action API and SPARQL endpoint.
// All remote failures come back as values the caller can serialize for the
// client; nothing here is fatal to the process.
package wikidata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "Wikidata MCP Server/1.0 (https://github.com/ebaenamar/wikidata-mcp; ebaenamar@gmail.com)"

var (
	ErrNoEntityFound   = errors.New("no entity found")
	ErrNoPropertyFound = errors.New("no property found")
)

// QueryError is a structured SPARQL failure: what went wrong, which stage
// (validation, network, http, decode) and the offending query text.
type QueryError struct {
	Kind    string `json:"error_type"`
	Message string `json:"error"`
	Query   string `json:"query"`
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("sparql %s error: %s", e.Kind, e.Message)
}

type Metadata struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type Client struct {
	hc        *http.Client
	apiURL    string
	sparqlURL string
	logger    *slog.Logger
}

func NewClient(apiURL, sparqlURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		hc:        &http.Client{Timeout: 60 * time.Second},
		apiURL:    apiURL,
		sparqlURL: sparqlURL,
		logger:    logger,
	}
}

// SearchEntity resolves an entity name to its Q-identifier. Returns
// ErrNoEntityFound when Wikidata has no match.
func (c *Client) SearchEntity(ctx context.Context, query string) (string, error) {
	id, err := c.searchFirst(ctx, query, "item")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrNoEntityFound
	}
	return id, nil
}

// SearchProperty resolves a property name to its P-identifier. Returns
// ErrNoPropertyFound when Wikidata has no match.
func (c *Client) SearchProperty(ctx context.Context, query string) (string, error) {
	id, err := c.searchFirst(ctx, query, "property")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrNoPropertyFound
	}
	return id, nil
}

func (c *Client) searchFirst(ctx context.Context, query, entityType string) (string, error) {
	params := url.Values{
		"action":   {"wbsearchentities"},
		"format":   {"json"},
		"language": {"en"},
		"search":   {query},
		"type":     {entityType},
	}
	var payload struct {
		Search []struct {
			ID string `json:"id"`
		} `json:"search"`
	}
	if err := c.getJSON(ctx, c.apiURL+"?"+params.Encode(), &payload); err != nil {
		return "", err
	}
	if len(payload.Search) == 0 {
		return "", nil
	}
	return payload.Search[0].ID, nil
}

// EntityMetadata returns the English label and description for an entity.
// Missing fields get explicit placeholder values so responses for the same
// id are stable.
func (c *Client) EntityMetadata(ctx context.Context, entityID string) (Metadata, error) {
	params := url.Values{
		"action":    {"wbgetentities"},
		"format":    {"json"},
		"ids":       {entityID},
		"languages": {"en"},
		"props":     {"labels|descriptions"},
	}
	var payload struct {
		Entities map[string]struct {
			Labels map[string]struct {
				Value string `json:"value"`
			} `json:"labels"`
			Descriptions map[string]struct {
				Value string `json:"value"`
			} `json:"descriptions"`
			Missing *string `json:"missing"`
		} `json:"entities"`
	}
	if err := c.getJSON(ctx, c.apiURL+"?"+params.Encode(), &payload); err != nil {
		return Metadata{}, err
	}
	entity, ok := payload.Entities[entityID]
	if !ok || entity.Missing != nil {
		return Metadata{}, fmt.Errorf("entity %s not found", entityID)
	}
	md := Metadata{ID: entityID, Label: "No label found", Description: "No description found"}
	if l, ok := entity.Labels["en"]; ok && l.Value != "" {
		md.Label = l.Value
	}
	if d, ok := entity.Descriptions["en"]; ok && d.Value != "" {
		md.Description = d.Value
	}
	return md, nil
}

// EntityProperties lists property/value pairs for an entity via SPARQL,
// capped at 50 rows.
func (c *Client) EntityProperties(ctx context.Context, entityID string) (json.RawMessage, error) {
	query := fmt.Sprintf(`
SELECT ?property ?propertyLabel ?value ?valueLabel
WHERE {
  wd:%s ?p ?statement.
  ?statement ?ps ?value.

  ?property wikibase:claim ?p.
  ?property wikibase:statementProperty ?ps.

  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
LIMIT 50
`, entityID)
	return c.ExecuteSPARQL(ctx, query)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("wikidata request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("wikidata returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
