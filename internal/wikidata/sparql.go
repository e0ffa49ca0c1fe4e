package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// defaultPrefixes cover the namespaces nearly every Wikidata query needs,
// so callers can write bare triple patterns.
const defaultPrefixes = `PREFIX wd: <http://www.wikidata.org/entity/>
PREFIX wdt: <http://www.wikidata.org/prop/direct/>
PREFIX p: <http://www.wikidata.org/prop/>
PREFIX ps: <http://www.wikidata.org/prop/statement/>
PREFIX wikibase: <http://wikiba.se/ontology#>
PREFIX bd: <http://www.bigdata.com/rdf#>
`

// ExecuteSPARQL runs a query against the SPARQL endpoint and returns the
// raw result bindings. The query is validated locally first; a query that
// fails validation never reaches the network. Failures of any kind come
// back as *QueryError.
func (c *Client) ExecuteSPARQL(ctx context.Context, query string) (json.RawMessage, error) {
	if qerr := validateQuery(query); qerr != nil {
		return nil, qerr
	}

	full := query
	if !strings.Contains(query, "PREFIX") && !strings.Contains(query, "prefix") {
		full = defaultPrefixes + query
	}

	params := url.Values{
		"query":  {full},
		"format": {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sparqlURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &QueryError{Kind: "request", Message: err.Error(), Query: query}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &QueryError{Kind: "network", Message: fmt.Sprintf("error executing query: %s", err), Query: query}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &QueryError{
			Kind:    "http",
			Message: fmt.Sprintf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			Query:   query,
		}
	}

	var payload struct {
		Results struct {
			Bindings json.RawMessage `json:"bindings"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &QueryError{Kind: "decode", Message: fmt.Sprintf("malformed result: %s", err), Query: query}
	}
	if len(payload.Results.Bindings) == 0 {
		return json.RawMessage("[]"), nil
	}
	return payload.Results.Bindings, nil
}

// validateQuery catches the syntax mistakes language models make most
// often, before wasting a round trip on a query the endpoint will reject.
func validateQuery(query string) *QueryError {
	if strings.Count(query, `"`)%2 != 0 {
		return &QueryError{Kind: "validation", Message: "Unbalanced double quotes in SPARQL query", Query: query}
	}
	if strings.Count(query, "'")%2 != 0 {
		return &QueryError{Kind: "validation", Message: "Unbalanced single quotes in SPARQL query", Query: query}
	}
	if strings.Contains(query, "FILTER(") && strings.Contains(query, "CONTAINS") {
		if strings.Contains(query, "CONTAINS(str(") && strings.Contains(query, `")`) {
			return &QueryError{
				Kind:    "validation",
				Message: "Possible quote issue in CONTAINS. Use single quotes inside double quotes or escape properly.",
				Query:   query,
			}
		}
	}
	return nil
}
