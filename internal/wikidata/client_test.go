package wikidata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubWikidata(t *testing.T) (*Client, *atomic.Int64) {
	t.Helper()
	var sparqlCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("action") {
		case "wbsearchentities":
			switch {
			case q.Get("search") == "Albert Einstein" && q.Get("type") == "item":
				_, _ = w.Write([]byte(`{"search":[{"id":"Q937"},{"id":"Q123"}]}`))
			case q.Get("search") == "instance of" && q.Get("type") == "property":
				_, _ = w.Write([]byte(`{"search":[{"id":"P31"}]}`))
			default:
				_, _ = w.Write([]byte(`{"search":[]}`))
			}
		case "wbgetentities":
			id := q.Get("ids")
			if id == "Q937" {
				_, _ = w.Write([]byte(`{"entities":{"Q937":{"labels":{"en":{"value":"Albert Einstein"}},"descriptions":{"en":{"value":"German-born theoretical physicist"}}}}}`))
				return
			}
			_, _ = w.Write([]byte(`{"entities":{"` + id + `":{"missing":""}}}`))
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/sparql", func(w http.ResponseWriter, r *http.Request) {
		sparqlCalls.Add(1)
		query := r.URL.Query().Get("query")
		if strings.Contains(query, "BROKEN") {
			http.Error(w, "MalformedQueryException", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"results":{"bindings":[{"property":{"type":"uri","value":"P31"},"value":{"type":"literal","value":"human"}}]}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/w/api.php", srv.URL+"/sparql", nil), &sparqlCalls
}

func TestSearchEntity(t *testing.T) {
	c, _ := stubWikidata(t)

	id, err := c.SearchEntity(context.Background(), "Albert Einstein")
	require.NoError(t, err)
	assert.Equal(t, "Q937", id)

	_, err = c.SearchEntity(context.Background(), "no-such-thing-xyz")
	assert.ErrorIs(t, err, ErrNoEntityFound)
}

func TestSearchProperty(t *testing.T) {
	c, _ := stubWikidata(t)

	id, err := c.SearchProperty(context.Background(), "instance of")
	require.NoError(t, err)
	assert.Equal(t, "P31", id)

	_, err = c.SearchProperty(context.Background(), "no-such-property")
	assert.ErrorIs(t, err, ErrNoPropertyFound)
}

func TestEntityMetadata(t *testing.T) {
	c, _ := stubWikidata(t)

	md, err := c.EntityMetadata(context.Background(), "Q937")
	require.NoError(t, err)
	assert.Equal(t, Metadata{ID: "Q937", Label: "Albert Einstein", Description: "German-born theoretical physicist"}, md)

	_, err = c.EntityMetadata(context.Background(), "Q999999999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestEntityProperties(t *testing.T) {
	c, _ := stubWikidata(t)

	raw, err := c.EntityProperties(context.Background(), "Q937")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(raw, &rows))
	assert.Len(t, rows, 1)
}

func TestExecuteSPARQLAddsPrefixes(t *testing.T) {
	var captured string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{"results":{"bindings":[]}}`))
	}))
	defer srv.Close()
	c := NewClient("", srv.URL, nil)

	_, err := c.ExecuteSPARQL(context.Background(), "SELECT ?x WHERE { ?x wdt:P31 wd:Q5. } LIMIT 1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(captured, "PREFIX wd:"), "default prefixes should be prepended")

	_, err = c.ExecuteSPARQL(context.Background(), "PREFIX wd: <http://www.wikidata.org/entity/>\nSELECT ?x WHERE { ?x wdt:P31 wd:Q5. }")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(captured, "PREFIX wd:"))
	assert.Equal(t, 1, strings.Count(captured, "PREFIX wd:"), "existing prefixes must not be duplicated")
}

func TestExecuteSPARQLValidatesLocally(t *testing.T) {
	c, calls := stubWikidata(t)

	_, err := c.ExecuteSPARQL(context.Background(), `SELECT ?x WHERE { ?x rdfs:label "Einstein }`)
	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "validation", qerr.Kind)
	assert.Contains(t, qerr.Message, "Unbalanced double quotes")
	assert.Equal(t, int64(0), calls.Load(), "validation failures must not hit the network")

	_, err = c.ExecuteSPARQL(context.Background(), `SELECT ?x WHERE { ?x rdfs:label 'Einstein }`)
	require.True(t, errors.As(err, &qerr))
	assert.Contains(t, qerr.Message, "Unbalanced single quotes")
	assert.Equal(t, int64(0), calls.Load())
}

func TestExecuteSPARQLRemoteError(t *testing.T) {
	c, _ := stubWikidata(t)

	_, err := c.ExecuteSPARQL(context.Background(), "SELECT ?x WHERE { BROKEN }")
	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "http", qerr.Kind)
	assert.Contains(t, qerr.Query, "BROKEN", "error record carries the original query text")
}

func TestExecuteSPARQLResults(t *testing.T) {
	c, _ := stubWikidata(t)

	raw, err := c.ExecuteSPARQL(context.Background(), "SELECT ?x WHERE { ?x wdt:P31 wd:Q5. }")
	require.NoError(t, err)

	var rows []map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "P31", rows[0]["property"]["value"])
}
