package mcp

import (
	"encoding/json"
	"fmt"
)

type resourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

var resourceCatalog = []resourceDescriptor{
	{
		URI:         "wikidata://common-properties",
		Name:        "Common Wikidata properties",
		Description: "Commonly used Wikidata property IDs and their meanings.",
		MimeType:    "application/json",
	},
	{
		URI:         "wikidata://sparql-examples",
		Name:        "SPARQL examples",
		Description: "Example SPARQL queries for common Wikidata tasks.",
		MimeType:    "application/json",
	},
}

var commonProperties = map[string]any{
	"properties": map[string]string{
		"P31":   "instance of",
		"P279":  "subclass of",
		"P569":  "date of birth",
		"P570":  "date of death",
		"P21":   "sex or gender",
		"P27":   "country of citizenship",
		"P106":  "occupation",
		"P17":   "country",
		"P131":  "located in administrative entity",
		"P50":   "author",
		"P57":   "director",
		"P136":  "genre",
		"P577":  "publication date",
		"P580":  "start time",
		"P582":  "end time",
		"P361":  "part of",
		"P527":  "has part",
		"P39":   "position held",
		"P800":  "notable work",
		"P1412": "languages spoken, written or signed",
	},
	"description": "Common Wikidata properties that can be used to query for specific information about entities.",
}

var sparqlExamples = map[string]any{
	"examples": []map[string]string{
		{
			"name": "Basic entity information",
			"query": `SELECT ?property ?propertyLabel ?value ?valueLabel
WHERE {
  wd:Q937 ?p ?statement.
  ?statement ?ps ?value.

  ?property wikibase:claim ?p.
  ?property wikibase:statementProperty ?ps.

  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
LIMIT 10`,
		},
		{
			"name": "Find all scientists",
			"query": `SELECT ?scientist ?scientistLabel
WHERE {
  ?scientist wdt:P106 wd:Q901.
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
LIMIT 20`,
		},
		{
			"name": "Find books by an author",
			"query": `SELECT ?book ?bookLabel
WHERE {
  ?book wdt:P50 wd:Q535.
  ?book wdt:P31/wdt:P279* wd:Q571.
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}`,
		},
		{
			"name": "Find capitals of countries",
			"query": `SELECT ?country ?countryLabel ?capital ?capitalLabel
WHERE {
  ?country wdt:P31 wd:Q6256.
  ?country wdt:P36 ?capital.
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}`,
		},
		{
			"name": "Find mountains higher than 8000m",
			"query": `SELECT ?mountain ?mountainLabel ?height
WHERE {
  ?mountain wdt:P31/wdt:P279* wd:Q8502.
  ?mountain wdt:P2044 ?height.
  FILTER(?height > 8000)
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
ORDER BY DESC(?height)`,
		},
	},
	"description": "Example SPARQL queries for common Wikidata tasks. These can be used as templates for more specific queries.",
}

func (d *Dispatcher) readResource(params json.RawMessage) (any, error) {
	var envelope struct {
		URI string `json:"uri"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &envelope); err != nil {
			return nil, &invalidParamsError{msg: "resources/read params must be an object"}
		}
	}
	var body any
	switch envelope.URI {
	case "wikidata://common-properties":
		body = commonProperties
	case "wikidata://sparql-examples":
		body = sparqlExamples
	default:
		return nil, &invalidParamsError{msg: fmt.Sprintf("unknown resource: %s", envelope.URI)}
	}
	text, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"contents": []map[string]any{{
			"uri":      envelope.URI,
			"mimeType": "application/json",
			"text":     string(text),
		}},
	}, nil
}
