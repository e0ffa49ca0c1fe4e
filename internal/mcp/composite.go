package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ebaenamar/wikidata-mcp-mirror/internal/wikidata"
)

// findEntityFacts chains entity search, metadata lookup, optional property
// search and a fact query into one combined result. Each stage degrades to
// an error record rather than failing the call.
func (d *Dispatcher) findEntityFacts(ctx context.Context, args map[string]any) (any, error) {
	entityName, err := stringArg(args, "entity_name")
	if err != nil {
		return nil, err
	}
	propertyName := optionalStringArg(args, "property_name")

	entityID, serr := d.backend.SearchEntity(ctx, entityName)
	if errors.Is(serr, wikidata.ErrNoEntityFound) {
		return map[string]any{"error": fmt.Sprintf("No entity found for '%s'", entityName)}, nil
	}
	if serr != nil {
		return map[string]any{"error": fmt.Sprintf("Error searching for entity: %s", serr)}, nil
	}

	var entity any
	md, merr := d.backend.EntityMetadata(ctx, entityID)
	if merr != nil {
		entity = map[string]any{"error": fmt.Sprintf("Error retrieving entity metadata: %s", merr)}
	} else {
		entity = md
	}

	propertyID := ""
	if propertyName != "" {
		id, perr := d.backend.SearchProperty(ctx, propertyName)
		if errors.Is(perr, wikidata.ErrNoPropertyFound) {
			return map[string]any{
				"entity": entity,
				"error":  fmt.Sprintf("No property found for '%s'", propertyName),
			}, nil
		}
		if perr != nil {
			return map[string]any{
				"entity": entity,
				"error":  fmt.Sprintf("Error searching for property: %s", perr),
			}, nil
		}
		propertyID = id
	}

	var query string
	if propertyID != "" {
		query = fmt.Sprintf(`
SELECT ?value ?valueLabel
WHERE {
  wd:%s wdt:%s ?value.
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
`, entityID, propertyID)
	} else {
		query = fmt.Sprintf(`
SELECT ?property ?propertyLabel ?value ?valueLabel
WHERE {
  wd:%s ?p ?statement.
  ?statement ?ps ?value.

  ?property wikibase:claim ?p.
  ?property wikibase:statementProperty ?ps.

  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
LIMIT 10
`, entityID)
	}

	var facts any
	rows, qerr := d.backend.ExecuteSPARQL(ctx, query)
	if qerr != nil {
		facts = sparqlErrorRecord(qerr)
	} else {
		facts = rows
	}

	var property any
	if propertyID != "" {
		property = map[string]any{"id": propertyID, "name": propertyName}
	}
	return map[string]any{
		"entity":   entity,
		"property": property,
		"facts":    facts,
	}, nil
}

// relatedEntities finds entities connected to the given one, optionally
// restricted to a single relation property.
func (d *Dispatcher) relatedEntities(ctx context.Context, args map[string]any) (any, error) {
	entityID, err := stringArg(args, "entity_id")
	if err != nil {
		return nil, err
	}
	relation := optionalStringArg(args, "relation_property")
	limit := intArg(args, "limit", 10)

	var query string
	if relation != "" {
		query = fmt.Sprintf(`
SELECT ?related ?relatedLabel
WHERE {
  wd:%s wdt:%s ?related.
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
LIMIT %d
`, entityID, relation, limit)
	} else {
		query = fmt.Sprintf(`
SELECT ?relation ?relationLabel ?related ?relatedLabel
WHERE {
  wd:%s ?p ?related.
  ?property wikibase:directClaim ?p.
  BIND(?property as ?relation)

  FILTER(STRSTARTS(STR(?related), "http://www.wikidata.org/entity/"))

  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
LIMIT %d
`, entityID, limit)
	}

	rows, qerr := d.backend.ExecuteSPARQL(ctx, query)
	if qerr != nil {
		return sparqlErrorRecord(qerr), nil
	}
	var result json.RawMessage = rows
	return result, nil
}
