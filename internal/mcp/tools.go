package mcp

type toolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func objectSchema(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var toolCatalog = []toolDescriptor{
	{
		Name:        "search_entity",
		Description: "Search for a Wikidata entity ID by name (e.g. \"Albert Einstein\" -> Q937).",
		InputSchema: objectSchema([]string{"query"}, map[string]any{
			"query": map[string]any{"type": "string", "description": "The name of the entity to search for"},
		}),
	},
	{
		Name:        "search_property",
		Description: "Search for a Wikidata property ID by name (e.g. \"instance of\" -> P31).",
		InputSchema: objectSchema([]string{"query"}, map[string]any{
			"query": map[string]any{"type": "string", "description": "The name of the property to search for"},
		}),
	},
	{
		Name:        "get_entity_metadata",
		Description: "Get the English label and description for a Wikidata entity.",
		InputSchema: objectSchema([]string{"entity_id"}, map[string]any{
			"entity_id": map[string]any{"type": "string", "description": "The Wikidata entity ID (e.g. Q937)"},
		}),
	},
	{
		Name:        "get_entity_properties",
		Description: "Get property/value pairs for a Wikidata entity.",
		InputSchema: objectSchema([]string{"entity_id"}, map[string]any{
			"entity_id": map[string]any{"type": "string", "description": "The Wikidata entity ID (e.g. Q937)"},
		}),
	},
	{
		Name:        "execute_sparql",
		Description: "Execute a SPARQL query against Wikidata. Common prefixes (wd:, wdt:, p:, ps:) are added automatically when missing.",
		InputSchema: objectSchema([]string{"sparql_query"}, map[string]any{
			"sparql_query": map[string]any{"type": "string", "description": "The SPARQL query to execute"},
		}),
	},
	{
		Name:        "find_entity_facts",
		Description: "Search for an entity and return its facts, optionally filtered by a property name.",
		InputSchema: objectSchema([]string{"entity_name"}, map[string]any{
			"entity_name":   map[string]any{"type": "string", "description": "The name of the entity to search for"},
			"property_name": map[string]any{"type": "string", "description": "Optional property name to filter by"},
		}),
	},
	{
		Name:        "get_related_entities",
		Description: "Find entities related to the given entity, optionally by a specific relation property.",
		InputSchema: objectSchema([]string{"entity_id"}, map[string]any{
			"entity_id":         map[string]any{"type": "string", "description": "The Wikidata entity ID (e.g. Q937)"},
			"relation_property": map[string]any{"type": "string", "description": "Optional property ID for the relation (e.g. P31)"},
			"limit":             map[string]any{"type": "integer", "description": "Maximum number of results", "default": 10},
		}),
	},
}
