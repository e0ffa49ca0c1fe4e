package mcp

import (
	"encoding/json"
	"fmt"
)

type promptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

type promptDescriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Arguments   []promptArgument `json:"arguments,omitempty"`
}

var promptCatalog = []promptDescriptor{
	{
		Name:        "entity_search_template",
		Description: "Guided workflow for researching a Wikidata entity.",
		Arguments: []promptArgument{
			{Name: "entity_name", Description: "The entity to research", Required: true},
		},
	},
	{
		Name:        "property_search_template",
		Description: "Guided workflow for researching a Wikidata property.",
		Arguments: []promptArgument{
			{Name: "property_name", Description: "The property to research", Required: true},
		},
	},
	{
		Name:        "entity_relation_template",
		Description: "Guided workflow for finding relationships between two entities.",
		Arguments: []promptArgument{
			{Name: "entity1_name", Description: "The first entity", Required: true},
			{Name: "entity2_name", Description: "The second entity", Required: true},
		},
	},
	{
		Name:        "general_wikidata_guidance",
		Description: "General guidance for using Wikidata as a knowledge source.",
	},
}

const entitySearchTemplate = `You need to find accurate and up-to-date information about %[1]s using Wikidata as your primary source of truth.

IMPORTANT: Do NOT rely on your pre-trained knowledge about %[1]s, which may be outdated or incorrect. Instead, use ONLY the data returned from Wikidata tools.

Follow these steps precisely:

1. First, search for the entity ID using search_entity with the query "%[1]s".
   - If multiple entities are found, analyze which one most likely matches the user's intent.
   - If no entity is found, try alternative spellings or more specific terms.

2. Once you have the entity ID (e.g., Q12345), get the metadata using get_entity_metadata.
   - This will provide you with the official label and description.

3. Get all properties for this entity using get_entity_properties.
   - This will give you a comprehensive set of facts about the entity.

4. For more specific information, execute a SPARQL query using execute_sparql.
   - Use the common-properties resource for reference on property IDs.
   - Refer to the sparql-examples resource for query patterns.

5. When presenting information to the user, cite Wikidata as your source and include the entity ID.

Remember: If the information isn't found in Wikidata, clearly state that you don't have that information rather than falling back to potentially outdated knowledge.`

const propertySearchTemplate = `You need to find accurate information about the Wikidata property "%[1]s" using only Wikidata's data.

IMPORTANT: Do NOT rely on your pre-trained knowledge about properties, as Wikidata's property system is specific and may differ from your training data. Use ONLY the data returned from Wikidata tools.

Follow these steps precisely:

1. First, search for the property ID using search_property with the query "%[1]s".
   - Property IDs in Wikidata always start with 'P' followed by numbers (e.g., P31 for 'instance of').
   - If no property is found, try alternative terms or check the common-properties resource.

2. Once you have the property ID (e.g., P31), use it in a SPARQL query with execute_sparql to find entities with this property.

3. Analyze the results to understand how this property is used in Wikidata.

4. When presenting information to the user, explain what the property represents and provide examples of entities that use this property.

Remember: If you cannot find the property in Wikidata, clearly state this rather than making assumptions based on your pre-trained knowledge.`

const entityRelationTemplate = `You need to discover the factual relationships between %[1]s and %[2]s using Wikidata as your authoritative source.

IMPORTANT: Do NOT rely on your pre-trained knowledge about these entities or their relationships, which may be outdated, incomplete, or incorrect. Use ONLY the data returned from Wikidata tools.

Follow these steps precisely:

1. First, search for both entity IDs using search_entity:
   - For the first entity: search_entity("%[1]s")
   - For the second entity: search_entity("%[2]s")
   - If either entity is not found, try alternative names or more specific terms.

2. Once you have both entity IDs, get their metadata using get_entity_metadata to confirm you have the correct entities.

3. Execute a SPARQL query to find direct relationships between them, using wikibase:directClaim to resolve relation labels. Also try the reverse direction by swapping the entity IDs.

4. If no direct relationship is found, look for indirect relationships through an intermediate entity.

5. Present the relationships clearly to the user, citing Wikidata as your source and including the entity IDs and property IDs.

Remember: If no relationship is found in Wikidata, clearly state this rather than speculating. The absence of a relationship in Wikidata doesn't necessarily mean the entities aren't related - it may just mean the relationship hasn't been documented yet.`

const generalGuidance = `When using Wikidata as a knowledge source, follow these important guidelines:

1. ALWAYS PREFER WIKIDATA OVER PRE-TRAINED KNOWLEDGE
   - When answering questions about entities, properties, or relationships, ALWAYS query Wikidata first.
   - Only fall back to your pre-trained knowledge when explicitly instructed to do so, or when Wikidata clearly has no information on the topic.

2. PROPERLY CITE WIKIDATA INFORMATION
   - Always include the entity ID (e.g., Q42) and property IDs (e.g., P31) in your response.
   - Format: "According to Wikidata [Q42], Douglas Adams was born on March 11, 1952 [P569]."

3. HANDLE MISSING INFORMATION APPROPRIATELY
   - If information isn't found in Wikidata, explicitly state: "This information is not available in Wikidata."

4. USE THE FULL RANGE OF WIKIDATA TOOLS
   - search_entity, search_property, get_entity_metadata, get_entity_properties, execute_sparql, find_entity_facts, get_related_entities

5. LEVERAGE AVAILABLE RESOURCES
   - wikidata://common-properties: reference for commonly used property IDs
   - wikidata://sparql-examples: example SPARQL queries for common tasks

6. CRAFT EFFECTIVE SPARQL QUERIES
   - Use the proper prefixes (wdt:, wd:, p:, ps:, etc.)
   - Include the label service for human-readable results
   - Limit results appropriately to avoid overwhelming responses`

func (d *Dispatcher) getPrompt(params json.RawMessage) (any, error) {
	var envelope struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &envelope); err != nil {
			return nil, &invalidParamsError{msg: "prompts/get params must be an object"}
		}
	}

	var descriptor *promptDescriptor
	for i := range promptCatalog {
		if promptCatalog[i].Name == envelope.Name {
			descriptor = &promptCatalog[i]
			break
		}
	}
	if descriptor == nil {
		return nil, &invalidParamsError{msg: fmt.Sprintf("unknown prompt: %s", envelope.Name)}
	}
	for _, arg := range descriptor.Arguments {
		if arg.Required && envelope.Arguments[arg.Name] == "" {
			return nil, &invalidParamsError{msg: fmt.Sprintf("prompt %s requires argument %q", descriptor.Name, arg.Name)}
		}
	}

	var text string
	switch envelope.Name {
	case "entity_search_template":
		text = fmt.Sprintf(entitySearchTemplate, envelope.Arguments["entity_name"])
	case "property_search_template":
		text = fmt.Sprintf(propertySearchTemplate, envelope.Arguments["property_name"])
	case "entity_relation_template":
		text = fmt.Sprintf(entityRelationTemplate, envelope.Arguments["entity1_name"], envelope.Arguments["entity2_name"])
	case "general_wikidata_guidance":
		text = generalGuidance
	}

	return map[string]any{
		"description": descriptor.Description,
		"messages": []map[string]any{{
			"role":    "user",
			"content": map[string]any{"type": "text", "text": text},
		}},
	}, nil
}
