package openai

import (
	"github.com/aria-vt/aria-core/core/agent"
	"github.com/invopop/jsonschema"
	"github.com/jinzhu/copier"
)

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

func toWireTools(definitions []agent.ToolDefinition) []tool {
	reflector := jsonschema.Reflector{DoNotReference: true}

	var tools []tool
	for _, definition := range definitions {
		var fn toolFunction
		if err := copier.Copy(&fn, &definition); err != nil {
			logger.Warn("failed to map tool definition", "tool", definition.Name, "error", err)
			continue
		}
		if definition.Parameters != nil {
			fn.Parameters = reflector.Reflect(definition.Parameters)
		}
		tools = append(tools, tool{Type: "function", Function: fn})
	}
	return tools
}
