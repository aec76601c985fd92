package promptserver

import "github.com/mark3labs/mcp-go/mcp"

// toolSchemas declares the Prompt tool server's argument contract using
// mark3labs/mcp-go's mcp.NewTool/mcp.With*/mcp.Required builder idiom, the
// same declarative schema idiom dataserver.toolSchemas uses.
var toolSchemas = map[string]mcp.Tool{
	"load_orchestrator_prompt": mcp.NewTool("load_orchestrator_prompt",
		mcp.WithDescription("Load the fixed orchestrator system prompt."),
	),
	"load_prompt": mcp.NewTool("load_prompt",
		mcp.WithDescription("Load a named prompt file from the prompt directory."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Prompt filename, no path separators")),
	),
}

// validateAgainstSchema checks that every field mcp.Tool.InputSchema marks
// required is present in arguments.
func validateAgainstSchema(toolName string, arguments map[string]any) *string {
	schema, ok := toolSchemas[toolName]
	if !ok {
		return nil
	}
	for _, field := range schema.InputSchema.Required {
		if _, present := arguments[field]; !present {
			msg := field + " is required"
			return &msg
		}
	}
	return nil
}
