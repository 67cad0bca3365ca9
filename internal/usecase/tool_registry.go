package usecase

import (
	"context"
	"sort"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

// ToolHandler executes one named tool on behalf of the assistant.
// A returned error becomes an error marker in the tool result.
type ToolHandler interface {
	Name() string
	Definition() model.ToolDefinition
	Handle(ctx context.Context, exec model.ToolExecContext, args model.ToolArguments) (interface{}, error)
}

// ToolRegistry maps tool names to handlers.
type ToolRegistry struct {
	handlers map[string]ToolHandler
}

// NewToolRegistry registers the given handlers. A later handler replaces an earlier one of the same name.
func NewToolRegistry(handlers ...ToolHandler) *ToolRegistry {
	r := &ToolRegistry{handlers: make(map[string]ToolHandler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Name()] = h
	}
	return r
}

// Lookup returns the handler for name.
func (r *ToolRegistry) Lookup(name string) (ToolHandler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Definitions lists every registered tool, ordered by name.
func (r *ToolRegistry) Definitions() []model.ToolDefinition {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]model.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.handlers[name].Definition())
	}
	return defs
}

func functionTool(name, description string, properties map[string]interface{}, required ...string) model.ToolDefinition {
	params := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		params["required"] = required
	}
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}
