// Package adapters wraps the external diagnostic backends behind a uniform
// tool interface. Each adapter owns its own transport, timeout and error
// translation; callers treat every adapter identically and never see
// transport details.
package adapters

import (
	"context"

	"github.com/ftthdiag/diagchat/models"
)

// Adapter is one callable tool. Invoke returns the backend's answer as a
// string for the model to interpret; transport failures come back as an
// error and are folded into the event stream by the caller, never treated
// as fatal.
type Adapter interface {
	Declaration() models.FunctionDeclaration
	Invoke(ctx context.Context, args map[string]interface{}) (string, error)
}

// Map is the adapter set handed to a generation run, keyed by tool name.
type Map map[string]Adapter

// Declarations returns the function declarations of every adapter in the
// map, for the model request.
func (m Map) Declarations() []models.FunctionDeclaration {
	decls := make([]models.FunctionDeclaration, 0, len(m))
	for _, a := range m {
		decls = append(decls, a.Declaration())
	}
	return decls
}

// stringArg extracts a required string argument from the model-provided
// args, tolerating the fuzziness of model output (missing key, wrong type).
func stringArg(args map[string]interface{}, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
