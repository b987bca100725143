package tools

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ecommerce-checkout/checkout-services/internal/shared/apperr"
)

// Schema is the JSON-Schema-like input contract advertised by a tool.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
}

// Handler executes a tool call. A returned error is folded into the result
// map; it never escapes the registry boundary.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

type Tool struct {
	Name        string
	Description string
	InputSchema Schema
	Handler     Handler
}

// Definition is the discovery projection of a registered tool.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Registry is a closed dispatch table from tool name to handler. Tools are
// registered once at startup; Call never raises, it reports failures inside
// the result map.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	log   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools: make(map[string]Tool),
		log:   logger,
	}
}

func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, Definition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Call dispatches a tool by name. Unknown names yield a bare error map;
// every other failure yields {"success": false, "error": ...}.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (result map[string]any) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return map[string]any{"error": fmt.Sprintf("Unknown tool: %s", name)}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("tool_handler_panic",
				zap.String("tool", name),
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())),
			)
			result = failure(fmt.Errorf("tool %s: internal error", name))
		}
	}()

	if args == nil {
		args = map[string]any{}
	}

	if err := validate(tool.InputSchema, args); err != nil {
		return failure(err)
	}

	out, err := tool.Handler(ctx, args)
	if err != nil {
		r.log.Warn("tool_call_failed",
			zap.String("tool", name),
			zap.String("kind", apperr.Kind(err)),
			zap.Error(err),
		)
		return failure(err)
	}

	if out == nil {
		out = map[string]any{}
	}
	// Handlers may pre-set success=false for business outcomes that are
	// not errors, e.g. a gateway decline.
	if _, ok := out["success"]; !ok {
		out["success"] = true
	}
	return out
}

func failure(err error) map[string]any {
	return map[string]any{
		"success": false,
		"error":   err.Error(),
	}
}

// validate checks required-ness and primitive types against the declared
// schema so handlers never see a malformed argument bag.
func validate(schema Schema, args map[string]any) error {
	for _, key := range schema.Required {
		if _, ok := args[key]; !ok {
			return fmt.Errorf("missing required argument %q: %w", key, apperr.ErrInvalidInput)
		}
	}

	for key, prop := range schema.Properties {
		value, ok := args[key]
		if !ok || value == nil {
			continue
		}
		if err := checkType(key, prop, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(key string, prop Property, value any) error {
	mismatch := func() error {
		return fmt.Errorf("argument %q must be of type %s: %w", key, prop.Type, apperr.ErrInvalidInput)
	}

	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return mismatch()
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, s) {
			return fmt.Errorf("argument %q must be one of %v: %w", key, prop.Enum, apperr.ErrInvalidInput)
		}

	case "number":
		f, ok := asFloat(value)
		if !ok {
			return mismatch()
		}
		if prop.Minimum != nil && f < *prop.Minimum {
			return fmt.Errorf("argument %q must be >= %v: %w", key, *prop.Minimum, apperr.ErrInvalidInput)
		}

	case "integer":
		f, ok := asFloat(value)
		if !ok || f != math.Trunc(f) {
			return mismatch()
		}
		if prop.Minimum != nil && f < *prop.Minimum {
			return fmt.Errorf("argument %q must be >= %v: %w", key, *prop.Minimum, apperr.ErrInvalidInput)
		}

	case "boolean":
		if _, ok := value.(bool); !ok {
			return mismatch()
		}

	case "object":
		if _, ok := value.(map[string]any); !ok {
			return mismatch()
		}

	case "array":
		if _, ok := value.([]any); !ok {
			return mismatch()
		}
	}
	return nil
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// Min is a convenience for schema minimum constraints.
func Min(v float64) *float64 { return &v }
