package llm

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	llmContextKey contextKey = "llm_context"
)

// WithContext returns a context carrying values that clients attach to their request logs.
// The values are merged with any existing ones.
func WithContext(ctx context.Context, values map[string]string) context.Context {
	existing := GetContext(ctx)
	if existing == nil {
		existing = make(map[string]string)
	}
	for k, v := range values {
		existing[k] = v
	}
	return context.WithValue(ctx, llmContextKey, existing)
}

// GetContext returns a copy of the log values attached to ctx, if any.
func GetContext(ctx context.Context) map[string]string {
	if c, ok := ctx.Value(llmContextKey).(map[string]string); ok {
		copied := make(map[string]string, len(c))
		for k, v := range c {
			copied[k] = v
		}
		return copied
	}
	return nil
}

// WithGenerationContext tags requests made for one project's generation.
func WithGenerationContext(ctx context.Context, projectID uuid.UUID, generationType string) context.Context {
	values := map[string]string{
		"project_id": projectID.String(),
	}
	if generationType != "" {
		values["generation_type"] = generationType
	}
	return WithContext(ctx, values)
}

func contextFields(ctx context.Context) []zap.Field {
	values := GetContext(ctx)
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.String(k, values[k]))
	}
	return fields
}
