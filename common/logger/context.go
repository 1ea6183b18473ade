package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Schedulers and the worker enrich the context once per unit of
// work (event, work item, user) and every log line below picks the fields up.
type LogFields struct {
	EventID    *string // Outbox event ID
	WorkItemID *int64  // Work item ID
	UserID     *int64  // User the unit of work concerns
	ProblemID  *string // Problem aggregate ID
	EventType  *string // Outbox event type
	Job        string  // Scheduler job name (e.g. "outbox-drain")
	Component  string  // Component name (e.g. "pipeline.worker")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.EventID != nil {
		result.EventID = next.EventID
	}
	if next.WorkItemID != nil {
		result.WorkItemID = next.WorkItemID
	}
	if next.UserID != nil {
		result.UserID = next.UserID
	}
	if next.ProblemID != nil {
		result.ProblemID = next.ProblemID
	}
	if next.EventType != nil {
		result.EventType = next.EventType
	}
	if next.Job != "" {
		result.Job = next.Job
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{UserID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Used when persisting handler errors into last_error.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
