package logging

import "context"

type debugLogKeyType int

const debugLogKey debugLogKeyType = iota

// EnableDebugMode returns a new context with debug logging state attached. Loggers given this
// context emit their `CDebug*` lines regardless of their configured level.
func EnableDebugMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, debugLogKey, true)
}

// IsDebugMode returns whether the input context has debug logging enabled.
func IsDebugMode(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	enabled, _ := ctx.Value(debugLogKey).(bool)
	return enabled
}

// CopyDebugMode returns a fresh background context carrying the debug mode of ctx. Use it for work
// that outlives the request that started it.
func CopyDebugMode(ctx context.Context) context.Context {
	if IsDebugMode(ctx) {
		return EnableDebugMode(context.Background())
	}
	return context.Background()
}
