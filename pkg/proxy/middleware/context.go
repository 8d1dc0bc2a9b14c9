package middleware

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// StartTimeKey stores the request start time for latency calculation. The
// request ID is carried by the logging package so every log line of the
// request picks it up.
const StartTimeKey contextKey = "start_time"
