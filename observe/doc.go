// Package observe provides telemetry for resilience policy invocations:
// OpenTelemetry tracing and metrics plus structured logging. Policies never
// log or record metrics themselves; callers compose a Middleware into their
// policy chain where telemetry is wanted.
package observe
