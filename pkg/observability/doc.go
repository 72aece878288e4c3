/*
Package observability turns engine lifecycle events into structured logs and
Prometheus metrics.

Both are exposed as domain.LifecycleHooks so they can be chained and passed to
the engine with runtime.WithLifecycleHooks.
*/
package observability
