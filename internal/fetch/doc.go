// Package fetch downloads pronunciation clips over HTTP. Every request is
// bounded by a short fixed timeout, honours cancellation through its context
// and is guarded by a per-host circuit breaker so that a dead source fails fast.
package fetch
