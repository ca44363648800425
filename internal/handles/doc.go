// Package handles implements the TTL-bounded result store behind response
// handles.
//
// When a tool response exceeds the configured size threshold, the full
// payload is stored here under an opaque, expiring handle string
// ({ns}:{entity}:{unixMillis}:{hash8}) and only a bounded summary is
// returned inline. The caller can later exchange the handle for the full
// payload until the TTL elapses.
//
// Storage is pluggable through the Backend interface: a redis backend with
// native key TTLs for remote deployments, and an in-memory backend for stdio
// mode and tests. All keys are partitioned by a logical instance identifier
// so handles never leak across tenants.
//
// Expiry is enforced three ways: the backend's native TTL, a lazy check on
// every retrieve, and a periodic background sweep.
package handles
