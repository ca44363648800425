package jobnimbus

import (
	"context"
	"errors"
	"fmt"
)

// DefaultBaseURL is the production JobNimbus REST API root.
const DefaultBaseURL = "https://app.jobnimbus.com/api1"

// Sentinel errors for upstream failures the tool layer branches on.
var (
	// ErrUnknownInstance means no API key is configured for the requested
	// instance name.
	ErrUnknownInstance = errors.New("unknown jobnimbus instance")

	// ErrNotFound means the upstream returned 404 for the record.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized means the API key was rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError carries a non-2xx upstream response that is not covered by a
// sentinel error.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jobnimbus api returned %d: %s", e.StatusCode, e.Body)
}

// ListOptions controls upstream pagination for list endpoints.
type ListOptions struct {
	// Size is the page size requested from the API. Zero means the API default.
	Size int

	// From is the offset of the first record.
	From int
}

// ListResult is the decoded shape of a JobNimbus list response.
type ListResult struct {
	Count   int   `json:"count"`
	Results []any `json:"results"`
}

// Client defines the upstream JobNimbus operations the tools need.
// Every call names the instance whose API key authenticates it; multiple
// instances allow one server to front several JobNimbus accounts.
type Client interface {
	// ListJobs retrieves a page of jobs.
	ListJobs(ctx context.Context, instance string, opts ListOptions) (*ListResult, error)

	// GetJob retrieves a single job by jnid.
	GetJob(ctx context.Context, instance, jnid string) (map[string]any, error)

	// CreateJob creates a job from the given payload and returns the created
	// record.
	CreateJob(ctx context.Context, instance string, payload map[string]any) (map[string]any, error)

	// ListEstimates retrieves a page of estimates.
	ListEstimates(ctx context.Context, instance string, opts ListOptions) (*ListResult, error)

	// GetEstimate retrieves a single estimate by jnid, including its line
	// items and related collections.
	GetEstimate(ctx context.Context, instance, jnid string) (map[string]any, error)

	// Instances lists the configured instance names.
	Instances() []string
}
