package jobnimbus

import "context"

// Fake is a test double for Client. Unset function fields return zero values,
// so tests only wire the calls they exercise.
type Fake struct {
	ListJobsFunc      func(ctx context.Context, instance string, opts ListOptions) (*ListResult, error)
	GetJobFunc        func(ctx context.Context, instance, jnid string) (map[string]any, error)
	CreateJobFunc     func(ctx context.Context, instance string, payload map[string]any) (map[string]any, error)
	ListEstimatesFunc func(ctx context.Context, instance string, opts ListOptions) (*ListResult, error)
	GetEstimateFunc   func(ctx context.Context, instance, jnid string) (map[string]any, error)
	InstanceNames     []string
}

var _ Client = (*Fake)(nil)

func (f *Fake) ListJobs(ctx context.Context, instance string, opts ListOptions) (*ListResult, error) {
	if f.ListJobsFunc == nil {
		return &ListResult{}, nil
	}
	return f.ListJobsFunc(ctx, instance, opts)
}

func (f *Fake) GetJob(ctx context.Context, instance, jnid string) (map[string]any, error) {
	if f.GetJobFunc == nil {
		return nil, ErrNotFound
	}
	return f.GetJobFunc(ctx, instance, jnid)
}

func (f *Fake) CreateJob(ctx context.Context, instance string, payload map[string]any) (map[string]any, error) {
	if f.CreateJobFunc == nil {
		return payload, nil
	}
	return f.CreateJobFunc(ctx, instance, payload)
}

func (f *Fake) ListEstimates(ctx context.Context, instance string, opts ListOptions) (*ListResult, error) {
	if f.ListEstimatesFunc == nil {
		return &ListResult{}, nil
	}
	return f.ListEstimatesFunc(ctx, instance, opts)
}

func (f *Fake) GetEstimate(ctx context.Context, instance, jnid string) (map[string]any, error) {
	if f.GetEstimateFunc == nil {
		return nil, ErrNotFound
	}
	return f.GetEstimateFunc(ctx, instance, jnid)
}

func (f *Fake) Instances() []string {
	if f.InstanceNames == nil {
		return []string{"default"}
	}
	return f.InstanceNames
}
