package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northpeak/mcp-jobnimbus/internal/handles"
	"github.com/northpeak/mcp-jobnimbus/internal/jobnimbus"
	"github.com/northpeak/mcp-jobnimbus/internal/output"
	"github.com/northpeak/mcp-jobnimbus/internal/server"
)

func newTestContext(t *testing.T, fake *jobnimbus.Fake, opts ...server.Option) *server.ServerContext {
	t.Helper()
	store := handles.NewStore(handles.NewMemoryBackend(), handles.Config{})

	all := append([]server.Option{
		server.WithClient(fake),
		server.WithStore(store),
	}, opts...)
	sc, err := server.NewServerContext(context.Background(), all...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func request(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// decodeEnvelope extracts and parses the envelope JSON from a tool result.
func decodeEnvelope(t *testing.T, result *mcp.CallToolResult) *output.Envelope {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError, "expected envelope result, got tool error: %v", result.Content)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])

	var env output.Envelope
	require.NoError(t, json.Unmarshal([]byte(text.Text), &env))
	return &env
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return text.Text
}

func jobRecords(n int) []any {
	rows := make([]any, n)
	for i := range rows {
		rows[i] = map[string]any{
			"jnid":        fmt.Sprintf("job%d", i),
			"number":      fmt.Sprintf("J-%04d", i),
			"name":        fmt.Sprintf("Roof replacement %d", i),
			"status_name": "In Progress",
			"description": "Full tear-off and replacement of the existing asphalt shingle roof including underlayment and flashing.",
			"address":     "123 Main St",
			"city":        "Denver",
			"state":       "CO",
		}
	}
	return rows
}

func TestGetJobs_SmallResultInline(t *testing.T) {
	fake := &jobnimbus.Fake{
		ListJobsFunc: func(ctx context.Context, instance string, opts jobnimbus.ListOptions) (*jobnimbus.ListResult, error) {
			return &jobnimbus.ListResult{Count: 3, Results: jobRecords(3)}, nil
		},
	}
	sc := newTestContext(t, fake)

	result, err := handleGetJobs(context.Background(), request(map[string]any{}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.Equal(t, output.StatusOK, env.Status)
	assert.Empty(t, env.ResultHandle)
	assert.Nil(t, env.PageInfo)
	rows, ok := env.Summary.([]any)
	require.True(t, ok)
	assert.Len(t, rows, 3)
	assert.Equal(t, "get_jobs", env.Metadata.ToolName)
	assert.Equal(t, "compact", env.Metadata.Verbosity)
}

func TestGetJobs_PassesPaginationAndInstance(t *testing.T) {
	var gotInstance string
	var gotOpts jobnimbus.ListOptions
	fake := &jobnimbus.Fake{
		ListJobsFunc: func(ctx context.Context, instance string, opts jobnimbus.ListOptions) (*jobnimbus.ListResult, error) {
			gotInstance = instance
			gotOpts = opts
			return &jobnimbus.ListResult{}, nil
		},
	}
	sc := newTestContext(t, fake, server.WithDefaultInstance("acme"))

	_, err := handleGetJobs(context.Background(), request(map[string]any{
		"size": float64(50),
		"from": float64(100),
	}), sc)
	require.NoError(t, err)

	assert.Equal(t, "acme", gotInstance)
	assert.Equal(t, jobnimbus.ListOptions{Size: 50, From: 100}, gotOpts)
}

func TestGetJobs_LargeResultDefersToHandle(t *testing.T) {
	fake := &jobnimbus.Fake{
		ListJobsFunc: func(ctx context.Context, instance string, opts jobnimbus.ListOptions) (*jobnimbus.ListResult, error) {
			return &jobnimbus.ListResult{Count: 200, Results: jobRecords(200)}, nil
		},
	}
	sc := newTestContext(t, fake)

	result, err := handleGetJobs(context.Background(), request(map[string]any{}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.Equal(t, output.StatusPartial, env.Status)
	assert.True(t, handles.Valid(env.ResultHandle), "handle %q", env.ResultHandle)
	require.NotNil(t, env.PageInfo)
	assert.Equal(t, 200, env.PageInfo.Total)
	assert.Equal(t, output.DefaultMaxRowsPerPage, env.PageInfo.Returned)
	assert.True(t, env.PageInfo.HasMore)
	assert.Positive(t, env.Metadata.ExpiresInSec)

	// The stored result holds the full processed data set.
	stored, err := sc.Store().Retrieve(context.Background(), env.ResultHandle, sc.ResolveInstance(""))
	require.NoError(t, err)
	rows, ok := stored.Data.([]any)
	require.True(t, ok)
	assert.Len(t, rows, 200)
}

func TestGetJobs_InvalidFieldPath(t *testing.T) {
	sc := newTestContext(t, &jobnimbus.Fake{})

	result, err := handleGetJobs(context.Background(), request(map[string]any{
		"fields": "jnid,bad path!",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, errorText(t, result), "invalid field path")
}

func TestGetJobs_UpstreamErrorEnvelope(t *testing.T) {
	fake := &jobnimbus.Fake{
		ListJobsFunc: func(ctx context.Context, instance string, opts jobnimbus.ListOptions) (*jobnimbus.ListResult, error) {
			return nil, jobnimbus.ErrUnknownInstance
		},
	}
	sc := newTestContext(t, fake)

	result, err := handleGetJobs(context.Background(), request(map[string]any{
		"instance": "nosuch",
	}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.Equal(t, output.StatusError, env.Status)
	assert.Nil(t, env.Summary)
	assert.Contains(t, env.Error, `unknown instance "nosuch"`)
}

func TestGetJob_ReturnsRecord(t *testing.T) {
	fake := &jobnimbus.Fake{
		GetJobFunc: func(ctx context.Context, instance, jnid string) (map[string]any, error) {
			return map[string]any{"jnid": jnid, "name": "Gutter repair"}, nil
		},
	}
	sc := newTestContext(t, fake)

	result, err := handleGetJob(context.Background(), request(map[string]any{
		"jnid": "job42",
	}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.Equal(t, output.StatusOK, env.Status)
	record, ok := env.Summary.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "job42", record["jnid"])
}

func TestGetJob_RequiresJnid(t *testing.T) {
	sc := newTestContext(t, &jobnimbus.Fake{})

	result, err := handleGetJob(context.Background(), request(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, errorText(t, result), "jnid parameter is required")
}

func TestGetJob_NotFound(t *testing.T) {
	fake := &jobnimbus.Fake{
		GetJobFunc: func(ctx context.Context, instance, jnid string) (map[string]any, error) {
			return nil, jobnimbus.ErrNotFound
		},
	}
	sc := newTestContext(t, fake)

	result, err := handleGetJob(context.Background(), request(map[string]any{
		"jnid": "missing",
	}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.Equal(t, output.StatusError, env.Status)
	assert.Contains(t, env.Error, "record not found")
}

func TestCreateJob_BlockedInNonDestructiveMode(t *testing.T) {
	sc := newTestContext(t, &jobnimbus.Fake{})

	result, err := handleCreateJob(context.Background(), request(map[string]any{
		"record": `{"name":"New job"}`,
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, errorText(t, result), "Create operations are not allowed in non-destructive mode")
}

func TestCreateJob_CreatesWhenAllowed(t *testing.T) {
	var gotPayload map[string]any
	fake := &jobnimbus.Fake{
		CreateJobFunc: func(ctx context.Context, instance string, payload map[string]any) (map[string]any, error) {
			gotPayload = payload
			created := map[string]any{"jnid": "new1"}
			for k, v := range payload {
				created[k] = v
			}
			return created, nil
		},
	}
	sc := newTestContext(t, fake, server.WithNonDestructiveMode(false))

	result, err := handleCreateJob(context.Background(), request(map[string]any{
		"record": `{"name":"New job","status_name":"Lead"}`,
	}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.Equal(t, output.StatusOK, env.Status)
	record, ok := env.Summary.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "new1", record["jnid"])
	assert.Equal(t, "New job", gotPayload["name"])
}

func TestCreateJob_RejectsMalformedRecord(t *testing.T) {
	sc := newTestContext(t, &jobnimbus.Fake{}, server.WithNonDestructiveMode(false))

	result, err := handleCreateJob(context.Background(), request(map[string]any{
		"record": "not json",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, errorText(t, result), "record must be a JSON object")
}
