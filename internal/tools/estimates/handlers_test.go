package estimates

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

func lineItems(n int) []any {
	items := make([]any, n)
	for i := range items {
		items[i] = map[string]any{
			"jnid":        fmt.Sprintf("item%d", i),
			"name":        fmt.Sprintf("Shingle bundle %d", i),
			"description": "30-year architectural shingle, weathered wood",
			"quantity":    float64(3),
			"price":       42.50,
			"uom":         "bundle",
		}
	}
	return items
}

func TestGetEstimates_SmallResultInline(t *testing.T) {
	fake := &jobnimbus.Fake{
		ListEstimatesFunc: func(ctx context.Context, instance string, opts jobnimbus.ListOptions) (*jobnimbus.ListResult, error) {
			return &jobnimbus.ListResult{
				Count: 2,
				Results: []any{
					map[string]any{"jnid": "est1", "number": "1001", "status_name": "Draft"},
					map[string]any{"jnid": "est2", "number": "1002", "status_name": "Approved"},
				},
			}, nil
		},
	}
	sc := newTestContext(t, fake)

	result, err := handleGetEstimates(context.Background(), request(map[string]any{}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.Equal(t, output.StatusOK, env.Status)
	assert.Empty(t, env.ResultHandle)
	rows, ok := env.Summary.([]any)
	require.True(t, ok)
	assert.Len(t, rows, 2)
	assert.Equal(t, "get_estimates", env.Metadata.ToolName)
}

func TestGetEstimate_SmallItemArrayStaysInline(t *testing.T) {
	fake := &jobnimbus.Fake{
		GetEstimateFunc: func(ctx context.Context, instance, jnid string) (map[string]any, error) {
			return map[string]any{
				"jnid":  jnid,
				"items": lineItems(4),
			}, nil
		},
	}
	sc := newTestContext(t, fake)

	result, err := handleGetEstimate(context.Background(), request(map[string]any{
		"jnid": "est1",
	}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.Equal(t, output.StatusOK, env.Status)
	record, ok := env.Summary.(map[string]any)
	require.True(t, ok)
	items, ok := record["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 4)
}

func TestGetEstimate_LargeItemArrayBecomesReference(t *testing.T) {
	fake := &jobnimbus.Fake{
		GetEstimateFunc: func(ctx context.Context, instance, jnid string) (map[string]any, error) {
			return map[string]any{
				"jnid":  jnid,
				"name":  "Full roof replacement",
				"items": lineItems(80),
			}, nil
		},
	}
	sc := newTestContext(t, fake)

	result, err := handleGetEstimate(context.Background(), request(map[string]any{
		"jnid": "est1",
	}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	record, ok := env.Summary.(map[string]any)
	require.True(t, ok)
	ref, ok := record["items"].(map[string]any)
	require.True(t, ok, "items should be a lazy reference, got %T", record["items"])

	assert.Equal(t, "lazy_array", ref["_type"])
	assert.Equal(t, "estimate_items", ref["entity"])
	assert.Equal(t, "est1", ref["parent_id"])
	assert.Equal(t, float64(80), ref["count"])
	assert.Equal(t, "/api/estimate_items?parent_id=est1", ref["load_url"])

	handle, _ := ref["handle"].(string)
	require.True(t, handles.Valid(handle))

	preview, ok := ref["summary"].([]any)
	require.True(t, ok)
	assert.Len(t, preview, output.DefaultLazyPreviewCount)

	// The full item array is retrievable through the stored handle.
	stored, err := sc.Store().Retrieve(context.Background(), handle, sc.ResolveInstance(""))
	require.NoError(t, err)
	items, ok := stored.Data.([]any)
	require.True(t, ok)
	assert.Len(t, items, 80)
}

func TestGetEstimate_RequiresJnid(t *testing.T) {
	sc := newTestContext(t, &jobnimbus.Fake{})

	result, err := handleGetEstimate(context.Background(), request(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGetEstimate_NotFound(t *testing.T) {
	fake := &jobnimbus.Fake{
		GetEstimateFunc: func(ctx context.Context, instance, jnid string) (map[string]any, error) {
			return nil, jobnimbus.ErrNotFound
		},
	}
	sc := newTestContext(t, fake)

	result, err := handleGetEstimate(context.Background(), request(map[string]any{
		"jnid": "missing",
	}), sc)
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.Equal(t, output.StatusError, env.Status)
	assert.Contains(t, env.Error, "record not found")
}
