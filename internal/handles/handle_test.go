package handles

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	at := time.UnixMilli(1729012345678)
	handle := generateAt("jobs", map[string]any{"jnid": "job1"}, at)

	require.True(t, Valid(handle), "generated handle must validate: %s", handle)
	assert.Contains(t, handle, "jn:jobs:1729012345678:")
	assert.Len(t, handle, len("jn:jobs:1729012345678:")+8)
}

func TestGenerate_ContentDerived(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	a := generateAt("jobs", map[string]any{"jnid": "a"}, at)
	b := generateAt("jobs", map[string]any{"jnid": "b"}, at)
	same := generateAt("jobs", map[string]any{"jnid": "a"}, at)

	assert.NotEqual(t, a, b, "different payloads should hash differently")
	assert.Equal(t, a, same, "identical payload and timestamp must be deterministic")
}

func TestGenerate_TimestampIsPartOfIdentity(t *testing.T) {
	data := map[string]any{"jnid": "a"}
	a := generateAt("jobs", data, time.UnixMilli(1700000000000))
	b := generateAt("jobs", data, time.UnixMilli(1700000000001))
	assert.NotEqual(t, a, b, "identical data at different timestamps must yield different handles")
}

func TestGenerate_UnserializableData(t *testing.T) {
	handle := generateAt("jobs", make(chan int), time.UnixMilli(1700000000000))
	assert.True(t, Valid(handle), "handle generation must not fail on unserializable data")
	assert.Contains(t, handle, ":00000000")
}

func TestValid(t *testing.T) {
	valid := []string{
		"jn:jobs:1729012345678:a1b2c3d4",
		"jn:estimate_items:1:deadbeef",
	}
	for _, h := range valid {
		assert.True(t, Valid(h), h)
	}

	invalid := []string{
		"",
		"jobs:1729012345678:a1b2c3d4",        // missing namespace
		"xx:jobs:1729012345678:a1b2c3d4",     // wrong namespace
		"jn:jobs:1729012345678",              // missing hash
		"jn:jobs:notatime:a1b2c3d4",          // non-numeric timestamp
		"jn:jobs:1729012345678:a1b2c3",       // short hash
		"jn:jobs:1729012345678:a1b2c3zz",     // non-hex hash
		"jn::1729012345678:a1b2c3d4",         // empty entity
		"jn:jobs:1729012345678:a1b2c3d4:x",   // extra part
	}
	for _, h := range invalid {
		assert.False(t, Valid(h), h)
	}
}

func TestEntity(t *testing.T) {
	assert.Equal(t, "jobs", Entity("jn:jobs:1729012345678:a1b2c3d4"))
	assert.Equal(t, "", Entity("garbage"))
}

func TestGenerate_Now(t *testing.T) {
	before := time.Now().UnixMilli()
	handle := Generate("jobs", []any{map[string]any{"jnid": "job1"}})
	after := time.Now().UnixMilli()

	require.True(t, Valid(handle))
	parts := strings.Split(handle, ":")
	millis, err := strconv.ParseInt(parts[2], 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, millis, before)
	assert.LessOrEqual(t, millis, after)
}
