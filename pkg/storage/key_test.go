package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHandle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"@alice", "alice"},
		{"@@alice", "alice"},
		{"alice", "alice"},
		{"  @alice  ", "alice"},
		{"@al ice!", "alice"},
		{"@alice_b-2", "alice_b-2"},
		{"@", ""},
		{"", ""},
		{"날개", "날개"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SanitizeHandle(c.in), "in=%q", c.in)
	}
}

func TestPerformanceKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	key := PerformanceKey("@alice", at, ".webm")
	assert.Equal(t, "performances/alice_1700000000123.webm", key)

	// Empty or fully stripped handles fall back to "user".
	assert.Equal(t, "performances/user_1700000000123.webm", PerformanceKey("", at, ".webm"))
	assert.Equal(t, "performances/user_1700000000123.webm", PerformanceKey("@!", at, ".webm"))

	// Extension gets its dot when missing.
	assert.Equal(t, "performances/alice_1700000000123.webm", PerformanceKey("alice", at, "webm"))
}

func TestPerformanceKeyUniqueAcrossTime(t *testing.T) {
	base := time.UnixMilli(1700000000000)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		key := PerformanceKey("@alice", base.Add(time.Duration(i)*time.Millisecond), ".webm")
		assert.False(t, seen[key], fmt.Sprintf("duplicate key %s", key))
		seen[key] = true
	}
}
