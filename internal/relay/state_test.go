package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrafficStateRateLimit(t *testing.T) {
	s := NewTrafficState()

	now := time.Now()
	s.now = func() time.Time { return now }

	// Пустое состояние не лимитирует
	assert.False(t, s.RateLimited("g1", "u1", 3*time.Second))

	s.Record("g1", "u1", "hello")

	assert.True(t, s.RateLimited("g1", "u1", 3*time.Second))

	now = now.Add(2 * time.Second)
	assert.True(t, s.RateLimited("g1", "u1", 3*time.Second))

	now = now.Add(time.Second)
	assert.False(t, s.RateLimited("g1", "u1", 3*time.Second))

	// Нулевое окно выключает лимит
	assert.False(t, s.RateLimited("g1", "u1", 0))
}

func TestTrafficStateKeyedByGuildAndUser(t *testing.T) {
	s := NewTrafficState()

	now := time.Now()
	s.now = func() time.Time { return now }

	s.Record("g1", "u1", "hello")

	assert.True(t, s.RateLimited("g1", "u1", 3*time.Second))
	assert.False(t, s.RateLimited("g1", "u2", 3*time.Second))
	assert.False(t, s.RateLimited("g2", "u1", 3*time.Second))
}

func TestTrafficStateDuplicate(t *testing.T) {
	s := NewTrafficState()

	assert.False(t, s.IsDuplicate("g1", "u1", "hello"))

	s.Record("g1", "u1", "hello")

	assert.True(t, s.IsDuplicate("g1", "u1", "hello"))
	assert.False(t, s.IsDuplicate("g1", "u1", "hello "))
	assert.False(t, s.IsDuplicate("g1", "u2", "hello"))

	// Новый контент вытесняет предыдущий
	s.Record("g1", "u1", "world")
	assert.False(t, s.IsDuplicate("g1", "u1", "hello"))
	assert.True(t, s.IsDuplicate("g1", "u1", "world"))
}

func TestRejectReasonSignals(t *testing.T) {
	// Каждая причина имеет свою реакцию
	seen := map[string]bool{}
	for _, r := range []RejectReason{
		RejectRateLimit, RejectDuplicate, RejectTooLong,
		RejectURL, RejectAttachment, RejectMention, RejectBlocked,
	} {
		emoji := r.Emoji()
		assert.NotEmpty(t, emoji)
		assert.False(t, seen[emoji], "duplicate emoji for %s", r)
		seen[emoji] = true
	}

	// Рейт-лимит и дубликат не поясняются в личку
	assert.Empty(t, RejectRateLimit.Explanation())
	assert.Empty(t, RejectDuplicate.Explanation())
	assert.NotEmpty(t, RejectURL.Explanation())
	assert.NotEmpty(t, RejectBlocked.Explanation())
}
