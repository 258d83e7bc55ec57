package relay

import (
	"sync"
	"time"
)

type trafficEntry struct {
	acceptedAt time.Time
	content    string
}

// TrafficState — состояние рейт-лимита и подавления дубликатов
// по парам (guild, user). Явная инъецируемая структура под мьютексом
// вместо модульных глобальных словарей.
type TrafficState struct {
	mu      sync.Mutex
	entries map[string]trafficEntry
	now     func() time.Time
}

func NewTrafficState() *TrafficState {
	return &TrafficState{
		entries: make(map[string]trafficEntry),
		now:     time.Now,
	}
}

func trafficKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// RateLimited — прошло ли меньше window с последнего принятого сообщения
func (s *TrafficState) RateLimited(guildID, userID string, window time.Duration) bool {
	if window <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[trafficKey(guildID, userID)]
	if !ok {
		return false
	}
	return s.now().Sub(entry.acceptedAt) < window
}

// IsDuplicate — совпадает ли контент с предыдущим принятым байт-в-байт
func (s *TrafficState) IsDuplicate(guildID, userID, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[trafficKey(guildID, userID)]
	return ok && entry.content == content
}

// Record фиксирует принятое сообщение.
// Вызывается только после прохождения всех проверок:
// отклоненное сообщение не занимает слот рейт-лимита.
func (s *TrafficState) Record(guildID, userID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[trafficKey(guildID, userID)] = trafficEntry{
		acceptedAt: s.now(),
		content:    content,
	}
}
