// Package session persists dialogue state in Redis. Conversations can grow
// without bound, so every save passes through progressive trimming: normal
// limits first, aggressive limits when the entry is still oversized, and a
// minimal snapshot plus old-session eviction when Redis rejects the write.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"subsidy-concierge/internal/common/config"
	"subsidy-concierge/internal/common/database"
	"subsidy-concierge/internal/common/errors"
	"subsidy-concierge/internal/common/logger"
	"subsidy-concierge/internal/common/metrics"
	"subsidy-concierge/internal/models"
)

const keyPrefix = "subsidychat:session:"

// Trim tiers. Normal limits come from config; these are the fallbacks when
// even the trimmed entry is too large or the write fails.
const (
	aggressiveMessages = 10
	aggressiveContext  = 6
	minimalMessages    = 5
	minimalContext     = 3

	maxMessageChars = 1000
)

// Store reads and writes dialogue state in Redis.
type Store struct {
	redis *database.RedisClient
	log   logger.Logger
	cfg   config.SessionConfig
}

func NewStore(rdb *database.RedisClient, log logger.Logger, cfg config.SessionConfig) *Store {
	return &Store{redis: rdb, log: log, cfg: cfg}
}

// NewSessionID mints a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// Load fetches the state for one session. A missing key returns (nil, nil);
// a corrupt entry is dropped and also treated as missing so the caller
// starts a fresh conversation instead of failing.
func (s *Store) Load(ctx context.Context, sessionID string) (*models.DialogueState, error) {
	raw, err := s.redis.Get(ctx, keyPrefix+sessionID)
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var state models.DialogueState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.log.Warn("dropping corrupt session entry", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		s.redis.Del(ctx, keyPrefix+sessionID)
		return nil, nil
	}

	return &state, nil
}

// Save persists the state, trimming as needed. The state passed in is not
// mutated; trimming happens on a copy.
func (s *Store) Save(ctx context.Context, state *models.DialogueState) error {
	trimmed := trim(*state, s.cfg.MaxMessages, s.cfg.MaxContext)
	trimmed.LastUpdated = time.Now().UTC()

	data, err := json.Marshal(&trimmed)
	if err != nil {
		metrics.SessionSaves.WithLabelValues("error").Inc()
		return errors.NewSessionSaveError(state.SessionID, err)
	}

	if len(data) > s.cfg.MaxEntryBytes {
		s.log.Warn("session entry oversized, trimming aggressively", map[string]interface{}{
			"sessionId": state.SessionID,
			"bytes":     len(data),
		})
		trimmed = trim(trimmed, aggressiveMessages, aggressiveContext)
		data, err = json.Marshal(&trimmed)
		if err != nil {
			metrics.SessionSaves.WithLabelValues("error").Inc()
			return errors.NewSessionSaveError(state.SessionID, err)
		}
	}

	ttl := time.Duration(s.cfg.TTLHours) * time.Hour
	if err := s.redis.Set(ctx, keyPrefix+state.SessionID, data, ttl); err == nil {
		metrics.SessionSaves.WithLabelValues("success").Inc()
		return nil
	}

	// The write failed, most likely maxmemory pressure. Evict the oldest
	// sessions and retry with a minimal snapshot.
	s.log.Warn("session save failed, evicting old sessions and retrying", map[string]interface{}{
		"sessionId": state.SessionID,
	})
	s.evictOldest(ctx)

	minimal := trim(trimmed, minimalMessages, minimalContext)
	data, err = json.Marshal(&minimal)
	if err != nil {
		metrics.SessionSaves.WithLabelValues("error").Inc()
		return errors.NewSessionSaveError(state.SessionID, err)
	}

	if err := s.redis.Set(ctx, keyPrefix+state.SessionID, data, ttl); err != nil {
		// Last resort: drop this session rather than keep failing on it.
		s.redis.Del(ctx, keyPrefix+state.SessionID)
		metrics.SessionSaves.WithLabelValues("error").Inc()
		return errors.NewSessionSaveError(state.SessionID, err)
	}

	metrics.SessionSaves.WithLabelValues("recovered").Inc()
	return nil
}

// Delete removes one session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, keyPrefix+sessionID)
}

// trim bounds the transcript and context and caps individual message bodies.
func trim(state models.DialogueState, maxMessages, maxContext int) models.DialogueState {
	if len(state.Messages) > maxMessages {
		state.Messages = append([]models.Message(nil), state.Messages[len(state.Messages)-maxMessages:]...)
	}
	if len(state.Context) > maxContext {
		state.Context = append([]models.ContextTurn(nil), state.Context[len(state.Context)-maxContext:]...)
	}

	capped := make([]models.Message, len(state.Messages))
	copy(capped, state.Messages)
	for i, msg := range capped {
		runes := []rune(msg.Content)
		if len(runes) > maxMessageChars {
			capped[i].Content = string(runes[:maxMessageChars]) + "..."
		}
	}
	state.Messages = capped

	return state
}

// evictOldest deletes the oldest sessions, keeping the most recent
// MaxSessions. Entries that fail to parse count as oldest.
func (s *Store) evictOldest(ctx context.Context) {
	keys, err := s.redis.Keys(ctx, keyPrefix+"*")
	if err != nil {
		s.log.Warn("session eviction scan failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(keys) <= s.cfg.MaxSessions {
		return
	}

	type aged struct {
		key     string
		updated time.Time
	}
	sessions := make([]aged, 0, len(keys))
	for _, key := range keys {
		entry := aged{key: key}
		if raw, err := s.redis.Get(ctx, key); err == nil {
			var state models.DialogueState
			if json.Unmarshal([]byte(raw), &state) == nil {
				entry.updated = state.LastUpdated
			}
		}
		sessions = append(sessions, entry)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].updated.Before(sessions[j].updated)
	})

	for _, victim := range sessions[:len(sessions)-s.cfg.MaxSessions] {
		if err := s.redis.Del(ctx, victim.key); err != nil {
			s.log.Warn("failed to evict session", map[string]interface{}{
				"key":   victim.key,
				"error": err.Error(),
			})
		}
	}
}
