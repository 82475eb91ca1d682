package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrSessionNotFound is returned when a session ID has no stored state.
var ErrSessionNotFound = errors.New("assistant: session not found")

// ScanAnalysis is one stored image-analysis result.
type ScanAnalysis struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Timestamp   time.Time `json:"timestamp"`
	Analysis    string    `json:"analysis"`
}

// Session is the per-conversation state: uploaded-scan analyses plus chat
// history, kept only for the TTL window.
type Session struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Analyses  []ScanAnalysis `json:"analyses"`
	History   []Message      `json:"history"`
}

// LatestAnalysis returns the most recent scan analysis, or nil.
func (s *Session) LatestAnalysis() *ScanAnalysis {
	if len(s.Analyses) == 0 {
		return nil
	}
	return &s.Analyses[len(s.Analyses)-1]
}

// SessionStore keeps sessions in Redis with a TTL.
type SessionStore struct {
	redis      *redis.Client
	ttl        time.Duration
	maxHistory int
	tracer     trace.Tracer
}

// NewSessionStore creates a Redis-backed session store. maxHistory bounds
// the number of user/assistant message pairs retained per session.
func NewSessionStore(rdb *redis.Client, ttl time.Duration, maxHistory int, tracer trace.Tracer) *SessionStore {
	if rdb == nil {
		panic("assistant: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxHistory < 1 {
		maxHistory = 10
	}
	if tracer == nil {
		tracer = otel.Tracer("clinsight.internal.assistant.sessions")
	}
	return &SessionStore{redis: rdb, ttl: ttl, maxHistory: maxHistory, tracer: tracer}
}

// GetOrCreate loads the session for id, or creates a fresh one when id is
// empty or unknown.
func (s *SessionStore) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	if id != "" {
		sess, err := s.Get(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Get loads an existing session; ErrSessionNotFound when the key expired
// or never existed.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "assistant.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("assistant: failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("assistant: failed to decode session: %w", err)
	}
	return &sess, nil
}

// Save persists the session, trimming chat history to the retention
// window first.
func (s *SessionStore) Save(ctx context.Context, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "assistant.save_session")
	defer span.End()

	if max := s.maxHistory * 2; len(sess.History) > max {
		sess.History = sess.History[len(sess.History)-max:]
	}

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: failed to persist session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
