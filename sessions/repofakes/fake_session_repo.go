package repofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/odrpress/go-session-server/internal/errors"
	"github.com/odrpress/go-session-server/sessions"
)

var _ sessions.Registry = (*FakeSessionRegistry)(nil)

type FakeSessionRegistry struct {
	byID  map[uuid.UUID]*sessions.Session
	byRef map[string]uuid.UUID
	lock  sync.RWMutex

	// FindValidErr, when set, is returned by FindValid to simulate a
	// datastore failure.
	FindValidErr error
}

func NewFakeSessionRegistry() *FakeSessionRegistry {
	return &FakeSessionRegistry{
		byID:  make(map[uuid.UUID]*sessions.Session),
		byRef: make(map[string]uuid.UUID),
	}
}

func (sr *FakeSessionRegistry) Create(_ context.Context, subjectID uuid.UUID, tokenRef string, issuedAt time.Time, ttl time.Duration) (*sessions.Session, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	session := &sessions.Session{
		ID:           uuid.New(),
		SubjectID:    subjectID,
		TokenRef:     tokenRef,
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(ttl),
		LastActivity: issuedAt,
	}
	sr.byID[session.ID] = session
	sr.byRef[tokenRef] = session.ID

	copied := *session
	return &copied, nil
}

func (sr *FakeSessionRegistry) FindValid(_ context.Context, tokenRef string, now time.Time) (*sessions.Session, error) {
	if sr.FindValidErr != nil {
		return nil, sr.FindValidErr
	}
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	id, ok := sr.byRef[tokenRef]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	session := sr.byID[id]
	if !session.Valid(now) {
		return nil, apperrors.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (sr *FakeSessionRegistry) Touch(_ context.Context, sessionID uuid.UUID, now time.Time, slide time.Duration) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	session, ok := sr.byID[sessionID]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	session.LastActivity = now
	if slide > 0 {
		session.ExpiresAt = now.Add(slide)
	}
	return nil
}

func (sr *FakeSessionRegistry) Revoke(_ context.Context, sessionID uuid.UUID, now time.Time) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	session, ok := sr.byID[sessionID]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	if session.RevokedAt == nil {
		at := now
		session.RevokedAt = &at
	}
	return nil
}

func (sr *FakeSessionRegistry) RevokeAllForSubject(_ context.Context, subjectID uuid.UUID, now time.Time) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	for _, session := range sr.byID {
		if session.SubjectID == subjectID && session.RevokedAt == nil {
			at := now
			session.RevokedAt = &at
		}
	}
	return nil
}

func (sr *FakeSessionRegistry) ListForSubject(_ context.Context, subjectID uuid.UUID, limit, offset int) ([]*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	matched := make([]*sessions.Session, 0)
	for _, session := range sr.byID {
		if session.SubjectID == subjectID {
			copied := *session
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].IssuedAt.After(matched[j].IssuedAt)
	})
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (sr *FakeSessionRegistry) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	var removed int64
	for id, session := range sr.byID {
		if session.ExpiresAt.Before(cutoff) {
			delete(sr.byRef, session.TokenRef)
			delete(sr.byID, id)
			removed++
		}
	}
	return removed, nil
}

// Expire force-expires a session, for tests that need a stale record.
func (sr *FakeSessionRegistry) Expire(sessionID uuid.UUID, at time.Time) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	if session, ok := sr.byID[sessionID]; ok {
		session.ExpiresAt = at
	}
}
