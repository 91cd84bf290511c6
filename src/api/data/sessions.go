package data

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/atulbakery/ishan-assistant/src/session"
)

const sessionPrefix = "session:"

// SessionStore keeps chat sessions in Redis. Every write refreshes the expiry.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, id string) (session.State, error) {
	raw, err := s.rdb.Get(ctx, sessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.State{}, errors.Wrapf(session.ErrSessionNotFound, "%q", id)
	}
	if err != nil {
		return session.State{}, errors.Wrap(err, "load session")
	}
	var st session.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return session.State{}, errors.Wrap(err, "decode session")
	}
	if st.Overrides == nil {
		st.Overrides = map[string]string{}
	}
	return st, nil
}

func (s *SessionStore) Put(ctx context.Context, st session.State) error {
	if st.ID == "" {
		return errors.New("session id is required")
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	return errors.Wrap(s.rdb.Set(ctx, sessionPrefix+st.ID, raw, s.ttl).Err(), "save session")
}
