package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SessionState names one step of the delivery-particulars collection protocol
type SessionState string

const (
	StateAwaitingFullname SessionState = "awaiting_fullname"
	StateAwaitingPhone    SessionState = "awaiting_phone"
	StateAwaitingAddress  SessionState = "awaiting_address"
	StateAwaitingComment  SessionState = "awaiting_comment"
)

// CheckoutSession holds a suspended physical-goods checkout, keyed by the
// buyer's Telegram id. It carries no financial commitment: abandoning it
// leaves nothing behind but this record, which is cleared on completion or
// explicit cancel.
type CheckoutSession struct {
	TgID        int64        `json:"tg_id"`
	State       SessionState `json:"state"`
	ItemID      *uint        `json:"item_id,omitempty"`       // set for single-item quick buy
	CartItemIDs []uint       `json:"cart_item_ids,omitempty"` // set for cart checkout
	TotalMinor  int64        `json:"total_minor"`

	Fullname string `json:"fullname"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Comment  string `json:"comment"`
}

// SessionStore persists checkout sessions across the suspension points of the
// conversational protocol
type SessionStore interface {
	Load(ctx context.Context, tgID int64) (*CheckoutSession, error)
	Save(ctx context.Context, session *CheckoutSession) error
	Clear(ctx context.Context, tgID int64) error
}

// RedisSessionStore keeps checkout sessions in Redis
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a session store backed by the given client
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(tgID int64) string {
	return fmt.Sprintf("checkout_session:%d", tgID)
}

// Load returns the buyer's suspended session, or nil when none exists
func (s *RedisSessionStore) Load(ctx context.Context, tgID int64) (*CheckoutSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(tgID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}

	var session CheckoutSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	return &session, nil
}

// Save stores the session. No expiry: an abandoned session is an accepted
// design gap, it holds no inventory or money.
func (s *RedisSessionStore) Save(ctx context.Context, session *CheckoutSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode checkout session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(session.TgID), raw, 0).Err()
}

// Clear removes the buyer's session
func (s *RedisSessionStore) Clear(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, sessionKey(tgID)).Err()
}
