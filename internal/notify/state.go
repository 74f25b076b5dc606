package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/risk"
)

// PolicyState is the persisted hysteresis state of a policy, keyed by
// session. Persisting it means an engine restart does not re-alert on a
// risk level the user was already told about.
type PolicyState struct {
	HasLast        bool       `json:"has_last"`
	LastRiskLevel  risk.Level `json:"last_risk_level"`
	LastAdjustedUV int        `json:"last_adjusted_uv"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// StateStore manages policy states in Redis.
type StateStore struct {
	redis *redis.Client
}

// NewStateStore creates a new state store.
func NewStateStore(redisClient *redis.Client) *StateStore {
	return &StateStore{redis: redisClient}
}

func policyStateKey(sessionID string) string {
	return fmt.Sprintf("policy_state:%s", sessionID)
}

// Get retrieves the policy state for a session. A missing key returns
// the zero state: the policy simply has no previous observation.
func (s *StateStore) Get(ctx context.Context, sessionID string) (*PolicyState, error) {
	data, err := s.redis.Get(ctx, policyStateKey(sessionID)).Result()
	if err == redis.Nil {
		return &PolicyState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy state from Redis: %w", err)
	}

	var state PolicyState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy state: %w", err)
	}

	return &state, nil
}

// Set saves the policy state for a session. States expire after a week
// to auto-cleanup abandoned sessions.
func (s *StateStore) Set(ctx context.Context, sessionID string, state *PolicyState) error {
	state.UpdatedAt = time.Now()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal policy state: %w", err)
	}

	if err := s.redis.Set(ctx, policyStateKey(sessionID), data, 7*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set policy state in Redis: %w", err)
	}

	return nil
}

// Delete removes the policy state for a session.
func (s *StateStore) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, policyStateKey(sessionID)).Err()
}
