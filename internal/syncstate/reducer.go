// internal/syncstate/reducer.go

// Package syncstate holds the transient, auto-expiring outcome of the most
// recent sync invocation. At most one status and one expiry timer exist at
// a time; a new sync replaces both wholesale.
package syncstate

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"formdesk-workers/internal/common/database"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/models"
)

const statusKeyPrefix = "sync:status:"

// Status is the displayable summary of one sync invocation. Error is empty
// on success.
type Status struct {
	ClientID string `json:"clientId"`
	Synced   int    `json:"synced"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// Reducer owns the single pending status and its expiry timer. An optional
// Redis mirror lets other processes read the status for the same TTL.
type Reducer struct {
	mu      sync.Mutex
	current *Status
	timer   *time.Timer

	ttl    time.Duration
	redis  *database.RedisClient
	logger logger.Logger
}

func NewReducer(ttl time.Duration, redis *database.RedisClient, log logger.Logger) *Reducer {
	return &Reducer{
		ttl:    ttl,
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"component": "syncstate"}),
	}
}

// SetSuccess records the counts of a completed sync, replacing any pending
// status and re-arming the expiry timer.
func (r *Reducer) SetSuccess(clientID string, result models.SyncResult) {
	r.set(&Status{
		ClientID: clientID,
		Synced:   result.Synced,
		Skipped:  result.Skipped,
	})
}

// SetFailure records a failed sync under its human-readable message.
func (r *Reducer) SetFailure(clientID string, err error) {
	r.set(&Status{
		ClientID: clientID,
		Error:    err.Error(),
	})
}

// Current returns a copy of the pending status, or nil once it has expired
// or nothing has been set.
func (r *Reducer) Current() *Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	copied := *r.current
	return &copied
}

// Stop cancels the pending timer without clearing the mirror. Used during
// shutdown.
func (r *Reducer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Reducer) set(status *Status) {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.current = status
	r.timer = time.AfterFunc(r.ttl, func() { r.expire(status) })
	r.mu.Unlock()

	r.mirror(status)
}

// expire clears the status set by the matching timer. A status replaced
// before its timer fired is left alone.
func (r *Reducer) expire(status *Status) {
	r.mu.Lock()
	if r.current != status {
		r.mu.Unlock()
		return
	}
	r.current = nil
	r.timer = nil
	r.mu.Unlock()
}

// mirror writes the status to Redis with the same TTL, so the key expires
// in lockstep with the in-process timer.
func (r *Reducer) mirror(status *Status) {
	if r.redis == nil {
		return
	}

	payload, err := json.Marshal(status)
	if err != nil {
		r.logger.Warn("failed to marshal sync status", map[string]interface{}{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.redis.Set(ctx, statusKeyPrefix+status.ClientID, payload, r.ttl); err != nil {
		r.logger.Warn("failed to mirror sync status", map[string]interface{}{
			"clientId": status.ClientID,
			"error":    err.Error(),
		})
	}
}
