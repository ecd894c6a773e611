package service

import (
	"sync"
	"sync/atomic"
)

// Token is the per-job cooperative cancellation flag. The owning executor
// polls Aborted at its checkpoints; nothing else reads it.
type Token struct {
	aborted atomic.Bool
}

func (t *Token) Aborted() bool {
	return t.aborted.Load()
}

// CancelRegistry tracks tokens for running jobs. Tokens live only while a
// job is running and are never persisted; a cancel request for a terminal
// or unknown job is a no-op.
type CancelRegistry struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{tokens: make(map[string]*Token)}
}

// Create registers a fresh token when a job starts running. A leftover
// token under the same id is discarded.
func (r *CancelRegistry) Create(jobID string) *Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := &Token{}
	r.tokens[jobID] = t
	return t
}

// Request sets the abort flag for a running job. Settable once; repeated
// requests and requests for jobs without a token are no-ops. Returns true
// when a token existed.
func (r *CancelRegistry) Request(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[jobID]
	if !ok {
		return false
	}
	t.aborted.Store(true)
	return true
}

// Remove drops the token once the job reaches a terminal state. A cancel
// request arriving afterwards cannot resurrect the job.
func (r *CancelRegistry) Remove(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, jobID)
}

// Len reports the number of live tokens.
func (r *CancelRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
