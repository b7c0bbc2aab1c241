package main

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"sentiment-backtest/services/engine"
)

const (
	jobQueued    = "queued"
	jobRunning   = "running"
	jobCompleted = "completed"
	jobFailed    = "failed"
)

type job struct {
	ID          string                   `json:"job_id"`
	Symbol      string                   `json:"symbol"`
	Status      string                   `json:"status"`
	Error       string                   `json:"error,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	CompletedAt time.Time                `json:"completed_at"`
	Results     []*engine.StrategyResult `json:"results,omitempty"`
}

// progressEvent is one message on a job's websocket stream.
type progressEvent struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Variant string `json:"variant,omitempty"`
	Done    int    `json:"done,omitempty"`
	Total   int    `json:"total,omitempty"`
	Error   string `json:"error,omitempty"`
}

// jobStore is the in-memory job registry plus the progress fan-out. Results
// slices are set once under lock at completion and never mutated after.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*job
	subs map[string][]chan progressEvent
}

func newJobStore() *jobStore {
	return &jobStore{
		jobs: make(map[string]*job),
		subs: make(map[string][]chan progressEvent),
	}
}

func (st *jobStore) create(symbol string) *job {
	j := &job{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		Status:    jobQueued,
		CreatedAt: time.Now().UTC(),
	}
	st.mu.Lock()
	st.jobs[j.ID] = j
	st.mu.Unlock()
	return j
}

// snapshot returns a copy safe to marshal while the runner keeps mutating
// the stored record.
func (st *jobStore) snapshot(id string) (job, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	j, ok := st.jobs[id]
	if !ok {
		return job{}, false
	}
	return *j, true
}

func (st *jobStore) setRunning(id string) {
	st.mu.Lock()
	if j, ok := st.jobs[id]; ok {
		j.Status = jobRunning
	}
	st.mu.Unlock()
}

// finish records the outcome and closes all progress subscriptions.
func (st *jobStore) finish(id string, results []*engine.StrategyResult, err error) {
	st.mu.Lock()
	j, ok := st.jobs[id]
	if !ok {
		st.mu.Unlock()
		return
	}
	if err != nil {
		j.Status = jobFailed
		j.Error = err.Error()
	} else {
		j.Status = jobCompleted
		j.Results = results
	}
	j.CompletedAt = time.Now().UTC()
	subs := st.subs[id]
	delete(st.subs, id)
	st.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// notify fans an event out to all subscribers, dropping it for slow ones.
// Holding the read lock excludes finish, so channels cannot close mid-send.
func (st *jobStore) notify(id string, ev progressEvent) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, ch := range st.subs[id] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// subscribe registers a progress channel for the job. The channel closes when
// the job finishes; for an already finished job it is closed immediately. The
// returned cancel removes the subscription without closing the channel.
func (st *jobStore) subscribe(id string) (<-chan progressEvent, func()) {
	ch := make(chan progressEvent, 16)

	st.mu.Lock()
	if j, ok := st.jobs[id]; ok && (j.Status == jobCompleted || j.Status == jobFailed) {
		st.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	st.subs[id] = append(st.subs[id], ch)
	st.mu.Unlock()

	cancel := func() {
		st.mu.Lock()
		subs := st.subs[id]
		for i, c := range subs {
			if c == ch {
				st.subs[id] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		st.mu.Unlock()
	}
	return ch, cancel
}
