package runner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/rs/zerolog"
)

// QueryStatus represents the status of a query
type QueryStatus string

const (
	QueryStatusRunning   QueryStatus = "running"
	QueryStatusCompleted QueryStatus = "completed"
	QueryStatusCancelled QueryStatus = "cancelled"
	QueryStatusFailed    QueryStatus = "failed"
	QueryStatusRejected  QueryStatus = "rejected"
)

// finished reports whether the status is terminal
func (s QueryStatus) finished() bool {
	return s != QueryStatusRunning
}

// QueryInfo is the history entry of one submitted query
type QueryInfo struct {
	ID        string         `json:"id"`
	Query     string         `json:"query"`
	Status    QueryStatus    `json:"status"`
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Duration  *time.Duration `json:"duration,omitempty"`
	Session   string         `json:"session,omitempty"`
	Source    string         `json:"source,omitempty"`
	Error     string         `json:"error,omitempty"`
	RowCount  int64          `json:"row_count"`

	cancel context.CancelFunc
}

// Stats counts history entries by status
type Stats struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Failed    int `json:"failed"`
	Rejected  int `json:"rejected"`
}

// ExecutionManager tracks submitted queries, keeps a bounded history and
// lets running ones be cancelled
type ExecutionManager struct {
	queries map[string]*QueryInfo
	limit   int
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// NewExecutionManager creates a manager keeping at most limit finished
// queries, zero meaning no limit
func NewExecutionManager(logger zerolog.Logger, limit int) *ExecutionManager {
	return &ExecutionManager{
		queries: make(map[string]*QueryInfo),
		limit:   limit,
		logger:  logger,
	}
}

// StartQuery starts tracking a query and returns the context to run it with
func (em *ExecutionManager) StartQuery(ctx context.Context, queryID, query, session, source string) (QueryInfo, context.Context) {
	em.mu.Lock()
	defer em.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)

	info := &QueryInfo{
		ID:        queryID,
		Query:     query,
		Status:    QueryStatusRunning,
		StartTime: time.Now(),
		Session:   session,
		Source:    source,
		cancel:    cancel,
	}

	em.queries[queryID] = info
	em.logger.Debug().Str("query_id", queryID).Msg("Query started tracking")
	em.evictLocked()

	return *info, ctx
}

// RejectQuery records a query the guard refused; it never ran
func (em *ExecutionManager) RejectQuery(queryID, query, session, source, reason string) QueryInfo {
	em.mu.Lock()
	defer em.mu.Unlock()

	now := time.Now()
	var zero time.Duration
	info := &QueryInfo{
		ID:        queryID,
		Query:     query,
		Status:    QueryStatusRejected,
		StartTime: now,
		EndTime:   &now,
		Duration:  &zero,
		Session:   session,
		Source:    source,
		Error:     reason,
	}

	em.queries[queryID] = info
	em.logger.Debug().Str("query_id", queryID).Str("reason", reason).Msg("Query rejected")
	em.evictLocked()

	return *info
}

// CompleteQuery marks a query as completed, or failed when err is set.
// A query cancelled in the meantime stays cancelled.
func (em *ExecutionManager) CompleteQuery(queryID string, rowCount int64, err error) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	info, exists := em.queries[queryID]
	if !exists {
		return errors.New(ErrQueryNotFound, "query not found", nil).AddContext("query_id", queryID)
	}
	if info.cancel != nil {
		info.cancel()
	}

	if info.Status == QueryStatusCancelled {
		return nil
	}

	now := time.Now()
	duration := now.Sub(info.StartTime)

	info.EndTime = &now
	info.Duration = &duration
	info.RowCount = rowCount

	if err != nil {
		info.Status = QueryStatusFailed
		info.Error = err.Error()
	} else {
		info.Status = QueryStatusCompleted
	}

	em.logger.Debug().
		Str("query_id", queryID).
		Str("status", string(info.Status)).
		Dur("duration", duration).
		Int64("row_count", rowCount).
		Msg("Query completed")

	em.evictLocked()
	return nil
}

// CancelQuery cancels a running query
func (em *ExecutionManager) CancelQuery(queryID string) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	info, exists := em.queries[queryID]
	if !exists {
		return errors.New(ErrQueryNotFound, "query not found", nil).AddContext("query_id", queryID)
	}

	if info.Status != QueryStatusRunning {
		return errors.New(ErrQueryNotRunning, "query is not running", nil).AddContext("query_id", queryID).AddContext("status", string(info.Status))
	}

	info.cancel()

	now := time.Now()
	duration := now.Sub(info.StartTime)
	info.EndTime = &now
	info.Duration = &duration
	info.Status = QueryStatusCancelled

	em.logger.Info().
		Str("query_id", queryID).
		Dur("duration", duration).
		Msg("Query cancelled")

	return nil
}

// GetQueryInfo returns a snapshot of one query
func (em *ExecutionManager) GetQueryInfo(queryID string) (QueryInfo, error) {
	em.mu.RLock()
	defer em.mu.RUnlock()

	info, exists := em.queries[queryID]
	if !exists {
		return QueryInfo{}, errors.New(ErrQueryNotFound, "query not found", nil).AddContext("query_id", queryID)
	}

	return *info, nil
}

// ListQueries returns every tracked query, oldest first
func (em *ExecutionManager) ListQueries() []QueryInfo {
	em.mu.RLock()
	defer em.mu.RUnlock()

	return em.snapshotLocked(func(*QueryInfo) bool { return true })
}

// ListRunningQueries returns only running queries, oldest first
func (em *ExecutionManager) ListRunningQueries() []QueryInfo {
	em.mu.RLock()
	defer em.mu.RUnlock()

	return em.snapshotLocked(func(q *QueryInfo) bool { return q.Status == QueryStatusRunning })
}

// CleanupCompletedQueries removes finished queries older than maxAge
func (em *ExecutionManager) CleanupCompletedQueries(maxAge time.Duration) int {
	em.mu.Lock()
	defer em.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for queryID, info := range em.queries {
		if info.Status.finished() && info.EndTime != nil && info.EndTime.Before(cutoff) {
			delete(em.queries, queryID)
			removed++
		}
	}

	if removed > 0 {
		em.logger.Debug().Int("removed", removed).Msg("Cleaned up completed queries")
	}

	return removed
}

// GetStats returns statistics about queries
func (em *ExecutionManager) GetStats() Stats {
	em.mu.RLock()
	defer em.mu.RUnlock()

	var stats Stats
	for _, q := range em.queries {
		stats.Total++
		switch q.Status {
		case QueryStatusRunning:
			stats.Running++
		case QueryStatusCompleted:
			stats.Completed++
		case QueryStatusCancelled:
			stats.Cancelled++
		case QueryStatusFailed:
			stats.Failed++
		case QueryStatusRejected:
			stats.Rejected++
		}
	}

	return stats
}

func (em *ExecutionManager) snapshotLocked(keep func(*QueryInfo) bool) []QueryInfo {
	out := make([]QueryInfo, 0, len(em.queries))
	for _, q := range em.queries {
		if keep(q) {
			out = append(out, *q)
		}
	}
	sortByStart(out)
	return out
}

// evictLocked drops the oldest finished queries beyond the history limit
func (em *ExecutionManager) evictLocked() {
	if em.limit <= 0 {
		return
	}

	var finished []QueryInfo
	for _, q := range em.queries {
		if q.Status.finished() {
			finished = append(finished, *q)
		}
	}
	if len(finished) <= em.limit {
		return
	}

	sortByStart(finished)
	for _, q := range finished[:len(finished)-em.limit] {
		delete(em.queries, q.ID)
	}
}

func sortByStart(qs []QueryInfo) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].StartTime.Equal(qs[j].StartTime) {
			return qs[i].ID < qs[j].ID
		}
		return qs[i].StartTime.Before(qs[j].StartTime)
	})
}
