// Package store provides an in-memory engine.TxStore for tests and
// development. The production implementation lives in store/sqlite.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tidehr/leave-engine/engine"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	users      map[userKey]engine.UserConfig
	holidays   map[engine.OrgID][]engine.Holiday
	requests   map[engine.OrgID][]engine.LeaveRequest
	categories map[engine.OrgID]engine.CategoryPolicy
}

type userKey struct {
	Org  engine.OrgID
	User engine.UserID
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[userKey]engine.UserConfig),
		holidays:   make(map[engine.OrgID][]engine.Holiday),
		requests:   make(map[engine.OrgID][]engine.LeaveRequest),
		categories: make(map[engine.OrgID]engine.CategoryPolicy),
	}
}

// --- UserDirectory ---

func (m *Memory) User(_ context.Context, org engine.OrgID, id engine.UserID) (engine.UserConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.users[userKey{org, id}]
	if !ok {
		return engine.UserConfig{}, engine.ErrUserNotFound
	}
	return cfg, nil
}

func (m *Memory) Users(_ context.Context, org engine.OrgID) ([]engine.UserConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.UserConfig
	for k, cfg := range m.users {
		if k.Org == org {
			out = append(out, cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveUser(_ context.Context, org engine.OrgID, cfg engine.UserConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userKey{org, cfg.ID}] = cfg
	return nil
}

func (m *Memory) SetAllocation(_ context.Context, org engine.OrgID, id engine.UserID, allocation engine.Days) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := userKey{org, id}
	cfg, ok := m.users[k]
	if !ok {
		return engine.ErrUserNotFound
	}
	cfg.Allocation = allocation
	m.users[k] = cfg
	return nil
}

// --- HolidayStore ---

func (m *Memory) Holidays(_ context.Context, org engine.OrgID) ([]engine.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Holiday, len(m.holidays[org]))
	copy(out, m.holidays[org])
	return out, nil
}

func (m *Memory) SaveHoliday(_ context.Context, org engine.OrgID, h engine.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.holidays[org] {
		if existing.ID == h.ID {
			m.holidays[org][i] = h
			return nil
		}
	}
	m.holidays[org] = append(m.holidays[org], h)
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, org engine.OrgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hs := m.holidays[org]
	for i, h := range hs {
		if h.ID == id {
			m.holidays[org] = append(hs[:i], hs[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- RequestStore ---

func (m *Memory) Requests(_ context.Context, org engine.OrgID, user engine.UserID) ([]engine.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.LeaveRequest
	for _, r := range m.requests[org] {
		if r.UserID == user {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) Request(_ context.Context, org engine.OrgID, id engine.RequestID) (engine.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.requests[org] {
		if r.ID == id {
			return r, nil
		}
	}
	return engine.LeaveRequest{}, engine.ErrRequestNotFound
}

func (m *Memory) PendingRequests(_ context.Context, org engine.OrgID) ([]engine.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.LeaveRequest
	for _, r := range m.requests[org] {
		if r.Status == engine.StatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) SaveRequest(_ context.Context, req engine.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.OrgID] = append(m.requests[req.OrgID], req)
	return nil
}

func (m *Memory) Transition(_ context.Context, org engine.OrgID, id engine.RequestID, to engine.RequestStatus, adminResponse, decidedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return transitionIn(m.requests[org], id, to, adminResponse, decidedBy)
}

// transitionIn enforces the single-transition lifecycle shared with the
// sqlite store: Pending may go anywhere terminal, Approved may only be
// cancelled.
func transitionIn(rs []engine.LeaveRequest, id engine.RequestID, to engine.RequestStatus, adminResponse, decidedBy string) error {
	for i, r := range rs {
		if r.ID != id {
			continue
		}
		switch {
		case r.Status == engine.StatusPending:
		case r.Status == engine.StatusApproved && to == engine.StatusCancelled:
		default:
			return engine.ErrRequestNotPending
		}
		now := nowFunc()
		r.Status = to
		if adminResponse != "" {
			r.AdminResponse = adminResponse
		}
		r.DecidedAt = &now
		r.DecidedBy = decidedBy
		rs[i] = r
		return nil
	}
	return engine.ErrRequestNotFound
}

// --- CategoryStore ---

func (m *Memory) Categories(_ context.Context, org engine.OrgID) (engine.CategoryPolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.categories[org], nil
}

func (m *Memory) SaveCategories(_ context.Context, org engine.OrgID, p engine.CategoryPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[org] = p
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with snapshot-rollback transactions.
type TxMemory struct {
	*Memory
	txMu sync.Mutex
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx serializes transactions and rolls the store back to a snapshot if
// fn fails. Real serialization comes from the database in production; here a
// single mutex is enough.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	users      map[userKey]engine.UserConfig
	holidays   map[engine.OrgID][]engine.Holiday
	requests   map[engine.OrgID][]engine.LeaveRequest
	categories map[engine.OrgID]engine.CategoryPolicy
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	s := memorySnapshot{
		users:      make(map[userKey]engine.UserConfig, len(tm.users)),
		holidays:   make(map[engine.OrgID][]engine.Holiday, len(tm.holidays)),
		requests:   make(map[engine.OrgID][]engine.LeaveRequest, len(tm.requests)),
		categories: make(map[engine.OrgID]engine.CategoryPolicy, len(tm.categories)),
	}
	for k, v := range tm.users {
		s.users[k] = v
	}
	for k, v := range tm.holidays {
		s.holidays[k] = append([]engine.Holiday{}, v...)
	}
	for k, v := range tm.requests {
		s.requests[k] = append([]engine.LeaveRequest{}, v...)
	}
	for k, v := range tm.categories {
		s.categories[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.users = s.users
	tm.holidays = s.holidays
	tm.requests = s.requests
	tm.categories = s.categories
}

// nowFunc is replaceable in tests.
var nowFunc = time.Now
