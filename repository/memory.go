package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"call-insights/dto"
	"call-insights/entities"
)

// MemoryRepo is an in-memory Repository used in tests. Error fields inject
// failures for the corresponding write paths.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID uint

	Tenants  map[uint]*entities.Tenant
	Calls    map[uint]*entities.CallRecord
	Insights map[uint]*entities.CallInsight // keyed by call record id

	CreateCallErr  error
	SaveInsightErr error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		Tenants:  map[uint]*entities.Tenant{},
		Calls:    map[uint]*entities.CallRecord{},
		Insights: map[uint]*entities.CallInsight{},
	}
}

func (m *MemoryRepo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return callback(ctx)
}

func (m *MemoryRepo) FindTenantByAPIKey(ctx context.Context, apiKey string) (*entities.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Tenants {
		if t.APIKey == apiKey {
			copied := *t
			return &copied, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemoryRepo) FindTenantByID(ctx context.Context, id uint) (*entities.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tenants[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *MemoryRepo) CreateTenant(ctx context.Context, tenant *entities.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tenant.ID == 0 {
		m.nextID++
		tenant.ID = m.nextID
	}
	copied := *tenant
	m.Tenants[tenant.ID] = &copied
	return nil
}

func (m *MemoryRepo) DeleteTenantCascade(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for callID, c := range m.Calls {
		if c.TenantID == id {
			delete(m.Insights, callID)
			delete(m.Calls, callID)
		}
	}
	delete(m.Tenants, id)
	return nil
}

func (m *MemoryRepo) CreateCallRecord(ctx context.Context, record *entities.CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateCallErr != nil {
		return m.CreateCallErr
	}
	for _, c := range m.Calls {
		if c.CallID == record.CallID {
			return errors.New("duplicate call_id")
		}
	}
	if record.ID == 0 {
		m.nextID++
		record.ID = m.nextID
	}
	copied := *record
	m.Calls[record.ID] = &copied
	return nil
}

func (m *MemoryRepo) CallIDExists(ctx context.Context, callID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Calls {
		if c.CallID == callID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepo) FindCallByID(ctx context.Context, id uint) (*entities.CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Calls[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *MemoryRepo) FindCallForTenant(ctx context.Context, tenantID uint, callID string) (*entities.CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Calls {
		if c.TenantID == tenantID && c.CallID == callID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemoryRepo) ListCalls(ctx context.Context, tenantID uint, filter dto.ListFilter) ([]entities.CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []entities.CallRecord
	for _, c := range m.Calls {
		if c.TenantID != tenantID {
			continue
		}
		if filter.FromDate != nil && (c.StartTime == nil || c.StartTime.Before(*filter.FromDate)) {
			continue
		}
		if filter.ToDate != nil && (c.StartTime == nil || c.StartTime.After(*filter.ToDate)) {
			continue
		}
		if filter.DurationGT != nil && (c.Duration == nil || *c.Duration < *filter.DurationGT) {
			continue
		}
		if filter.DurationLT != nil && (c.Duration == nil || *c.Duration > *filter.DurationLT) {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (m *MemoryRepo) ListProcessedCalls(ctx context.Context, tenantID uint) ([]entities.CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []entities.CallRecord
	for _, c := range m.Calls {
		if c.TenantID == tenantID && c.IsProcessed {
			matched = append(matched, *c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

func (m *MemoryRepo) ListPendingCallIDs(ctx context.Context) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint
	for _, c := range m.Calls {
		if !c.IsProcessed {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MemoryRepo) SaveInsightMarkProcessed(ctx context.Context, insight *entities.CallInsight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveInsightErr != nil {
		return m.SaveInsightErr
	}
	if _, ok := m.Insights[insight.CallRecordID]; ok {
		return errors.New("duplicate insight for call record")
	}
	record, ok := m.Calls[insight.CallRecordID]
	if !ok {
		return ErrRecordNotFound
	}
	if insight.ID == 0 {
		m.nextID++
		insight.ID = m.nextID
	}
	copied := *insight
	m.Insights[insight.CallRecordID] = &copied
	record.IsProcessed = true
	return nil
}

func (m *MemoryRepo) FindInsightByCallRecordID(ctx context.Context, callRecordID uint) (*entities.CallInsight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ins, ok := m.Insights[callRecordID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *ins
	return &copied, nil
}
