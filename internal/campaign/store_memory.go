package campaign

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and early development.
// It mirrors the Postgres store's semantics: single-record atomic updates,
// ErrNotFound on missing rows.
type MemoryStore struct {
	mu sync.Mutex

	Campaigns map[string]Campaign
	Leads     map[string]Lead
	Records   map[string]CallRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Campaigns: map[string]Campaign{},
		Leads:     map[string]Lead{},
		Records:   map[string]CallRecord{},
	}
}

func (m *MemoryStore) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryStore) SetCampaignBatch(ctx context.Context, id string, status Status, batchJobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Campaigns[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.BatchJobID = batchJobID
	c.UpdatedAt = time.Now().UTC()
	m.Campaigns[id] = c
	return nil
}

func (m *MemoryStore) UpdateCampaignStatus(ctx context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Campaigns[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	m.Campaigns[id] = c
	return nil
}

func (m *MemoryStore) UpdateCampaignCounters(ctx context.Context, id string, counters Counters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Campaigns[id]
	if !ok {
		return ErrNotFound
	}
	c.TotalLeads = counters.TotalLeads
	c.CompletedCalls = counters.CompletedCalls
	c.SuccessfulCalls = counters.SuccessfulCalls
	c.FailedCalls = counters.FailedCalls
	c.AverageDurationSeconds = counters.AverageDurationSeconds
	c.UpdatedAt = time.Now().UTC()
	m.Campaigns[id] = c
	return nil
}

func (m *MemoryStore) ListLeads(ctx context.Context, campaignID string, status LeadStatus) ([]Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Lead, 0)
	for _, l := range m.Leads {
		if l.CampaignID != campaignID {
			continue
		}
		if status != "" && l.Status != status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateLead(ctx context.Context, id string, upd LeadUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Leads[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Status != nil {
		l.Status = *upd.Status
	}
	if upd.CallDurationSeconds != nil {
		l.CallDurationSeconds = *upd.CallDurationSeconds
	}
	l.UpdatedAt = time.Now().UTC()
	m.Leads[id] = l
	return nil
}

func (m *MemoryStore) CreateCallRecord(ctx context.Context, r CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	m.Records[r.ID] = r
	return nil
}

func (m *MemoryStore) ListCallRecords(ctx context.Context, campaignID string) ([]CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallRecord, 0)
	for _, r := range m.Records {
		if r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) FindCallRecordByLead(ctx context.Context, campaignID, leadID string) (CallRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found CallRecord
	var ok bool
	for _, r := range m.Records {
		if r.CampaignID != campaignID || r.LeadID != leadID {
			continue
		}
		if !ok || r.CreatedAt.After(found.CreatedAt) {
			found = r
			ok = true
		}
	}
	return found, ok, nil
}

func (m *MemoryStore) UpdateCallRecord(ctx context.Context, id string, upd CallRecordUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Records[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Status != nil {
		r.Status = *upd.Status
	}
	if upd.DurationSeconds != nil {
		d := *upd.DurationSeconds
		r.DurationSeconds = &d
	}
	if upd.Phone != nil {
		r.Phone = *upd.Phone
	}
	if upd.BatchJobID != nil {
		r.BatchJobID = *upd.BatchJobID
	}
	if upd.ConversationID != nil {
		r.ConversationID = *upd.ConversationID
	}
	if upd.Transcript != nil {
		r.Transcript = *upd.Transcript
	}
	r.UpdatedAt = time.Now().UTC()
	m.Records[id] = r
	return nil
}
