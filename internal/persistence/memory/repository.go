// Package memory provides an in-process repository for local development and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/kickaider/internal/domain"
	"example.com/kickaider/internal/observability"
)

type tenantData struct {
	rules         []domain.CategorizationRule
	calendar      []domain.CalendarStatus
	settings      *domain.GeneralSettings
	accounts      []domain.AdminAccount
	stopPasswords []domain.StopPassword
	audit         []domain.AuditEntry
}

// Repository stores every table in memory, partitioned by tenant.
type Repository struct {
	mu      sync.RWMutex
	tenants map[string]*tenantData
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{tenants: make(map[string]*tenantData)}
}

var _ domain.Repository = (*Repository)(nil)

// tenant must be called with the write lock held.
func (r *Repository) tenant(id string) *tenantData {
	t, ok := r.tenants[id]
	if !ok {
		t = &tenantData{}
		r.tenants[id] = t
	}
	return t
}

func (r *Repository) peek(id string) *tenantData {
	if t, ok := r.tenants[id]; ok {
		return t
	}
	return &tenantData{}
}

// SeedRules implements domain.RuleRepository.
func (r *Repository) SeedRules(ctx context.Context, tenantID string, rules []domain.CategorizationRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tenant(tenantID)
	for _, rule := range rules {
		if slices.ContainsFunc(t.rules, func(existing domain.CategorizationRule) bool { return existing.ID == rule.ID }) {
			continue
		}
		t.rules = append(t.rules, rule)
	}
	slices.SortStableFunc(t.rules, func(a, b domain.CategorizationRule) int { return a.Position - b.Position })
	return nil
}

// ListRules implements domain.RuleRepository.
func (r *Repository) ListRules(ctx context.Context, tenantID string) ([]domain.CategorizationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.peek(tenantID).rules), nil
}

// UpdateRule implements domain.RuleRepository.
func (r *Repository) UpdateRule(ctx context.Context, tenantID, id string, mutate func(*domain.CategorizationRule) error) (*domain.CategorizationRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tenant(tenantID)
	idx := slices.IndexFunc(t.rules, func(rule domain.CategorizationRule) bool { return rule.ID == id })
	if idx < 0 {
		return nil, domain.ErrRuleNotFound
	}
	updated := t.rules[idx]
	if err := mutate(&updated); err != nil {
		return nil, err
	}
	t.rules[idx] = updated
	observability.RecordMutation(time.Now())
	return &updated, nil
}

// UpdateAllRules implements domain.RuleRepository.
func (r *Repository) UpdateAllRules(ctx context.Context, tenantID string, mutate func(*domain.CategorizationRule)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tenant(tenantID)
	for i := range t.rules {
		mutate(&t.rules[i])
	}
	observability.RecordMutation(time.Now())
	return nil
}

// ListCalendar implements domain.CalendarRepository.
func (r *Repository) ListCalendar(ctx context.Context, tenantID, month, employeeID string) ([]domain.CalendarStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.CalendarStatus, 0)
	for _, s := range r.peek(tenantID).calendar {
		if !strings.HasPrefix(s.Date, month) {
			continue
		}
		if employeeID != "" && s.EmployeeID != employeeID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// ReplaceCalendarRange implements domain.CalendarRepository.
func (r *Repository) ReplaceCalendarRange(ctx context.Context, tenantID, employeeID, from, to string, statuses []domain.CalendarStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tenant(tenantID)
	t.calendar = slices.DeleteFunc(t.calendar, func(s domain.CalendarStatus) bool {
		return s.EmployeeID == employeeID && s.Date >= from && s.Date <= to
	})
	t.calendar = append(t.calendar, statuses...)
	observability.RecordMutation(time.Now())
	return nil
}

// DeleteCalendarStatus implements domain.CalendarRepository.
func (r *Repository) DeleteCalendarStatus(ctx context.Context, tenantID, employeeID, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tenant(tenantID)
	t.calendar = slices.DeleteFunc(t.calendar, func(s domain.CalendarStatus) bool {
		return s.EmployeeID == employeeID && s.Date == date
	})
	return nil
}

// GetGeneralSettings implements domain.SettingsRepository.
func (r *Repository) GetGeneralSettings(ctx context.Context, tenantID string) (*domain.GeneralSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.peek(tenantID).settings
	if stored == nil {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

// SaveGeneralSettings implements domain.SettingsRepository.
func (r *Repository) SaveGeneralSettings(ctx context.Context, tenantID string, settings domain.GeneralSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tenant(tenantID).settings = &settings
	observability.RecordMutation(time.Now())
	return nil
}

// ListAccounts implements domain.SettingsRepository.
func (r *Repository) ListAccounts(ctx context.Context, tenantID string) ([]domain.AdminAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.peek(tenantID).accounts), nil
}

// CreateAccount implements domain.SettingsRepository.
func (r *Repository) CreateAccount(ctx context.Context, tenantID string, account domain.AdminAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tenant(tenantID)
	if slices.ContainsFunc(t.accounts, func(a domain.AdminAccount) bool { return a.Login == account.Login }) {
		return domain.ErrDuplicateLogin
	}
	if strings.TrimSpace(account.ID) == "" {
		account.ID = uuid.NewString()
	}
	t.accounts = append(t.accounts, account)
	observability.RecordMutation(time.Now())
	return nil
}

// DeleteAccount implements domain.SettingsRepository.
func (r *Repository) DeleteAccount(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tenant(tenantID)
	before := len(t.accounts)
	t.accounts = slices.DeleteFunc(t.accounts, func(a domain.AdminAccount) bool { return a.ID == id })
	if len(t.accounts) == before {
		return domain.ErrAccountNotFound
	}
	observability.RecordMutation(time.Now())
	return nil
}

// ListStopPasswords implements domain.SettingsRepository.
func (r *Repository) ListStopPasswords(ctx context.Context, tenantID string) ([]domain.StopPassword, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.peek(tenantID).stopPasswords), nil
}

// PutStopPassword implements domain.SettingsRepository.
func (r *Repository) PutStopPassword(ctx context.Context, tenantID string, entry domain.StopPassword) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tenant(tenantID)
	t.stopPasswords = slices.DeleteFunc(t.stopPasswords, func(p domain.StopPassword) bool {
		return p.EmployeeID == entry.EmployeeID
	})
	t.stopPasswords = append(t.stopPasswords, entry)
	observability.RecordMutation(time.Now())
	return nil
}

// AppendAudit implements domain.AuditRepository.
func (r *Repository) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(entry.ID) == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now().UTC()
	}
	t := r.tenant(entry.TenantID)
	if slices.ContainsFunc(t.audit, func(e domain.AuditEntry) bool { return e.ID == entry.ID }) {
		return nil
	}
	t.audit = append(t.audit, entry)
	observability.RecordAuditAppended(entry.ReceivedAt)
	return nil
}

// ListAudit implements domain.AuditRepository. Entries are ordered newest first.
func (r *Repository) ListAudit(ctx context.Context, tenantID string, cursor *domain.Cursor, limit int) ([]domain.AuditEntry, *domain.Cursor, error) {
	r.mu.RLock()
	sorted := slices.Clone(r.peek(tenantID).audit)
	r.mu.RUnlock()

	slices.SortFunc(sorted, compareAuditDesc)

	results := make([]domain.AuditEntry, 0, limit)
	for _, e := range sorted {
		if cursor != nil && !afterCursor(e, *cursor) {
			continue
		}
		results = append(results, e)
		if len(results) == limit {
			break
		}
	}

	var next *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		next = &domain.Cursor{At: last.ReceivedAt, ID: last.ID}
	}
	return results, next, nil
}

func compareAuditDesc(a, b domain.AuditEntry) int {
	if c := b.ReceivedAt.Compare(a.ReceivedAt); c != 0 {
		return c
	}
	return strings.Compare(b.ID, a.ID)
}

// afterCursor reports whether e sorts strictly after the cursor in newest-first order.
func afterCursor(e domain.AuditEntry, c domain.Cursor) bool {
	if !e.ReceivedAt.Equal(c.At) {
		return e.ReceivedAt.Before(c.At)
	}
	return e.ID < c.ID
}
