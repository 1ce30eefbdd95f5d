// Package domain defines the business logic for the activity monitoring backend.
package domain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"example.com/kickaider/internal/activity"
	"example.com/kickaider/internal/observability"
	"example.com/kickaider/internal/rating"
)

var (
	// ErrEmployeeNotFound is returned when an employee id is not on the roster.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrRuleNotFound is returned when a categorization rule cannot be located.
	ErrRuleNotFound = errors.New("categorization rule not found")
	// ErrAccountNotFound is returned when an admin account cannot be located.
	ErrAccountNotFound = errors.New("admin account not found")
	// ErrDuplicateLogin indicates an admin account with the login already exists.
	ErrDuplicateLogin = errors.New("account with this login already exists")
	// ErrProtectedAccount is returned on attempts to delete the bootstrap account.
	ErrProtectedAccount = errors.New("bootstrap account cannot be deleted")
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// RuleRepository persists categorization rules.
type RuleRepository interface {
	// SeedRules inserts the rules that do not exist yet.
	SeedRules(ctx context.Context, tenantID string, rules []CategorizationRule) error
	ListRules(ctx context.Context, tenantID string) ([]CategorizationRule, error)
	// UpdateRule applies mutate to one rule atomically and returns the stored result.
	UpdateRule(ctx context.Context, tenantID, id string, mutate func(*CategorizationRule) error) (*CategorizationRule, error)
	// UpdateAllRules applies mutate to every rule of the tenant atomically.
	UpdateAllRules(ctx context.Context, tenantID string, mutate func(*CategorizationRule)) error
}

// CalendarRepository persists production calendar marks.
type CalendarRepository interface {
	// ListCalendar returns marks whose date starts with month. An empty
	// employeeID matches everyone.
	ListCalendar(ctx context.Context, tenantID, month, employeeID string) ([]CalendarStatus, error)
	// ReplaceCalendarRange removes the employee's marks within [from, to] and
	// stores statuses in their place.
	ReplaceCalendarRange(ctx context.Context, tenantID, employeeID, from, to string, statuses []CalendarStatus) error
	DeleteCalendarStatus(ctx context.Context, tenantID, employeeID, date string) error
}

// SettingsRepository persists general settings, admin accounts and stop passwords.
type SettingsRepository interface {
	// GetGeneralSettings returns nil when the tenant never saved settings.
	GetGeneralSettings(ctx context.Context, tenantID string) (*GeneralSettings, error)
	SaveGeneralSettings(ctx context.Context, tenantID string, settings GeneralSettings) error
	ListAccounts(ctx context.Context, tenantID string) ([]AdminAccount, error)
	CreateAccount(ctx context.Context, tenantID string, account AdminAccount) error
	DeleteAccount(ctx context.Context, tenantID, id string) error
	ListStopPasswords(ctx context.Context, tenantID string) ([]StopPassword, error)
	// PutStopPassword replaces any previous entry of the same employee.
	PutStopPassword(ctx context.Context, tenantID string, entry StopPassword) error
}

// AuditRepository persists change events consumed from the bus.
type AuditRepository interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, tenantID string, cursor *Cursor, limit int) ([]AuditEntry, *Cursor, error)
}

// Repository captures persistence operations.
type Repository interface {
	RuleRepository
	CalendarRepository
	SettingsRepository
	AuditRepository
}

// Service orchestrates dashboard workflows.
type Service struct {
	repo              Repository
	now               func() time.Time
	latencyMin        time.Duration
	latencyMax        time.Duration
	bootstrapPassword string
	bcryptCost        int

	mu  sync.Mutex
	rng *rand.Rand
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLatency delays generated-data reads by a uniform duration in [lo, hi].
func WithLatency(lo, hi time.Duration) Option {
	return func(s *Service) {
		if hi < lo {
			lo, hi = hi, lo
		}
		s.latencyMin, s.latencyMax = lo, hi
	}
}

// WithBootstrapPassword sets the password of the protected admin account.
func WithBootstrapPassword(password string) Option {
	return func(s *Service) { s.bootstrapPassword = password }
}

// WithBcryptCost sets the hashing cost for admin passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithRand injects the random source used for seeds and stop passwords.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:              repo,
		now:               func() time.Time { return time.Now().UTC() },
		bootstrapPassword: "admin",
		bcryptCost:        bcrypt.DefaultCost,
		rng:               rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) intN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Service) resolveSeed(seed *uint64) uint64 {
	if seed != nil {
		return *seed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint64()
}

func (s *Service) simulateLatency(ctx context.Context) error {
	if s.latencyMax <= 0 {
		return ctx.Err()
	}
	delay := s.latencyMin
	if spread := s.latencyMax - s.latencyMin; spread > 0 {
		s.mu.Lock()
		delay += time.Duration(s.rng.Int64N(int64(spread) + 1))
		s.mu.Unlock()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Timeline generates the roster timelines for a date and applies the filters.
func (s *Service) Timeline(ctx context.Context, q TimelineQuery) (*TimelineView, error) {
	date, err := normalizeDate(q.Date, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	seed := s.resolveSeed(q.Seed)
	roster := activity.NewSeededGenerator(seed).Roster()
	observability.RecordGenerated("timeline", len(roster))

	return &TimelineView{
		Date:      date,
		Seed:      seed,
		Employees: activity.FilterEmployees(roster, q.Departments, q.Search),
	}, nil
}

// Efficiency summarises the filtered timeline by department.
func (s *Service) Efficiency(ctx context.Context, q TimelineQuery) (*EfficiencyView, error) {
	view, err := s.Timeline(ctx, q)
	if err != nil {
		return nil, err
	}
	return &EfficiencyView{
		Date:        view.Date,
		Seed:        view.Seed,
		Departments: activity.Summarize(view.Employees),
	}, nil
}

// DayDetails generates the detail view of one employee-day.
func (s *Service) DayDetails(ctx context.Context, q DayQuery) (*DayView, error) {
	date, err := normalizeDate(q.Date, s.now())
	if err != nil {
		return nil, err
	}
	if q.Scale != "" && q.Scale.Minutes() == 0 {
		return nil, invalidInput("unknown scale %q", q.Scale)
	}
	emp, ok := activity.LookupEmployee(q.EmployeeID)
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	seed := s.resolveSeed(q.Seed)
	details := activity.NewSeededGenerator(seed).DayDetails(activity.DayHeader{
		EmployeeID: emp.ID,
		FullName:   emp.FullName,
		Department: emp.Department,
		Hostname:   emp.Hostname,
		Date:       date,
	})
	observability.RecordGenerated("day_events", len(details.FullViewEvents))

	view := &DayView{Seed: seed, Scale: q.Scale}
	if q.Scale != "" {
		view.Buckets = activity.FilterRows(activity.BucketByScale(details.FullViewEvents, q.Scale), q.Search)
	}
	details.ShortViewRows = activity.FilterRows(details.ShortViewRows, q.Search)
	details.FullViewEvents = activity.FilterEvents(details.FullViewEvents, q.Search)
	view.DayDetails = details
	return view, nil
}

// Rating ranks the reference staff for the requested day.
func (s *Service) Rating(ctx context.Context, q rating.Query) (*rating.Result, error) {
	if q.Date.IsZero() {
		q.Date = s.now()
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	res, err := rating.Rank(q)
	if err != nil {
		return nil, invalidInput("%v", err)
	}
	return &res, nil
}

func (s *Service) seededRules(ctx context.Context, tenantID string) error {
	return s.repo.SeedRules(ctx, tenantID, DefaultRules())
}

// ListRules returns the categorization rules matching q, seeding defaults on first access.
func (s *Service) ListRules(ctx context.Context, q RuleQuery) ([]CategorizationRule, error) {
	switch q.Filter {
	case "", RuleFilterAll, RuleFilterUncategorized, RuleFilterManual:
	default:
		return nil, invalidInput("unknown filter %q", q.Filter)
	}
	switch RuleType(q.Type) {
	case "", "all", RuleTypeWeb, RuleTypeApp:
	default:
		return nil, invalidInput("unknown type %q", q.Type)
	}

	if err := s.seededRules(ctx, q.TenantID); err != nil {
		return nil, err
	}
	rules, err := s.repo.ListRules(ctx, q.TenantID)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]CategorizationRule, 0, len(rules))
	for _, r := range rules {
		if search != "" && !strings.Contains(strings.ToLower(r.Name), search) {
			continue
		}
		if q.Filter == RuleFilterUncategorized && r.Category != CategoryUncategorized {
			continue
		}
		if q.Filter == RuleFilterManual && r.Source != SourceManual {
			continue
		}
		if q.Type != "" && q.Type != "all" && r.Type != RuleType(q.Type) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// SetCategory overrides a rule's category and marks it manual.
func (s *Service) SetCategory(ctx context.Context, tenantID, id string, category Category) (*CategorizationRule, error) {
	if !category.Valid() {
		return nil, invalidInput("unknown category %q", category)
	}
	if err := s.seededRules(ctx, tenantID); err != nil {
		return nil, err
	}
	now := s.now()
	return s.repo.UpdateRule(ctx, tenantID, id, func(r *CategorizationRule) error {
		r.Category = category
		r.Source = SourceManual
		r.UpdatedAt = &now
		return nil
	})
}

// ResetRule restores the shipped category of one rule.
func (s *Service) ResetRule(ctx context.Context, tenantID, id string) (*CategorizationRule, error) {
	if err := s.seededRules(ctx, tenantID); err != nil {
		return nil, err
	}
	now := s.now()
	return s.repo.UpdateRule(ctx, tenantID, id, func(r *CategorizationRule) error {
		r.Reset()
		r.UpdatedAt = &now
		return nil
	})
}

// ResetAllManual restores the shipped category of every rule. Timestamps are left untouched.
func (s *Service) ResetAllManual(ctx context.Context, tenantID string) error {
	if err := s.seededRules(ctx, tenantID); err != nil {
		return err
	}
	return s.repo.UpdateAllRules(ctx, tenantID, func(r *CategorizationRule) { r.Reset() })
}

// ListCalendar returns the marks of a month (YYYY-MM), optionally for one employee.
func (s *Service) ListCalendar(ctx context.Context, tenantID, month, employeeID string) ([]CalendarStatus, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, invalidInput("month must be YYYY-MM, got %q", month)
	}
	if employeeID == AllEmployees {
		employeeID = ""
	}
	statuses, err := s.repo.ListCalendar(ctx, tenantID, month, employeeID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(statuses, func(a, b CalendarStatus) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.EmployeeID, b.EmployeeID)
	})
	return statuses, nil
}

// SetCalendarStatus replaces the employee's mark on one date.
func (s *Service) SetCalendarStatus(ctx context.Context, tenantID string, status CalendarStatus) (*CalendarStatus, error) {
	if err := s.SetCalendarRange(ctx, CalendarRange{
		TenantID:   tenantID,
		EmployeeID: status.EmployeeID,
		From:       status.Date,
		To:         status.Date,
		Status:     status.Status,
	}); err != nil {
		return nil, err
	}
	statuses, err := s.repo.ListCalendar(ctx, tenantID, status.Date, status.EmployeeID)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("calendar status for %s on %s not stored", status.EmployeeID, status.Date)
	}
	return &statuses[0], nil
}

// SetCalendarRange marks every date of the inclusive range with one status.
func (s *Service) SetCalendarRange(ctx context.Context, r CalendarRange) error {
	if strings.TrimSpace(r.EmployeeID) == "" {
		return invalidInput("employee_id is required")
	}
	if !r.Status.Valid() {
		return invalidInput("unknown status %q", r.Status)
	}
	from, err := time.Parse(time.DateOnly, r.From)
	if err != nil {
		return invalidInput("from must be YYYY-MM-DD, got %q", r.From)
	}
	to, err := time.Parse(time.DateOnly, r.To)
	if err != nil {
		return invalidInput("to must be YYYY-MM-DD, got %q", r.To)
	}
	if to.Before(from) {
		return invalidInput("range end %s is before start %s", r.To, r.From)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxCalendarRangeDays {
		return invalidInput("range spans %d days, at most %d allowed", days, maxCalendarRangeDays)
	}

	statuses := make([]CalendarStatus, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		statuses = append(statuses, CalendarStatus{
			ID:         uuid.NewString(),
			EmployeeID: r.EmployeeID,
			Date:       d.Format(time.DateOnly),
			Status:     r.Status,
		})
	}
	return s.repo.ReplaceCalendarRange(ctx, r.TenantID, r.EmployeeID, r.From, r.To, statuses)
}

// RemoveCalendarStatus deletes the employee's mark on a date, if any.
func (s *Service) RemoveCalendarStatus(ctx context.Context, tenantID, employeeID, date string) error {
	if strings.TrimSpace(employeeID) == "" {
		return invalidInput("employee_id is required")
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return invalidInput("date must be YYYY-MM-DD, got %q", date)
	}
	return s.repo.DeleteCalendarStatus(ctx, tenantID, employeeID, date)
}

// GeneralSettings returns the stored settings or the defaults.
func (s *Service) GeneralSettings(ctx context.Context, tenantID string) (GeneralSettings, error) {
	stored, err := s.repo.GetGeneralSettings(ctx, tenantID)
	if err != nil {
		return GeneralSettings{}, err
	}
	if stored == nil {
		return DefaultGeneralSettings(), nil
	}
	return *stored, nil
}

// SaveGeneralSettings validates and stores settings.
func (s *Service) SaveGeneralSettings(ctx context.Context, tenantID string, settings GeneralSettings) error {
	settings.Timezone = strings.TrimSpace(settings.Timezone)
	if settings.Timezone == "" {
		return invalidInput("timezone is required")
	}
	if settings.Language != LanguageRU && settings.Language != LanguageEN {
		return invalidInput("unsupported language %q", settings.Language)
	}
	if settings.IdleThreshold < 0 || settings.LateTolerance < 0 {
		return invalidInput("thresholds must not be negative")
	}
	return s.repo.SaveGeneralSettings(ctx, tenantID, settings)
}

func (s *Service) ensureBootstrapAccount(ctx context.Context, tenantID string) ([]AdminAccount, error) {
	accounts, err := s.repo.ListAccounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(accounts, func(a AdminAccount) bool { return a.Login == BootstrapLogin }) {
		return accounts, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.bootstrapPassword), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}
	err = s.repo.CreateAccount(ctx, tenantID, AdminAccount{
		ID:           bootstrapAccountID,
		Login:        BootstrapLogin,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	})
	if err != nil && !errors.Is(err, ErrDuplicateLogin) {
		return nil, err
	}
	return s.repo.ListAccounts(ctx, tenantID)
}

// ListAccounts returns the admin accounts, creating the bootstrap account on first access.
func (s *Service) ListAccounts(ctx context.Context, tenantID string) ([]AdminAccount, error) {
	return s.ensureBootstrapAccount(ctx, tenantID)
}

// CreateAccount adds an admin account with a bcrypt-hashed password.
func (s *Service) CreateAccount(ctx context.Context, tenantID, login, password string) (*AdminAccount, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, invalidInput("login is required")
	}
	if password == "" {
		return nil, invalidInput("password is required")
	}
	if _, err := s.ensureBootstrapAccount(ctx, tenantID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, invalidInput("%v", err)
	}
	account := AdminAccount{
		ID:           "admin-" + uuid.NewString(),
		Login:        login,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateAccount(ctx, tenantID, account); err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteAccount removes an admin account. The bootstrap account is protected.
func (s *Service) DeleteAccount(ctx context.Context, tenantID, id string) error {
	accounts, err := s.ensureBootstrapAccount(ctx, tenantID)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(accounts, func(a AdminAccount) bool { return a.ID == id })
	if idx < 0 {
		return ErrAccountNotFound
	}
	if accounts[idx].Login == BootstrapLogin {
		return ErrProtectedAccount
	}
	return s.repo.DeleteAccount(ctx, tenantID, id)
}

// GenerateStopPassword issues a fresh agent stop password for an employee,
// replacing the previous one.
func (s *Service) GenerateStopPassword(ctx context.Context, tenantID, employeeID string) (*StopPassword, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, invalidInput("employee_id is required")
	}

	length := stopPasswordMinLen + s.intN(stopPasswordMaxLen-stopPasswordMinLen+1)
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = stopPasswordAlphabet[s.intN(len(stopPasswordAlphabet))]
	}

	entry := StopPassword{
		EmployeeID: employeeID,
		Password:   string(buf),
		CreatedAt:  s.now(),
	}
	if err := s.repo.PutStopPassword(ctx, tenantID, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListStopPasswords returns the current stop password of every employee that has one.
func (s *Service) ListStopPasswords(ctx context.Context, tenantID string) ([]StopPassword, error) {
	return s.repo.ListStopPasswords(ctx, tenantID)
}

// AuditLog lists consumed change events, newest first, with cursor pagination.
func (s *Service) AuditLog(ctx context.Context, tenantID string, cursor *Cursor, limit int) ([]AuditEntry, *Cursor, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	limit = min(limit, maxAuditLimit)
	return s.repo.ListAudit(ctx, tenantID, cursor, limit)
}
