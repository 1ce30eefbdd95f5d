//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/kickaider/internal/domain"
	"example.com/kickaider/internal/events"
	"example.com/kickaider/internal/persistence/postgres/postgrestest"
)

func TestRepositoryRespectsTenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(postgrestest.Start(t, ctx))

	tenantA, tenantB := uuid.NewString(), uuid.NewString()
	require.NoError(t, repo.SeedRules(ctx, tenantA, domain.DefaultRules()))
	require.NoError(t, repo.SeedRules(ctx, tenantA, domain.DefaultRules()), "seeding is idempotent")

	rules, err := repo.ListRules(ctx, tenantA)
	require.NoError(t, err)
	require.Len(t, rules, 22)
	require.Equal(t, "google.com", rules[0].Name)

	other, err := repo.ListRules(ctx, tenantB)
	require.NoError(t, err)
	require.Empty(t, other)

	_, err = repo.UpdateRule(ctx, tenantB, "1", func(*domain.CategorizationRule) error { return nil })
	require.ErrorIs(t, err, domain.ErrRuleNotFound)
}

func TestRepositoryRuleUpdatesWriteOutbox(t *testing.T) {
	ctx := context.Background()
	pool := postgrestest.Start(t, ctx)
	repo := NewRepository(pool)
	tenant := uuid.NewString()
	require.NoError(t, repo.SeedRules(ctx, tenant, domain.DefaultRules()))

	now := time.Now().UTC().Truncate(time.Microsecond)
	updated, err := repo.UpdateRule(ctx, tenant, "2", func(r *domain.CategorizationRule) error {
		r.Category = domain.CategoryProductive
		r.Source = domain.SourceManual
		r.UpdatedAt = &now
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, domain.CategoryProductive, updated.Category)

	require.NoError(t, repo.UpdateAllRules(ctx, tenant, func(r *domain.CategorizationRule) { r.Reset() }))
	rules, err := repo.ListRules(ctx, tenant)
	require.NoError(t, err)
	require.Equal(t, domain.CategoryNeutral, rules[1].Category)
	require.Equal(t, domain.SourceHardcoded, rules[1].Source)
	require.NotNil(t, rules[1].UpdatedAt)

	rows, err := pool.Query(ctx, `SELECT event_type, topic, payload FROM outbox WHERE tenant_id=$1 ORDER BY event_id`, tenant)
	require.NoError(t, err)
	defer rows.Close()

	var types []string
	var first events.CategorizationChanged
	for rows.Next() {
		var eventType, topic string
		var payload []byte
		require.NoError(t, rows.Scan(&eventType, &topic, &payload))
		require.Equal(t, events.Catalog[eventType].Topic, topic)
		if len(types) == 0 {
			require.NoError(t, json.Unmarshal(payload, &first))
		}
		types = append(types, eventType)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{events.TypeCategorizationChanged, events.TypeCategorizationChanged}, types)
	require.Equal(t, "2", first.RuleID)
	require.Equal(t, "productive", first.Category)
}

func TestRepositoryCalendarRangeReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(postgrestest.Start(t, ctx))
	tenant := uuid.NewString()

	mark := func(date string, status domain.CalendarStatusType) domain.CalendarStatus {
		return domain.CalendarStatus{ID: uuid.NewString(), EmployeeID: "emp-1", Date: date, Status: status}
	}

	require.NoError(t, repo.ReplaceCalendarRange(ctx, tenant, "emp-1", "2025-01-30", "2025-02-01", []domain.CalendarStatus{
		mark("2025-01-30", domain.StatusVacation),
		mark("2025-01-31", domain.StatusVacation),
		mark("2025-02-01", domain.StatusVacation),
	}))
	require.NoError(t, repo.ReplaceCalendarRange(ctx, tenant, "emp-1", "2025-01-31", "2025-01-31", []domain.CalendarStatus{
		mark("2025-01-31", domain.StatusSick),
	}))

	jan, err := repo.ListCalendar(ctx, tenant, "2025-01", "")
	require.NoError(t, err)
	require.Len(t, jan, 2)
	require.Equal(t, "2025-01-31", jan[1].Date)
	require.Equal(t, domain.StatusSick, jan[1].Status)

	require.NoError(t, repo.DeleteCalendarStatus(ctx, tenant, "emp-1", "2025-01-30"))
	require.NoError(t, repo.DeleteCalendarStatus(ctx, tenant, "emp-1", "2025-01-30"))
	jan, err = repo.ListCalendar(ctx, tenant, "2025-01", "emp-1")
	require.NoError(t, err)
	require.Len(t, jan, 1)
}

func TestRepositorySettingsAccountsAndAudit(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(postgrestest.Start(t, ctx))
	tenant := uuid.NewString()

	stored, err := repo.GetGeneralSettings(ctx, tenant)
	require.NoError(t, err)
	require.Nil(t, stored)

	want := domain.GeneralSettings{Timezone: "Europe/Moscow", Language: domain.LanguageEN, IdleThreshold: 12, LateTolerance: 3}
	require.NoError(t, repo.SaveGeneralSettings(ctx, tenant, want))
	stored, err = repo.GetGeneralSettings(ctx, tenant)
	require.NoError(t, err)
	require.Equal(t, want, *stored)

	account := domain.AdminAccount{ID: "admin-1", Login: "admin", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateAccount(ctx, tenant, account))
	account.ID = "admin-2"
	require.ErrorIs(t, repo.CreateAccount(ctx, tenant, account), domain.ErrDuplicateLogin)
	require.ErrorIs(t, repo.DeleteAccount(ctx, tenant, "missing"), domain.ErrAccountNotFound)

	require.NoError(t, repo.PutStopPassword(ctx, tenant, domain.StopPassword{EmployeeID: "emp-1", Password: "AAAAAA", CreatedAt: time.Now().UTC()}))
	require.NoError(t, repo.PutStopPassword(ctx, tenant, domain.StopPassword{EmployeeID: "emp-1", Password: "BBBBBBB", CreatedAt: time.Now().UTC()}))
	passwords, err := repo.ListStopPasswords(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, passwords, 1)
	require.Equal(t, "BBBBBBB", passwords[0].Password)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := range 3 {
		require.NoError(t, repo.AppendAudit(ctx, domain.AuditEntry{
			ID:         uuid.NewString(),
			TenantID:   tenant,
			EventType:  events.TypeSettingsChanged,
			Topic:      events.Catalog[events.TypeSettingsChanged].Topic,
			Payload:    json.RawMessage(`{"section":"general"}`),
			ReceivedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	page, next, err := repo.ListAudit(ctx, tenant, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	require.True(t, page[0].ReceivedAt.After(page[1].ReceivedAt))

	rest, next, err := repo.ListAudit(ctx, tenant, next, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Nil(t, next)
}
