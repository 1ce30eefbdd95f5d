package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/kickaider/internal/domain"
	"example.com/kickaider/internal/events"
	"example.com/kickaider/internal/observability"
)

const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence for the dashboard tables and outbox events.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

var _ domain.Repository = (*Repository)(nil)

// inTenant runs fn in a transaction scoped to tenantID for row-level security.
func (r *Repository) inTenant(ctx context.Context, tenantID string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, tenantID, aggregateType, aggregateID, eventType, partitionKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	route, ok := events.Catalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		tenantID,
		aggregateType,
		aggregateID,
		eventType,
		route.Topic,
		route.SchemaSubject,
		partitionKey,
		body,
		fmt.Sprintf("%s:%s", eventType, uuid.NewString()),
	)
	return err
}

const ruleColumns = `rule_id, position, name, rule_type, category, source, hardcoded_category, updated_at`

func scanRule(row pgx.Row) (domain.CategorizationRule, error) {
	var rule domain.CategorizationRule
	var hardcoded *string
	err := row.Scan(&rule.ID, &rule.Position, &rule.Name, &rule.Type, &rule.Category, &rule.Source, &hardcoded, &rule.UpdatedAt)
	if hardcoded != nil {
		rule.HardcodedCategory = domain.Category(*hardcoded)
	}
	return rule, err
}

// SeedRules inserts the supplied rules, leaving existing rows untouched.
func (r *Repository) SeedRules(ctx context.Context, tenantID string, rules []domain.CategorizationRule) error {
	return r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		const stmt = `INSERT INTO categorization_rules (tenant_id, rule_id, position, name, rule_type, category, source, hardcoded_category, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
            ON CONFLICT (tenant_id, rule_id) DO NOTHING`

		batch := &pgx.Batch{}
		for _, rule := range rules {
			batch.Queue(stmt, tenantID, rule.ID, rule.Position, rule.Name, rule.Type, rule.Category, rule.Source, nullIfEmpty(string(rule.HardcodedCategory)), rule.UpdatedAt)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// ListRules returns the tenant's rules in catalogue order.
func (r *Repository) ListRules(ctx context.Context, tenantID string) ([]domain.CategorizationRule, error) {
	var rules []domain.CategorizationRule
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+ruleColumns+` FROM categorization_rules WHERE tenant_id=$1 ORDER BY position, rule_id`, tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rule, err := scanRule(rows)
			if err != nil {
				return err
			}
			rules = append(rules, rule)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func updateRuleRow(ctx context.Context, tx pgx.Tx, tenantID string, rule domain.CategorizationRule) error {
	_, err := tx.Exec(ctx,
		`UPDATE categorization_rules SET category=$3, source=$4, updated_at=$5 WHERE tenant_id=$1 AND rule_id=$2`,
		tenantID, rule.ID, rule.Category, rule.Source, rule.UpdatedAt,
	)
	return err
}

// UpdateRule locks one rule, applies mutate and records a change event.
func (r *Repository) UpdateRule(ctx context.Context, tenantID, id string, mutate func(*domain.CategorizationRule) error) (*domain.CategorizationRule, error) {
	var updated domain.CategorizationRule
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+ruleColumns+` FROM categorization_rules WHERE tenant_id=$1 AND rule_id=$2 FOR UPDATE`, tenantID, id)
		rule, err := scanRule(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRuleNotFound
			}
			return err
		}
		if err := mutate(&rule); err != nil {
			return err
		}
		if err := updateRuleRow(ctx, tx, tenantID, rule); err != nil {
			return err
		}
		updated = rule
		return r.insertOutbox(ctx, tx, tenantID, "categorization_rule", rule.ID, events.TypeCategorizationChanged, tenantID, events.CategorizationChanged{
			TenantID:   tenantID,
			RuleID:     rule.ID,
			Name:       rule.Name,
			Category:   string(rule.Category),
			Source:     string(rule.Source),
			OccurredAt: r.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	observability.RecordMutation(r.now())
	return &updated, nil
}

// UpdateAllRules locks every rule of the tenant and applies mutate to each.
func (r *Repository) UpdateAllRules(ctx context.Context, tenantID string, mutate func(*domain.CategorizationRule)) error {
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+ruleColumns+` FROM categorization_rules WHERE tenant_id=$1 ORDER BY position FOR UPDATE`, tenantID)
		if err != nil {
			return err
		}
		var rules []domain.CategorizationRule
		for rows.Next() {
			rule, err := scanRule(rows)
			if err != nil {
				rows.Close()
				return err
			}
			rules = append(rules, rule)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for i := range rules {
			mutate(&rules[i])
			if err := updateRuleRow(ctx, tx, tenantID, rules[i]); err != nil {
				return err
			}
		}
		return r.insertOutbox(ctx, tx, tenantID, "categorization_rule", tenantID, events.TypeCategorizationChanged, tenantID, events.CategorizationChanged{
			TenantID:   tenantID,
			Bulk:       true,
			OccurredAt: r.now(),
		})
	})
	if err != nil {
		return err
	}
	observability.RecordMutation(r.now())
	return nil
}

// ListCalendar returns marks whose ISO date starts with month.
func (r *Repository) ListCalendar(ctx context.Context, tenantID, month, employeeID string) ([]domain.CalendarStatus, error) {
	const query = `SELECT status_id, employee_id, status_date, status
        FROM calendar_statuses
        WHERE tenant_id=$1 AND to_char(status_date, 'YYYY-MM-DD') LIKE $2::text || '%' AND ($3::text = '' OR employee_id = $3::text)
        ORDER BY status_date, employee_id`

	statuses := make([]domain.CalendarStatus, 0)
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, month, employeeID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s domain.CalendarStatus
			var date time.Time
			if err := rows.Scan(&s.ID, &s.EmployeeID, &date, &s.Status); err != nil {
				return err
			}
			s.Date = date.Format(time.DateOnly)
			statuses = append(statuses, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// ReplaceCalendarRange deletes the employee's marks in [from, to] and inserts statuses in one transaction.
func (r *Repository) ReplaceCalendarRange(ctx context.Context, tenantID, employeeID, from, to string, statuses []domain.CalendarStatus) error {
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM calendar_statuses WHERE tenant_id=$1 AND employee_id=$2 AND status_date BETWEEN $3::date AND $4::date`,
			tenantID, employeeID, from, to,
		); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, st := range statuses {
			batch.Queue(
				`INSERT INTO calendar_statuses (status_id, tenant_id, employee_id, status_date, status) VALUES ($1,$2,$3,$4::date,$5)`,
				st.ID, tenantID, st.EmployeeID, st.Date, string(st.Status),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}

		var status string
		if len(statuses) > 0 {
			status = string(statuses[0].Status)
		}
		return r.insertOutbox(ctx, tx, tenantID, "calendar", employeeID, events.TypeCalendarChanged, tenantID+":"+employeeID, events.CalendarChanged{
			TenantID:   tenantID,
			EmployeeID: employeeID,
			From:       from,
			To:         to,
			Status:     status,
			Action:     events.CalendarActionSet,
			OccurredAt: r.now(),
		})
	})
	if err != nil {
		return err
	}
	observability.RecordMutation(r.now())
	return nil
}

// DeleteCalendarStatus removes one mark. Missing marks are not an error.
func (r *Repository) DeleteCalendarStatus(ctx context.Context, tenantID, employeeID, date string) error {
	return r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM calendar_statuses WHERE tenant_id=$1 AND employee_id=$2 AND status_date=$3::date`,
			tenantID, employeeID, date,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		return r.insertOutbox(ctx, tx, tenantID, "calendar", employeeID, events.TypeCalendarChanged, tenantID+":"+employeeID, events.CalendarChanged{
			TenantID:   tenantID,
			EmployeeID: employeeID,
			From:       date,
			To:         date,
			Action:     events.CalendarActionRemove,
			OccurredAt: r.now(),
		})
	})
}

// GetGeneralSettings returns nil when the tenant has not saved settings.
func (r *Repository) GetGeneralSettings(ctx context.Context, tenantID string) (*domain.GeneralSettings, error) {
	var settings *domain.GeneralSettings
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var s domain.GeneralSettings
		err := tx.QueryRow(ctx,
			`SELECT timezone, language, idle_threshold, late_tolerance FROM general_settings WHERE tenant_id=$1`, tenantID,
		).Scan(&s.Timezone, &s.Language, &s.IdleThreshold, &s.LateTolerance)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		settings = &s
		return nil
	})
	return settings, err
}

// SaveGeneralSettings upserts the tenant's settings.
func (r *Repository) SaveGeneralSettings(ctx context.Context, tenantID string, settings domain.GeneralSettings) error {
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO general_settings (tenant_id, timezone, language, idle_threshold, late_tolerance, updated_at)
             VALUES ($1,$2,$3,$4,$5,NOW())
             ON CONFLICT (tenant_id) DO UPDATE SET timezone=EXCLUDED.timezone, language=EXCLUDED.language,
                 idle_threshold=EXCLUDED.idle_threshold, late_tolerance=EXCLUDED.late_tolerance, updated_at=NOW()`,
			tenantID, settings.Timezone, settings.Language, settings.IdleThreshold, settings.LateTolerance,
		); err != nil {
			return err
		}
		return r.settingsEvent(ctx, tx, tenantID, events.SectionGeneral, "updated", "")
	})
	if err != nil {
		return err
	}
	observability.RecordMutation(r.now())
	return nil
}

func (r *Repository) settingsEvent(ctx context.Context, tx pgx.Tx, tenantID, section, action, subjectID string) error {
	return r.insertOutbox(ctx, tx, tenantID, "settings", section, events.TypeSettingsChanged, tenantID, events.SettingsChanged{
		TenantID:   tenantID,
		Section:    section,
		Action:     action,
		SubjectID:  subjectID,
		OccurredAt: r.now(),
	})
}

// ListAccounts returns the tenant's admin accounts ordered by creation.
func (r *Repository) ListAccounts(ctx context.Context, tenantID string) ([]domain.AdminAccount, error) {
	var accounts []domain.AdminAccount
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT account_id, login, password_hash, created_at FROM admin_accounts WHERE tenant_id=$1 ORDER BY created_at, account_id`, tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var a domain.AdminAccount
			if err := rows.Scan(&a.ID, &a.Login, &a.PasswordHash, &a.CreatedAt); err != nil {
				return err
			}
			accounts = append(accounts, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateAccount inserts an account; a login collision maps to domain.ErrDuplicateLogin.
func (r *Repository) CreateAccount(ctx context.Context, tenantID string, account domain.AdminAccount) error {
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO admin_accounts (tenant_id, account_id, login, password_hash, created_at) VALUES ($1,$2,$3,$4,$5)`,
			tenantID, account.ID, account.Login, account.PasswordHash, account.CreatedAt,
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return domain.ErrDuplicateLogin
			}
			return err
		}
		return r.settingsEvent(ctx, tx, tenantID, events.SectionAccounts, "created", account.ID)
	})
	if err != nil {
		return err
	}
	observability.RecordMutation(r.now())
	return nil
}

// DeleteAccount removes an account by id.
func (r *Repository) DeleteAccount(ctx context.Context, tenantID, id string) error {
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM admin_accounts WHERE tenant_id=$1 AND account_id=$2`, tenantID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAccountNotFound
		}
		return r.settingsEvent(ctx, tx, tenantID, events.SectionAccounts, "deleted", id)
	})
	if err != nil {
		return err
	}
	observability.RecordMutation(r.now())
	return nil
}

// ListStopPasswords returns one entry per employee ordered by issue time.
func (r *Repository) ListStopPasswords(ctx context.Context, tenantID string) ([]domain.StopPassword, error) {
	var entries []domain.StopPassword
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT employee_id, password, created_at, used FROM agent_stop_passwords WHERE tenant_id=$1 ORDER BY created_at, employee_id`, tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p domain.StopPassword
			if err := rows.Scan(&p.EmployeeID, &p.Password, &p.CreatedAt, &p.Used); err != nil {
				return err
			}
			entries = append(entries, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PutStopPassword upserts the employee's stop password.
func (r *Repository) PutStopPassword(ctx context.Context, tenantID string, entry domain.StopPassword) error {
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO agent_stop_passwords (tenant_id, employee_id, password, created_at, used) VALUES ($1,$2,$3,$4,$5)
             ON CONFLICT (tenant_id, employee_id) DO UPDATE SET password=EXCLUDED.password, created_at=EXCLUDED.created_at, used=EXCLUDED.used`,
			tenantID, entry.EmployeeID, entry.Password, entry.CreatedAt, entry.Used,
		); err != nil {
			return err
		}
		return r.settingsEvent(ctx, tx, tenantID, events.SectionStopPasswords, "generated", entry.EmployeeID)
	})
	if err != nil {
		return err
	}
	observability.RecordMutation(r.now())
	return nil
}

// AppendAudit stores a consumed event. Redelivered entries with the same id are ignored.
func (r *Repository) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = r.now()
	}
	err := r.inTenant(ctx, entry.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO audit_log (audit_id, tenant_id, event_type, topic, payload, received_at) VALUES ($1,$2,$3,$4,$5,$6)
             ON CONFLICT (audit_id) DO NOTHING`,
			entry.ID, entry.TenantID, entry.EventType, entry.Topic, []byte(entry.Payload), entry.ReceivedAt,
		)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordAuditAppended(entry.ReceivedAt)
	return nil
}

// ListAudit returns audit entries newest first with keyset pagination.
func (r *Repository) ListAudit(ctx context.Context, tenantID string, cursor *domain.Cursor, limit int) ([]domain.AuditEntry, *domain.Cursor, error) {
	args := []any{tenantID, limit}
	query := `SELECT audit_id, tenant_id, event_type, topic, payload, received_at FROM audit_log WHERE tenant_id=$1`
	if cursor != nil {
		query += ` AND (received_at, audit_id) < ($3, $4)`
		args = append(args, cursor.At, cursor.ID)
	}
	query += ` ORDER BY received_at DESC, audit_id DESC LIMIT $2`

	results := make([]domain.AuditEntry, 0, limit)
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e domain.AuditEntry
			var payload []byte
			if err := rows.Scan(&e.ID, &e.TenantID, &e.EventType, &e.Topic, &payload, &e.ReceivedAt); err != nil {
				return err
			}
			e.Payload = payload
			results = append(results, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		next = &domain.Cursor{At: last.ReceivedAt, ID: last.ID}
	}
	return results, next, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
