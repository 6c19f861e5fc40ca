// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package postgres implements account persistence on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/account"
)

// poolIface is the subset of pgxpool.Pool the repository needs. Satisfied by
// both *pgxpool.Pool and pgxmock.PgxPoolIface.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AccountRepository implements account.Repository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, name, password_hash, hash_algorithm, registered,
	       last_ip, last_session_start, last_quit, current_step,
	       failed_attempts, locked_until, created_at, updated_at`

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, name, password_hash, hash_algorithm, registered,
			last_ip, last_session_start, last_quit, current_step,
			failed_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		acct.ID.String(),
		acct.Name,
		acct.PasswordHash,
		acct.HashAlgorithm,
		acct.Registered,
		acct.LastIP,
		nullableTime(acct.LastSessionStart),
		nullableTime(acct.LastQuit),
		acct.CurrentStepName,
		acct.FailedAttempts,
		acct.LockedUntil,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_NAME_TAKEN").
				With("name", acct.Name).
				Wrap(account.ErrNameTaken)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("name", acct.Name).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account with its links by stable player ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())

	acct, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	if err := r.loadLinks(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// GetByName retrieves an account with its links by player name (case-insensitive).
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE LOWER(name) = LOWER($1)
	`, name)

	acct, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("name", name).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_NAME_FAILED").
			With("operation", "get account by name").
			With("name", name).
			Wrap(err)
	}
	if err := r.loadLinks(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Update updates the account row. Link rows are managed by UpdateLinks.
func (r *AccountRepository) Update(ctx context.Context, acct *account.Account) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			name = $2,
			password_hash = $3,
			hash_algorithm = $4,
			registered = $5,
			last_ip = $6,
			last_session_start = $7,
			last_quit = $8,
			current_step = $9,
			failed_attempts = $10,
			locked_until = $11,
			updated_at = $12
		WHERE id = $1
	`,
		acct.ID.String(),
		acct.Name,
		acct.PasswordHash,
		acct.HashAlgorithm,
		acct.Registered,
		acct.LastIP,
		nullableTime(acct.LastSessionStart),
		nullableTime(acct.LastQuit),
		acct.CurrentStepName,
		acct.FailedAttempts,
		acct.LockedUntil,
		acct.UpdatedAt,
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", acct.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", acct.ID.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// UpdateLinks replaces the link rows for an account inside one transaction.
func (r *AccountRepository) UpdateLinks(ctx context.Context, acct *account.Account) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_LINKS_FAILED").
			With("operation", "begin transaction").
			With("id", acct.ID.String()).
			Wrap(err)
	}
	defer func() { _ = tx.Rollback(ctx) }() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		`DELETE FROM account_links WHERE account_id = $1`,
		acct.ID.String()); err != nil {
		return oops.Code("ACCOUNT_UPDATE_LINKS_FAILED").
			With("operation", "delete link rows").
			With("id", acct.ID.String()).
			Wrap(err)
	}

	for _, t := range account.AllLinkTypes() {
		lu := acct.FindLink(t)
		if lu == nil {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO account_links (account_id, link_type, identificator, confirmation_enabled, linked_at)
			VALUES ($1, $2, $3, $4, $5)
		`,
			acct.ID.String(),
			string(lu.Type),
			lu.Info.Identificator.String(),
			lu.Info.ConfirmationEnabled,
			nullableTime(lu.LinkedAt),
		); err != nil {
			return oops.Code("ACCOUNT_UPDATE_LINKS_FAILED").
				With("operation", "insert link row").
				With("id", acct.ID.String()).
				With("link_type", string(t)).
				Wrap(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("ACCOUNT_UPDATE_LINKS_FAILED").
			With("operation", "commit transaction").
			With("id", acct.ID.String()).
			Wrap(err)
	}
	return nil
}

// CountLinks returns how many accounts are bound to the given identificator
// for a link type. Used to enforce the per-identity link cap.
func (r *AccountRepository) CountLinks(ctx context.Context, t account.LinkType, identificator string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM account_links
		WHERE link_type = $1 AND identificator = $2 AND identificator <> ''
	`, string(t), identificator).Scan(&count)
	if err != nil {
		return 0, oops.Code("ACCOUNT_COUNT_LINKS_FAILED").
			With("operation", "count link rows").
			With("link_type", string(t)).
			Wrap(err)
	}
	return count, nil
}

// Delete removes an account. Link rows cascade.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM accounts WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		idStr            string
		name             string
		passwordHash     string
		hashAlgorithm    string
		registered       bool
		lastIP           string
		lastSessionStart *time.Time
		lastQuit         *time.Time
		currentStep      string
		failedAttempts   int
		lockedUntil      *time.Time
		createdAt        time.Time
		updatedAt        time.Time
	)

	err := row.Scan(
		&idStr,
		&name,
		&passwordHash,
		&hashAlgorithm,
		&registered,
		&lastIP,
		&lastSessionStart,
		&lastQuit,
		&currentStep,
		&failedAttempts,
		&lockedUntil,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	acct := &account.Account{
		ID:              id,
		Name:            name,
		PasswordHash:    passwordHash,
		HashAlgorithm:   hashAlgorithm,
		Registered:      registered,
		LastIP:          lastIP,
		Links:           make(map[account.LinkType]*account.LinkUser),
		CurrentStepName: currentStep,
		FailedAttempts:  failedAttempts,
		LockedUntil:     lockedUntil,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
	if lastSessionStart != nil {
		acct.LastSessionStart = *lastSessionStart
	}
	if lastQuit != nil {
		acct.LastQuit = *lastQuit
	}
	return acct, nil
}

// loadLinks populates acct.Links from the account_links table.
func (r *AccountRepository) loadLinks(ctx context.Context, acct *account.Account) error {
	rows, err := r.pool.Query(ctx, `
		SELECT link_type, identificator, confirmation_enabled, linked_at
		FROM account_links
		WHERE account_id = $1
	`, acct.ID.String())
	if err != nil {
		return oops.Code("ACCOUNT_LOAD_LINKS_FAILED").
			With("operation", "query link rows").
			With("id", acct.ID.String()).
			Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			typeStr  string
			identStr string
			enabled  bool
			linkedAt *time.Time
		)
		if err := rows.Scan(&typeStr, &identStr, &enabled, &linkedAt); err != nil {
			return oops.Code("ACCOUNT_LOAD_LINKS_FAILED").
				With("operation", "scan link row").
				With("id", acct.ID.String()).
				Wrap(err)
		}

		t := account.LinkType(typeStr)
		if !t.Valid() {
			return oops.Code("ACCOUNT_INVALID_LINK_TYPE").
				With("id", acct.ID.String()).
				With("link_type", typeStr).
				Errorf("unknown link type in database")
		}

		ident, err := parseIdentificator(t, identStr)
		if err != nil {
			return oops.Code("ACCOUNT_INVALID_IDENTIFICATOR").
				With("id", acct.ID.String()).
				With("link_type", typeStr).
				With("identificator", identStr).
				Wrap(err)
		}

		lu := account.NewLinkUser(t, acct.ID)
		lu.Info.Identificator = ident
		lu.Info.ConfirmationEnabled = enabled
		if linkedAt != nil {
			lu.LinkedAt = *linkedAt
		}
		acct.Links[t] = lu
	}
	if err := rows.Err(); err != nil {
		return oops.Code("ACCOUNT_LOAD_LINKS_FAILED").
			With("operation", "iterate link rows").
			With("id", acct.ID.String()).
			Wrap(err)
	}
	return nil
}

// parseIdentificator restores an identificator from its stored text form.
func parseIdentificator(t account.LinkType, s string) (account.Identificator, error) {
	if s == "" {
		return account.Identificator{}, nil
	}
	if !t.UsesNumericID() {
		return account.StringID(s), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return account.Identificator{}, err //nolint:wrapcheck // Callers wrap with context-specific info
	}
	return account.NumericID(n), nil
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Compile-time interface check.
var _ account.Repository = (*AccountRepository)(nil)
