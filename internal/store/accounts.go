package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/balancete/internal/model"
)

// Repository reads and writes accounts, journal entries and ledger lines.
// All rows are converted to typed model records here and nowhere else.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a repository over an open database.
func NewRepository(db *DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db.Conn(),
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

const accountColumns = `id, code, name, type, nature, is_synthetic, is_active, parent_id`

// ListAccounts returns the whole chart, active or not, ordered by code.
func (r *Repository) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code, id`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount returns one account, or model.ErrNotFound.
func (r *Repository) GetAccount(ctx context.Context, id string) (model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("account %s: %w", id, model.ErrNotFound)
	}
	return a, err
}

// InsertAccounts stores accounts in one transaction, assigning IDs to those
// without one. It returns the accounts as stored.
func (r *Repository) InsertAccounts(ctx context.Context, accounts []model.Account) ([]model.Account, error) {
	out := make([]model.Account, len(accounts))
	err := WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing account insert: %w", err)
		}
		defer stmt.Close()

		for i, a := range accounts {
			if a.ID == "" {
				a.ID = uuid.NewString()
			}
			if !a.Nature.Valid() {
				a.Nature = a.EffectiveNature()
			}
			_, err := stmt.ExecContext(ctx, a.ID, a.Code, a.Name, string(a.Type), string(a.Nature),
				a.IsSynthetic, a.IsActive, nullString(a.ParentID))
			if err != nil {
				return fmt.Errorf("inserting account %s: %w", a.Code, err)
			}
			out[i] = a
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Debug().Int("count", len(out)).Msg("Inserted accounts")
	return out, nil
}

// SetAccountActive flips the active flag of an account.
func (r *Repository) SetAccountActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("updating account %s: %w", id, err)
	}
	return expectOneRow(res, "account", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (model.Account, error) {
	var a model.Account
	var typ, nature string
	var parentID sql.NullString
	err := s.Scan(&a.ID, &a.Code, &a.Name, &typ, &nature, &a.IsSynthetic, &a.IsActive, &parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, err
		}
		return model.Account{}, fmt.Errorf("scanning account: %w", err)
	}
	a.Type = model.AccountType(typ)
	a.Nature = model.Nature(nature)
	a.ParentID = parentID.String
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOneRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, model.ErrNotFound)
	}
	return nil
}
