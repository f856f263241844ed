package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/pos-register/internal/till"
)

const (
	insertSessionSQL = `INSERT INTO register_sessions
		(organization_id, register_id, opening_float, opened_at)
		VALUES ($1, $2, $3, $4)`

	closeSessionSQL = `UPDATE register_sessions SET closed_at = $3
		WHERE organization_id = $1 AND register_id = $2 AND closed_at IS NULL`
)

var _ till.Journal = (*SessionJournal)(nil)

// SessionJournal records register open/close events for the audit trail.
type SessionJournal struct {
	pool  *pgxpool.Pool
	orgID string
}

// NewSessionJournal returns a SessionJournal for the given organization.
func NewSessionJournal(pool *pgxpool.Pool, orgID string) *SessionJournal {
	return &SessionJournal{pool: pool, orgID: orgID}
}

// RecordOpen inserts a session row for the register.
func (j *SessionJournal) RecordOpen(ctx context.Context, registerID string, openingFloat decimal.Decimal, openedAt time.Time) error {
	_, err := j.pool.Exec(ctx, insertSessionSQL, j.orgID, registerID, openingFloat, openedAt)
	if err != nil {
		return fmt.Errorf("recording session open for %q: %w", registerID, err)
	}
	return nil
}

// RecordClose stamps the register's open session row with the close time.
func (j *SessionJournal) RecordClose(ctx context.Context, registerID string, closedAt time.Time) error {
	_, err := j.pool.Exec(ctx, closeSessionSQL, j.orgID, registerID, closedAt)
	if err != nil {
		return fmt.Errorf("recording session close for %q: %w", registerID, err)
	}
	return nil
}
