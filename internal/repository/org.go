package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verdantlabs/pos-register/internal/domain/org"
)

const getOrganizationSQL = `SELECT id, name FROM organizations WHERE id = $1`

var _ org.Repository = (*OrgRepository)(nil)

// OrgRepository implements org.Repository backed by PostgreSQL.
type OrgRepository struct {
	pool  *pgxpool.Pool
	orgID string
}

// NewOrgRepository returns an OrgRepository bound to the configured
// organization.
func NewOrgRepository(pool *pgxpool.Pool, orgID string) *OrgRepository {
	return &OrgRepository{pool: pool, orgID: orgID}
}

// Get returns the configured organization's metadata.
func (r *OrgRepository) Get(ctx context.Context) (*org.Organization, error) {
	var o org.Organization
	err := r.pool.QueryRow(ctx, getOrganizationSQL, r.orgID).Scan(&o.ID, &o.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrNotFound
		}
		return nil, fmt.Errorf("getting organization %q: %w", r.orgID, err)
	}
	return &o, nil
}
