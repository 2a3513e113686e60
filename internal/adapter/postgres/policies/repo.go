// Package policies implements the FinePolicy lookup table. The relation is
// optional: deployments without it degrade to role-based defaults, signalled
// by ErrPolicyTableMissing.
package policies

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides fine-policy lookups backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new policy repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const lookupSQL = `
SELECT id, media_kind, user_category, loan_days, daily_rate, grace_days, max_fine, replacement_fee
FROM fine_policies
WHERE media_kind = $1 AND user_category = $2`

// Lookup returns the policy row for (media kind, user category).
// ErrNotFound when no row matches; ErrPolicyTableMissing when the relation
// itself does not exist in this deployment.
func (r *Repo) Lookup(ctx context.Context, kind domain.MediaKind, category domain.UserCategory) (*domain.LoanPolicy, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var p domain.LoanPolicy
	err := q.QueryRow(ctx, lookupSQL, kind, category).
		Scan(&p.ID, &p.MediaKind, &p.Category, &p.LoanDays, &p.DailyRate,
			&p.GraceDays, &p.MaxFine, &p.ReplacementFee)
	if err != nil {
		if postgres.IsUndefinedTable(err) {
			return nil, fmt.Errorf("policy %s/%s: %w", kind, category, domain.ErrPolicyTableMissing)
		}
		return nil, postgres.MapError(err, "policy", fmt.Sprintf("%s/%s", kind, category))
	}
	return &p, nil
}
