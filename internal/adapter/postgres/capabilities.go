package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaCapabilities describes optional schema features detected once at
// startup. Older deployments predate the policy snapshot columns on loans;
// the loan repository consults this descriptor instead of rediscovering the
// schema per call through caught errors.
type SchemaCapabilities struct {
	// LoanPolicySnapshot is true when the loans table carries the
	// daily_rate_snapshot column family.
	LoanPolicySnapshot bool
	// FinePolicyTable is true when the fine_policies relation exists.
	FinePolicyTable bool
}

const columnExistsSQL = `
SELECT EXISTS (
  SELECT 1 FROM information_schema.columns
  WHERE table_name = $1 AND column_name = $2
)`

const tableExistsSQL = `
SELECT EXISTS (
  SELECT 1 FROM information_schema.tables
  WHERE table_name = $1
)`

// DetectCapabilities probes information_schema and returns the capability
// descriptor for this database.
func DetectCapabilities(ctx context.Context, pool *pgxpool.Pool) (SchemaCapabilities, error) {
	var caps SchemaCapabilities

	if err := pool.QueryRow(ctx, columnExistsSQL, "loans", "daily_rate_snapshot").
		Scan(&caps.LoanPolicySnapshot); err != nil {
		return caps, fmt.Errorf("detect loan snapshot columns: %w", err)
	}

	if err := pool.QueryRow(ctx, tableExistsSQL, "fine_policies").
		Scan(&caps.FinePolicyTable); err != nil {
		return caps, fmt.Errorf("detect fine_policies table: %w", err)
	}

	return caps, nil
}
