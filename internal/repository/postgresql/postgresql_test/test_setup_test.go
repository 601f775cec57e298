package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL and applies the schema. Tests are skipped when
// the variable is not set.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 10, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, postgresql.Migrate(ctx, db))
	require.NoError(t, truncateAll(ctx, db))
	return db
}

// truncateAll empties every table the engine owns.
func truncateAll(ctx context.Context, db *database.DB) error {
	tables := []string{
		"bulletins",
		"pay_runs",
		"payroll_policies",
		"absences",
		"qr_tokens",
		"attendance_records",
		"attendance_rules",
		"employees",
	}

	for _, table := range tables {
		if _, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

func createTestEmployee(t *testing.T, db *database.DB, companyID, code string) string {
	t.Helper()

	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO employees (id, company_id, employee_code, full_name, hire_date, contract_type, pay_rate)
		VALUES (gen_random_uuid(), $1, $2, $2, '2025-01-06', 'DAILY_RATE', 10000)
		RETURNING id
	`, companyID, code).Scan(&id)
	require.NoError(t, err)
	return id
}
