package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *database.DB
	containerOnce   sync.Once
	containerErr    error
)

// tables in child-first order
var tables = []string{
	"receipts",
	"financial_entries",
	"employee_payments",
	"employees",
	"vehicle_costs",
	"vehicles",
	"financial_categories",
}

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (once per test binary) a PostgreSQL container
// and applies the service migrations to it.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    flag.Parse()
//	    if testing.Short() {
//	        os.Exit(m.Run())
//	    }
//	    var err error
//	    suite, err = testutil.NewIntegrationSuite(context.Background())
//	    if err != nil {
//	        log.Fatalf("failed to set up integration suite: %v", err)
//	    }
//	    code := m.Run()
//	    testutil.TerminateContainer(context.Background())
//	    os.Exit(code)
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	log := logger.Nop()

	db, err := getOrCreateDatabase(ctx, log)
	if err != nil {
		return nil, err
	}

	return &IntegrationSuite{
		Container: globalContainer,
		DB:        db,
		Fixtures:  NewFixtureFactory(),
		Logger:    log,
	}, nil
}

// getOrCreateDatabase returns the shared, migrated test database
func getOrCreateDatabase(ctx context.Context, log *logger.Logger) (*database.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		if containerErr = database.Migrate(globalContainer.DSN, log); containerErr != nil {
			return
		}
		globalDB, containerErr = database.NewWithDSN(globalContainer.DSN, log)
	})

	return globalDB, containerErr
}

// Reset empties every table so a test starts from a clean database.
// Tests sharing the suite must not run in parallel.
func (s *IntegrationSuite) Reset(t *testing.T) {
	t.Helper()

	query := fmt.Sprintf("TRUNCATE %s", strings.Join(tables, ", "))
	if _, err := s.DB.ExecContext(context.Background(), query); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Count returns the number of rows in table matching an optional where clause
func (s *IntegrationSuite) Count(t *testing.T, table, where string, args ...interface{}) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}

	var n int
	if err := s.DB.GetContext(context.Background(), &n, query, args...); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalDB != nil {
		globalDB.Close()
	}
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}
