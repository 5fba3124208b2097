//go:build integration

package integration

import (
	"context"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/wardsuite/clinic-desk/internal/app"
	"github.com/wardsuite/clinic-desk/internal/config"
	"github.com/wardsuite/clinic-desk/internal/testutil"
)

var (
	testServer    *httptest.Server
	testValidator *testutil.OpenAPIValidator
	testDB        *pgxpool.Pool
)

// OpenAPI spec path relative to the tests/integration directory.
const openAPISpecPath = "../../api/openapi/openapi.yaml"

// newTestClient creates a new test client with OpenAPI validation enabled.
// Use this at the beginning of each test that makes API calls.
func newTestClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := testutil.NewClientWithValidator(testServer.URL, testValidator)
	client.SetT(t)
	return client
}

// newTestClientWithoutValidation creates a test client without OpenAPI
// validation, for tests that intentionally exercise invalid requests.
func newTestClientWithoutValidation() *testutil.Client {
	return testutil.NewClient(testServer.URL)
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	migrator, err := migrate.New(
		"file://../../migrations",
		pgContainer.ConnectionString,
	)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("run migrations: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         "0",
			MetricsPort:  "0",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: config.DatabaseConfig{
			URL:             pgContainer.ConnectionString,
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 3,
		},
		Session: config.SessionConfig{
			Backend: "memory",
			TTL:     time.Hour,
		},
		Auth: config.AuthConfig{
			// Minimum cost keeps the legacy-upgrade tests fast.
			BcryptCost:  bcrypt.MinCost,
			TokenSecret: "test-secret-key",
			TokenTTL:    15 * time.Minute,
			// Throttling disabled; the tests hammer the same identifiers.
			LoginRatePerMinute: 0,
		},
		Cookie: config.CookieConfig{
			Secure: false,
		},
		Audit: config.AuditConfig{
			Enabled:       true,
			QueueSize:     64,
			BatchSize:     8,
			FlushInterval: 100 * time.Millisecond,
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "text",
		},
	}

	testDB, err = pgxpool.New(ctx, pgContainer.ConnectionString)
	if err != nil {
		log.Fatalf("create test db pool: %v", err)
	}
	if err := seedPrincipals(ctx, testDB); err != nil {
		log.Fatalf("seed principals: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}

	testServer = httptest.NewServer(application.Router())

	testValidator, err = testutil.LoadOpenAPIValidator(openAPISpecPath)
	if err != nil {
		log.Fatalf("load OpenAPI validator: %v", err)
	}

	code := m.Run()

	testServer.Close()
	testDB.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown app: %v", err)
	}

	os.Exit(code)
}

// seedPrincipals creates the accounts the suite logs in with. legacyuser
// deliberately carries a plaintext verifier to exercise the upgrade path.
func seedPrincipals(ctx context.Context, db *pgxpool.Pool) error {
	hash := func(password string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		return string(h)
	}

	rows := [][]interface{}{
		{"admin", hash("admin123"), "admin"},
		{"drhouse", hash("house123"), "doctor"},
		{"nurse1", hash("nurse123"), "nurse"},
		{"frontdesk", hash("frontdesk123"), "receptionist"},
		{"legacyuser", "plain123", "nurse"},
	}

	for _, row := range rows {
		_, err := db.Exec(ctx,
			`INSERT INTO principals (identifier, verifier, role) VALUES ($1, $2, $3)`,
			row...)
		if err != nil {
			return err
		}
	}
	return nil
}
