package repo

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"os"
	"sort"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresFlagStore implements FlagStore backed by PostgreSQL. Several
// modelkeep instances sharing a models volume can share one table.
type PostgresFlagStore struct {
	db *sql.DB
}

var _ FlagStore = (*PostgresFlagStore)(nil)

// NewPostgresFlagStore constructs a store using the provided DSN.
func NewPostgresFlagStore(dsn string) (*PostgresFlagStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &PostgresFlagStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresFlagStoreFromEnv constructs a DSN using component env vars.
// Recognized envs (with defaults):
//
//	POSTGRES_HOST (postgres), POSTGRES_PORT (5432), POSTGRES_DB (modelkeep),
//	POSTGRES_USER (modelkeep), POSTGRES_PASSWORD (empty), POSTGRES_SSLMODE (disable)
//
// Credentials and db name are URL-encoded to handle special characters safely.
func NewPostgresFlagStoreFromEnv() (*PostgresFlagStore, error) {
	return NewPostgresFlagStore(PostgresDSNFromEnv())
}

// PostgresDSNFromEnv builds the DSN used by NewPostgresFlagStoreFromEnv.
func PostgresDSNFromEnv() string {
	host := getenv("POSTGRES_HOST", "postgres")
	port := getenv("POSTGRES_PORT", "5432")
	db := getenv("POSTGRES_DB", "modelkeep")
	user := getenv("POSTGRES_USER", "modelkeep")
	pass := getenv("POSTGRES_PASSWORD", "")
	ssl := getenv("POSTGRES_SSLMODE", "disable")

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, pass),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + db,
	}
	q := url.Values{}
	q.Set("sslmode", ssl)
	u.RawQuery = q.Encode()
	return u.String()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (s *PostgresFlagStore) Close() error { return s.db.Close() }

func (s *PostgresFlagStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *PostgresFlagStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS model_flags (
    key TEXT PRIMARY KEY,
    downloaded BOOLEAN NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`)
	return err
}

func (s *PostgresFlagStore) IsDownloaded(ctx context.Context, id string) (bool, error) {
	var set bool
	err := s.db.QueryRowContext(ctx, `SELECT downloaded FROM model_flags WHERE key=$1`, flagKey(id)).Scan(&set)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return set, nil
}

func (s *PostgresFlagStore) Downloaded(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM model_flags WHERE downloaded AND key LIKE $1`, KeyPrefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if id, ok := idFromKey(key); ok {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *PostgresFlagStore) SetDownloaded(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO model_flags (key, downloaded, updated_at) VALUES ($1, TRUE, $2)
ON CONFLICT (key) DO UPDATE SET downloaded = TRUE, updated_at = EXCLUDED.updated_at`, flagKey(id), time.Now())
	return err
}

func (s *PostgresFlagStore) Clear(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM model_flags WHERE key=$1`, flagKey(id))
	return err
}
