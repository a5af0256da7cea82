package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/models"
	"optionflow/internal/pricing"
)

// SQLiteStore implements ScenarioStore using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite-based scenario store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Named parameter sets
	CREATE TABLE IF NOT EXISTS scenarios (
		name TEXT PRIMARY KEY,
		spot REAL NOT NULL,
		strike REAL NOT NULL,
		time_to_expiry REAL NOT NULL,
		rate REAL NOT NULL,
		volatility REAL NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Journal of pricing runs
	CREATE TABLE IF NOT EXISTS evaluations (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL DEFAULT '',
		spot REAL NOT NULL,
		strike REAL NOT NULL,
		time_to_expiry REAL NOT NULL,
		rate REAL NOT NULL,
		volatility REAL NOT NULL,
		call_price REAL NOT NULL,
		put_price REAL NOT NULL,
		call_delta REAL NOT NULL,
		put_delta REAL NOT NULL,
		gamma REAL NOT NULL,
		vega REAL NOT NULL,
		call_theta REAL NOT NULL,
		put_theta REAL NOT NULL,
		call_rho REAL NOT NULL,
		put_rho REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_scenario ON evaluations(scenario, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func dbError(op, name string, err error) error {
	return apperrors.NewStoreError(op, name, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
}

// ============================================================================
// Scenario Methods
// ============================================================================

// SaveScenario inserts or replaces a named scenario. CreatedAt survives updates.
func (s *SQLiteStore) SaveScenario(ctx context.Context, scenario *models.Scenario) error {
	name, err := NormalizeName(scenario.Name)
	if err != nil {
		return err
	}
	if err := pricing.Validate(scenario.Params); err != nil {
		return err
	}

	now := s.now()
	p := scenario.Params
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scenarios (name, spot, strike, time_to_expiry, rate, volatility, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			spot = excluded.spot,
			strike = excluded.strike,
			time_to_expiry = excluded.time_to_expiry,
			rate = excluded.rate,
			volatility = excluded.volatility,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`, name, p.Spot, p.Strike, p.TimeToExpiry, p.RiskFreeRate, p.Volatility, scenario.Notes, now, now)
	if err != nil {
		return dbError("save", name, err)
	}

	var createdAt time.Time
	if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM scenarios WHERE name = ?`, name).Scan(&createdAt); err != nil {
		return dbError("save", name, err)
	}

	scenario.Name = name
	scenario.CreatedAt = createdAt
	scenario.UpdatedAt = now
	return nil
}

// GetScenario retrieves a scenario by name.
func (s *SQLiteStore) GetScenario(ctx context.Context, name string) (*models.Scenario, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	var sc models.Scenario
	err = s.db.QueryRowContext(ctx, `
		SELECT name, spot, strike, time_to_expiry, rate, volatility, notes, created_at, updated_at
		FROM scenarios WHERE name = ?
	`, name).Scan(&sc.Name, &sc.Params.Spot, &sc.Params.Strike, &sc.Params.TimeToExpiry,
		&sc.Params.RiskFreeRate, &sc.Params.Volatility, &sc.Notes, &sc.CreatedAt, &sc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewStoreError("get", name, apperrors.ErrScenarioNotFound)
	}
	if err != nil {
		return nil, dbError("get", name, err)
	}

	return &sc, nil
}

// ListScenarios returns all saved scenarios ordered by name.
func (s *SQLiteStore) ListScenarios(ctx context.Context) ([]models.Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, spot, strike, time_to_expiry, rate, volatility, notes, created_at, updated_at
		FROM scenarios ORDER BY name
	`)
	if err != nil {
		return nil, dbError("list", "", err)
	}
	defer rows.Close()

	var scenarios []models.Scenario
	for rows.Next() {
		var sc models.Scenario
		if err := rows.Scan(&sc.Name, &sc.Params.Spot, &sc.Params.Strike, &sc.Params.TimeToExpiry,
			&sc.Params.RiskFreeRate, &sc.Params.Volatility, &sc.Notes, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, dbError("list", "", err)
		}
		scenarios = append(scenarios, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, dbError("list", "", err)
	}
	return scenarios, nil
}

// DeleteScenario removes a scenario. Its evaluation journal is kept.
func (s *SQLiteStore) DeleteScenario(ctx context.Context, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE name = ?`, name)
	if err != nil {
		return dbError("delete", name, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.NewStoreError("delete", name, apperrors.ErrScenarioNotFound)
	}

	return nil
}

// ============================================================================
// Evaluation Methods
// ============================================================================

// LogEvaluation appends a pricing run to the journal, assigning an ID and
// timestamp when they are unset. A non-empty scenario name is normalized.
func (s *SQLiteStore) LogEvaluation(ctx context.Context, eval *models.Evaluation) error {
	if eval.Scenario != "" {
		name, err := NormalizeName(eval.Scenario)
		if err != nil {
			return err
		}
		eval.Scenario = name
	}
	if err := pricing.Validate(eval.Params); err != nil {
		return err
	}
	if eval.ID == "" {
		eval.ID = uuid.New().String()
	}
	if eval.CreatedAt.IsZero() {
		eval.CreatedAt = s.now()
	}

	p, r := eval.Params, eval.Result
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations (id, scenario, spot, strike, time_to_expiry, rate, volatility,
			call_price, put_price, call_delta, put_delta, gamma, vega, call_theta, put_theta, call_rho, put_rho, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, eval.ID, eval.Scenario, p.Spot, p.Strike, p.TimeToExpiry, p.RiskFreeRate, p.Volatility,
		r.CallPrice, r.PutPrice, r.CallDelta, r.PutDelta, r.Gamma, r.Vega, r.CallTheta, r.PutTheta, r.CallRho, r.PutRho,
		eval.CreatedAt)
	if err != nil {
		return dbError("log_evaluation", eval.Scenario, err)
	}

	return nil
}

// GetEvaluations returns the most recent journal entries, newest first. An
// empty scenario name returns entries for every scenario.
func (s *SQLiteStore) GetEvaluations(ctx context.Context, scenario string, limit int) ([]models.Evaluation, error) {
	if scenario != "" {
		name, err := NormalizeName(scenario)
		if err != nil {
			return nil, err
		}
		scenario = name
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, scenario, spot, strike, time_to_expiry, rate, volatility,
			call_price, put_price, call_delta, put_delta, gamma, vega, call_theta, put_theta, call_rho, put_rho, created_at
		FROM evaluations`
	args := []interface{}{}
	if scenario != "" {
		query += " WHERE scenario = ?"
		args = append(args, scenario)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("history", scenario, err)
	}
	defer rows.Close()

	var evals []models.Evaluation
	for rows.Next() {
		var e models.Evaluation
		p, r := &e.Params, &e.Result
		if err := rows.Scan(&e.ID, &e.Scenario, &p.Spot, &p.Strike, &p.TimeToExpiry, &p.RiskFreeRate, &p.Volatility,
			&r.CallPrice, &r.PutPrice, &r.CallDelta, &r.PutDelta, &r.Gamma, &r.Vega, &r.CallTheta, &r.PutTheta,
			&r.CallRho, &r.PutRho, &e.CreatedAt); err != nil {
			return nil, dbError("history", scenario, err)
		}
		evals = append(evals, e)
	}

	if err := rows.Err(); err != nil {
		return nil, dbError("history", scenario, err)
	}
	return evals, nil
}
