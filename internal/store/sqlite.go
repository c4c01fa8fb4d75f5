package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trading-journal/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
// reflections.period_id is deliberately NOT unique: writers race and the
// deduplicator reconciles, so the schema must tolerate duplicates.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		instrument TEXT NOT NULL,
		quantity REAL NOT NULL,
		entry_price REAL NOT NULL,
		entry_date DATETIME NOT NULL,
		exit_price REAL,
		exit_date DATETIME,
		initial_stop_loss REAL,
		stop_loss REAL,
		take_profit REAL,
		fees REAL NOT NULL DEFAULT 0,
		partial_exits TEXT,
		contract TEXT,
		max_favorable_price REAL,
		max_adverse_price REAL,
		last_price REAL,
		status TEXT NOT NULL,
		strategy TEXT,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS reflections (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		period_id TEXT NOT NULL,
		period_start DATETIME NOT NULL,
		period_end DATETIME NOT NULL,
		reflection_text TEXT,
		plan_text TEXT,
		grade TEXT,
		trade_ids TEXT,
		total_pnl REAL NOT NULL DEFAULT 0,
		total_r REAL NOT NULL DEFAULT 0,
		last_updated DATETIME NOT NULL,
		is_placeholder INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	CREATE INDEX IF NOT EXISTS idx_trades_entry_date ON trades(entry_date);
	CREATE INDEX IF NOT EXISTS idx_trades_exit_date ON trades(exit_date);
	CREATE INDEX IF NOT EXISTS idx_reflections_period ON reflections(type, period_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveTrade inserts or replaces a trade record.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *models.Trade) error {
	partials, _ := json.Marshal(trade.PartialExits)
	var contract []byte
	if trade.Contract != nil {
		contract, _ = json.Marshal(trade.Contract)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO trades (
			id, symbol, direction, instrument, quantity, entry_price, entry_date,
			exit_price, exit_date, initial_stop_loss, stop_loss, take_profit, fees,
			partial_exits, contract, max_favorable_price, max_adverse_price,
			last_price, status, strategy, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		trade.ID, trade.Symbol, string(trade.Direction), string(trade.Instrument),
		trade.Quantity, trade.EntryPrice, trade.EntryDate,
		nullFloat(trade.ExitPrice), nullTime(trade.ExitDate),
		nullFloat(trade.InitialStopLoss), nullFloat(trade.StopLoss), nullFloat(trade.TakeProfit),
		trade.Fees, string(partials), nullString(contract),
		nullFloat(trade.MaxFavorablePrice), nullFloat(trade.MaxAdversePrice), nullFloat(trade.LastPrice),
		string(trade.Status), trade.Strategy, trade.Notes, trade.CreatedAt, trade.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// GetTrade retrieves a single trade by id, nil when absent.
func (s *SQLiteStore) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, tradeSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	t, err := scanTrade(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTrades retrieves trades matching the filter.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := tradeSelect + " WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if !filter.StartDate.IsZero() {
		query += " AND entry_date >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND entry_date <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY entry_date DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DeleteTrade removes a trade by id.
func (s *SQLiteStore) DeleteTrade(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	return nil
}

const tradeSelect = `SELECT id, symbol, direction, instrument, quantity, entry_price, entry_date,
	exit_price, exit_date, initial_stop_loss, stop_loss, take_profit, fees,
	partial_exits, contract, max_favorable_price, max_adverse_price,
	last_price, status, strategy, notes, created_at, updated_at FROM trades`

func scanTrade(rows *sql.Rows) (models.Trade, error) {
	var t models.Trade
	var direction, instrument, status string
	var exitPrice, initialStop, stopLoss, takeProfit, maxFav, maxAdv, lastPrice sql.NullFloat64
	var exitDate sql.NullTime
	var partialsJSON, contractJSON, strategy, notes sql.NullString

	if err := rows.Scan(
		&t.ID, &t.Symbol, &direction, &instrument, &t.Quantity, &t.EntryPrice, &t.EntryDate,
		&exitPrice, &exitDate, &initialStop, &stopLoss, &takeProfit, &t.Fees,
		&partialsJSON, &contractJSON, &maxFav, &maxAdv, &lastPrice,
		&status, &strategy, &notes, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return t, fmt.Errorf("failed to scan trade: %w", err)
	}

	t.Direction = models.Direction(direction)
	t.Instrument = models.InstrumentType(instrument)
	t.Status = models.TradeStatus(status)
	t.ExitPrice = floatPtr(exitPrice)
	t.InitialStopLoss = floatPtr(initialStop)
	t.StopLoss = floatPtr(stopLoss)
	t.TakeProfit = floatPtr(takeProfit)
	t.MaxFavorablePrice = floatPtr(maxFav)
	t.MaxAdversePrice = floatPtr(maxAdv)
	t.LastPrice = floatPtr(lastPrice)
	t.Strategy = strategy.String
	t.Notes = notes.String
	if exitDate.Valid {
		d := exitDate.Time
		t.ExitDate = &d
	}
	if partialsJSON.Valid && partialsJSON.String != "" {
		json.Unmarshal([]byte(partialsJSON.String), &t.PartialExits)
	}
	if contractJSON.Valid && contractJSON.String != "" {
		json.Unmarshal([]byte(contractJSON.String), &t.Contract)
	}
	return t, nil
}

// SaveReflection inserts or replaces a reflection row by id. Rows with
// the same period id but different ids coexist; last write wins on read.
func (s *SQLiteStore) SaveReflection(ctx context.Context, r *models.Reflection) error {
	tradeIDs, _ := json.Marshal(r.TradeIDs)
	isPlaceholder := 0
	if r.IsPlaceholder {
		isPlaceholder = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reflections (
			id, type, period_id, period_start, period_end, reflection_text,
			plan_text, grade, trade_ids, total_pnl, total_r, last_updated,
			is_placeholder, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, string(r.Type), r.PeriodID, r.PeriodStart, r.PeriodEnd, r.ReflectionText,
		r.PlanText, string(r.Grade), string(tradeIDs), r.TotalPnL, r.TotalR, r.LastUpdated,
		isPlaceholder, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save reflection: %w", err)
	}
	return nil
}

// GetReflection returns the most recently updated reflection for the
// period, or nil when none is stored.
func (s *SQLiteStore) GetReflection(ctx context.Context, typ models.ReflectionType, periodID string) (*models.Reflection, error) {
	rows, err := s.db.QueryContext(ctx,
		reflectionSelect+" WHERE type = ? AND period_id = ? ORDER BY last_updated DESC LIMIT 1",
		string(typ), periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reflection: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanReflection(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReflections returns all reflections of a type, duplicates included.
func (s *SQLiteStore) ListReflections(ctx context.Context, typ models.ReflectionType) ([]models.Reflection, error) {
	rows, err := s.db.QueryContext(ctx,
		reflectionSelect+" WHERE type = ? ORDER BY period_start DESC, last_updated DESC",
		string(typ))
	if err != nil {
		return nil, fmt.Errorf("failed to query reflections: %w", err)
	}
	defer rows.Close()

	var reflections []models.Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		reflections = append(reflections, r)
	}
	return reflections, rows.Err()
}

// DeleteReflection removes a reflection row by id.
func (s *SQLiteStore) DeleteReflection(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM reflections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete reflection: %w", err)
	}
	return nil
}

const reflectionSelect = `SELECT id, type, period_id, period_start, period_end, reflection_text,
	plan_text, grade, trade_ids, total_pnl, total_r, last_updated, is_placeholder, created_at
	FROM reflections`

func scanReflection(rows *sql.Rows) (models.Reflection, error) {
	var r models.Reflection
	var typ, grade string
	var text, plan, tradeIDsJSON sql.NullString
	var isPlaceholder int

	if err := rows.Scan(
		&r.ID, &typ, &r.PeriodID, &r.PeriodStart, &r.PeriodEnd, &text,
		&plan, &grade, &tradeIDsJSON, &r.TotalPnL, &r.TotalR, &r.LastUpdated,
		&isPlaceholder, &r.CreatedAt,
	); err != nil {
		return r, fmt.Errorf("failed to scan reflection: %w", err)
	}

	r.Type = models.ReflectionType(typ)
	r.Grade = models.Grade(grade)
	r.ReflectionText = text.String
	r.PlanText = plan.String
	r.IsPlaceholder = isPlaceholder == 1
	if tradeIDsJSON.Valid && tradeIDsJSON.String != "" {
		json.Unmarshal([]byte(tradeIDsJSON.String), &r.TradeIDs)
	}
	return r, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
