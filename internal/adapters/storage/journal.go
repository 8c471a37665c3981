package storage

// journal.go: registro de resultados por token.
//
// Una fila por token (INSERT OR IGNORE): volver a reportar el mismo token es un no-op.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS trade_reports (
    token_address     TEXT PRIMARY KEY,
    recorded_at       TEXT    NOT NULL,
    entry_age         REAL    NOT NULL DEFAULT 0,
    exit_age          REAL    NOT NULL DEFAULT 0,
    holding_minutes   REAL    NOT NULL DEFAULT 0,
    initial_liquidity REAL    NOT NULL DEFAULT 0,
    buys_24h          INTEGER NOT NULL DEFAULT 0,
    entry_price       REAL    NOT NULL DEFAULT 0,
    exit_price        REAL    NOT NULL DEFAULT 0,
    roi               REAL    NOT NULL DEFAULT 0,
    base_spent        REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_reports_at ON trade_reports(recorded_at);
`

// Journal implementa ports.TradeReporter sobre SQLite.
type Journal struct {
	db *sql.DB
}

// NewJournal abre (o crea) el journal en la ruta dada.
func NewJournal(path string) (*Journal, error) {
	db, err := openSQLite(path, journalSchema)
	if err != nil {
		return nil, fmt.Errorf("storage.NewJournal: %w", err)
	}
	return &Journal{db: db}, nil
}

// RecordTrade guarda el resumen; si el token ya estaba registrado no hace nada.
func (j *Journal) RecordTrade(ctx context.Context, s domain.TradeSummary) error {
	recordedAt := s.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	if _, err := j.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO trade_reports
			(token_address, recorded_at, entry_age, exit_age, holding_minutes,
			 initial_liquidity, buys_24h, entry_price, exit_price, roi, base_spent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.TokenAddress,
		recordedAt.UTC().Format(time.RFC3339Nano),
		s.EntryAge,
		s.ExitAge,
		s.HoldingMinutes,
		s.InitialLiquidity,
		s.Buys24h,
		s.EntryPrice,
		s.ExitPrice,
		s.ROI,
		s.BaseSpent,
	); err != nil {
		return fmt.Errorf("storage.RecordTrade: insert %s: %w", s.TokenAddress, err)
	}
	return nil
}

// Trades devuelve los resúmenes en orden de registro.
func (j *Journal) Trades(ctx context.Context) ([]domain.TradeSummary, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT token_address, recorded_at, entry_age, exit_age, holding_minutes,
		       initial_liquidity, buys_24h, entry_price, exit_price, roi, base_spent
		FROM trade_reports
		ORDER BY recorded_at
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.Trades: query: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeSummary
	for rows.Next() {
		var s domain.TradeSummary
		var recordedAt string
		if err := rows.Scan(
			&s.TokenAddress,
			&recordedAt,
			&s.EntryAge,
			&s.ExitAge,
			&s.HoldingMinutes,
			&s.InitialLiquidity,
			&s.Buys24h,
			&s.EntryPrice,
			&s.ExitPrice,
			&s.ROI,
			&s.BaseSpent,
		); err != nil {
			return nil, fmt.Errorf("storage.Trades: scan row: %w", err)
		}
		s.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Analysis agrega todos los resúmenes registrados.
func (j *Journal) Analysis(ctx context.Context) (domain.TradeAnalysis, error) {
	trades, err := j.Trades(ctx)
	if err != nil {
		return domain.TradeAnalysis{}, fmt.Errorf("storage.Analysis: %w", err)
	}
	return domain.AnalyzeTrades(trades), nil
}

// Close cierra la conexión.
func (j *Journal) Close() error {
	return j.db.Close()
}
