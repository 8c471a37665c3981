package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tokens (
    token_address TEXT PRIMARY KEY,
    document      JSONB       NOT NULL,
    score         INTEGER     NOT NULL DEFAULT 0,
    is_good_trade BOOLEAN     NOT NULL DEFAULT FALSE,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS token_trades (
    id            BIGSERIAL PRIMARY KEY,
    token_address TEXT        NOT NULL,
    side          TEXT        NOT NULL,
    record        JSONB       NOT NULL,
    traded_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tokens_good  ON tokens(is_good_trade, score DESC);
CREATE INDEX IF NOT EXISTS idx_trades_token ON token_trades(token_address, id);
`

// PostgresStore implementa ports.TokenStore sobre PostgreSQL.
// Mismo modelo que SQLiteStore: documento JSONB + historial append-only.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPool conecta y verifica la conexión.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresPool: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresPool: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage.NewPostgresPool: ping: %w", err)
	}
	return pool, nil
}

// NewPostgresStore aplica el schema y devuelve el store. El pool pasa a ser del store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStore: apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SaveToken(ctx context.Context, doc domain.TokenDocument) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("storage.SaveToken: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tokens (token_address, document, score, is_good_trade, updated_at)
		VALUES ($1, $2::JSONB, $3, $4, $5)
		ON CONFLICT (token_address) DO UPDATE SET
			document      = EXCLUDED.document,
			score         = EXCLUDED.score,
			is_good_trade = EXCLUDED.is_good_trade,
			updated_at    = EXCLUDED.updated_at`,
		doc.TokenAddress, string(data), doc.Analysis.Score, doc.Analysis.IsGoodTrade, doc.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveToken: upsert %s: %w", doc.TokenAddress, err)
	}
	return nil
}

func (s *PostgresStore) GetToken(ctx context.Context, tokenAddress string) (domain.TokenDocument, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM tokens WHERE token_address = $1`, tokenAddress,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TokenDocument{}, fmt.Errorf("storage.GetToken %s: %w", tokenAddress, domain.ErrNotFound)
	}
	if err != nil {
		return domain.TokenDocument{}, fmt.Errorf("storage.GetToken: query %s: %w", tokenAddress, err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return domain.TokenDocument{}, fmt.Errorf("storage.GetToken: %w", err)
	}

	trades, err := s.trades(ctx, tokenAddress)
	if err != nil {
		return domain.TokenDocument{}, fmt.Errorf("storage.GetToken: %w", err)
	}
	withTrades(&doc, trades)
	return doc, nil
}

func (s *PostgresStore) FindGoodTrades(ctx context.Context) ([]domain.TokenDocument, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT document FROM tokens
		WHERE is_good_trade
		ORDER BY score DESC, updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage.FindGoodTrades: query: %w", err)
	}
	defer rows.Close()

	docs := []domain.TokenDocument{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage.FindGoodTrades: scan row: %w", err)
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("storage.FindGoodTrades: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.FindGoodTrades: %w", err)
	}
	rows.Close()

	for i := range docs {
		trades, err := s.trades(ctx, docs[i].TokenAddress)
		if err != nil {
			return nil, fmt.Errorf("storage.FindGoodTrades: %w", err)
		}
		withTrades(&docs[i], trades)
	}
	return docs, nil
}

func (s *PostgresStore) AppendTrade(ctx context.Context, tokenAddress string, trade domain.TradeRecord) error {
	data, err := encodeTrade(trade)
	if err != nil {
		return fmt.Errorf("storage.AppendTrade: %w", err)
	}
	ts := trade.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO token_trades (token_address, side, record, traded_at) VALUES ($1, $2, $3::JSONB, $4)`,
		tokenAddress, string(trade.Side), string(data), ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.AppendTrade: insert %s: %w", tokenAddress, err)
	}
	return nil
}

func (s *PostgresStore) trades(ctx context.Context, tokenAddress string) ([]domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM token_trades WHERE token_address = $1 ORDER BY id`, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query trades %s: %w", tokenAddress, err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		tr, err := decodeTrade(raw)
		if err != nil {
			return nil, err
		}
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}

// Close cierra el pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
