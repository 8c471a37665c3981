package storage

// sqlite.go: documentos de token y su historial de trades.
//
// Estrategia:
//   - `tokens`: UNA fila por dirección (UPSERT). El documento va serializado en JSON;
//     score e is_good_trade se duplican en columnas para poder ordenar y filtrar.
//   - `token_trades`: append-only. Los trades no viven en el JSON del documento,
//     así SaveToken nunca pisa el historial.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
    token_address TEXT PRIMARY KEY,
    document      TEXT     NOT NULL,
    score         INTEGER  NOT NULL DEFAULT 0,
    is_good_trade INTEGER  NOT NULL DEFAULT 0,
    updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS token_trades (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    token_address TEXT     NOT NULL,
    side          TEXT     NOT NULL,
    record        TEXT     NOT NULL,
    traded_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tokens_good   ON tokens(is_good_trade, score DESC);
CREATE INDEX IF NOT EXISTS idx_trades_token  ON token_trades(token_address, id);
`

// SQLiteStore implementa ports.TokenStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := openSQLite(path, schema)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func openSQLite(path, ddl string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// SaveToken hace upsert del documento. Los trades existentes se conservan.
func (s *SQLiteStore) SaveToken(ctx context.Context, doc domain.TokenDocument) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("storage.SaveToken: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (token_address, document, score, is_good_trade, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token_address) DO UPDATE SET
			document      = excluded.document,
			score         = excluded.score,
			is_good_trade = excluded.is_good_trade,
			updated_at    = excluded.updated_at
	`, doc.TokenAddress, string(data), doc.Analysis.Score, boolInt(doc.Analysis.IsGoodTrade), doc.UpdatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveToken: upsert %s: %w", doc.TokenAddress, err)
	}
	return nil
}

// GetToken devuelve el documento con su historial, o domain.ErrNotFound.
func (s *SQLiteStore) GetToken(ctx context.Context, tokenAddress string) (domain.TokenDocument, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM tokens WHERE token_address = ?`, tokenAddress,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TokenDocument{}, fmt.Errorf("storage.GetToken %s: %w", tokenAddress, domain.ErrNotFound)
	}
	if err != nil {
		return domain.TokenDocument{}, fmt.Errorf("storage.GetToken: query %s: %w", tokenAddress, err)
	}

	doc, err := decodeDocument([]byte(data))
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

// FindGoodTrades devuelve los documentos marcados como buen trade, score desc,
// con su historial de trades.
func (s *SQLiteStore) FindGoodTrades(ctx context.Context) ([]domain.TokenDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document FROM tokens
		WHERE is_good_trade = 1
		ORDER BY score DESC, updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.FindGoodTrades: query: %w", err)
	}
	defer rows.Close()

	docs := []domain.TokenDocument{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage.FindGoodTrades: scan row: %w", err)
		}
		doc, err := decodeDocument([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("storage.FindGoodTrades: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.FindGoodTrades: %w", err)
	}
	// Con una sola conexión hay que cerrar el cursor antes de la siguiente query.
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

// AppendTrade añade un trade al historial del token.
func (s *SQLiteStore) AppendTrade(ctx context.Context, tokenAddress string, trade domain.TradeRecord) error {
	data, err := encodeTrade(trade)
	if err != nil {
		return fmt.Errorf("storage.AppendTrade: %w", err)
	}
	ts := trade.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO token_trades (token_address, side, record, traded_at) VALUES (?, ?, ?, ?)`,
		tokenAddress, string(trade.Side), string(data), ts.UTC(),
	); err != nil {
		return fmt.Errorf("storage.AppendTrade: insert %s: %w", tokenAddress, err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) trades(ctx context.Context, tokenAddress string) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM token_trades WHERE token_address = ? ORDER BY id`, tokenAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("query trades %s: %w", tokenAddress, err)
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		tr, err := decodeTrade([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
