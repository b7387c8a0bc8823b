package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/database"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// Schema creates the holdings table; legacy rows leave the position columns NULL
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS holdings (
		id           UUID PRIMARY KEY,
		user_id      TEXT NOT NULL,
		symbol       TEXT NOT NULL,
		type         TEXT,
		status       TEXT,
		entry_price  DOUBLE PRECISION,
		exit_price   DOUBLE PRECISION,
		quantity     DOUBLE PRECISION,
		exchange     TEXT,
		reason       TEXT,
		pl           DOUBLE PRECISION,
		realized_pnl DOUBLE PRECISION,
		trade_date   TIMESTAMPTZ,
		entry_date   TIMESTAMPTZ,
		exit_date    TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS holdings_user_status_idx ON holdings (user_id, status)`,
}

const selectHoldings = `
	SELECT id, user_id, symbol, type, status, entry_price, exit_price, quantity,
	       exchange, reason, pl, realized_pnl, trade_date, entry_date, exit_date, created_at
	FROM holdings
`

// Postgres stores holdings in PostgreSQL
type Postgres struct {
	db     *database.DB
	logger *logger.Logger
	now    func() time.Time
}

// NewPostgres applies the schema and returns the store
func NewPostgres(ctx context.Context, db *database.DB, log *logger.Logger) (*Postgres, error) {
	if err := db.Migrate(ctx, Schema...); err != nil {
		return nil, fmt.Errorf("migrate holdings: %w", err)
	}
	return &Postgres{db: db, logger: log, now: time.Now}, nil
}

// FindByUser returns every journal entry for the user, newest first
func (p *Postgres) FindByUser(ctx context.Context, userID string) (contracts.Portfolio, error) {
	return p.query(ctx, selectHoldings+` WHERE user_id = $1`, userID)
}

// FindActiveByUser returns open positions
func (p *Postgres) FindActiveByUser(ctx context.Context, userID string) (contracts.Portfolio, error) {
	return p.query(ctx, selectHoldings+` WHERE user_id = $1 AND status = $2`, userID, string(contracts.StatusActive))
}

// FindClosedByUser returns closed positions
func (p *Postgres) FindClosedByUser(ctx context.Context, userID string) (contracts.Portfolio, error) {
	return p.query(ctx, selectHoldings+` WHERE user_id = $1 AND status = $2`, userID, string(contracts.StatusClosed))
}

func (p *Postgres) query(ctx context.Context, sql string, args ...interface{}) (contracts.Portfolio, error) {
	rows, err := p.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	return NormalizeAll(docs, p.now()), nil
}

// FindByID returns one of the user's holdings
func (p *Postgres) FindByID(ctx context.Context, userID, id string) (*contracts.Holding, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, contracts.ErrInvalidHoldingID
	}

	row := p.db.Pool.QueryRow(ctx, selectHoldings+` WHERE id = $1 AND user_id = $2`, uid, userID)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrHoldingNotFound
	}
	if err != nil {
		return nil, err
	}

	h := NormalizeDocument(doc, p.now())
	return &h, nil
}

// Insert writes a new ACTIVE position and sets h.ID
func (p *Postgres) Insert(ctx context.Context, h *contracts.Holding) error {
	id := uuid.New()
	_, err := p.db.Pool.Exec(ctx, `
		INSERT INTO holdings (
			id, user_id, symbol, type, status, entry_price, quantity, exchange, reason, entry_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, h.UserID, h.Symbol, string(h.Type), string(h.Status), h.EntryPrice, h.Quantity,
		h.Exchange, h.Reason, h.Date, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert holding: %w", err)
	}
	h.ID = id.String()
	return nil
}

// MarkClosed closes an ACTIVE position inside a transaction
func (p *Postgres) MarkClosed(ctx context.Context, userID, id string, exitPrice, pnl float64, exitDate time.Time) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return contracts.ErrInvalidHoldingID
	}

	return p.db.WithTx(ctx, func(tx pgx.Tx) error {
		var status *string
		err := tx.QueryRow(ctx,
			`SELECT status FROM holdings WHERE id = $1 AND user_id = $2 FOR UPDATE`, uid, userID,
		).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.ErrHoldingNotFound
		}
		if err != nil {
			return fmt.Errorf("lock holding %s: %w", id, err)
		}
		if status == nil || *status != string(contracts.StatusActive) {
			return contracts.ErrHoldingNotActive
		}

		_, err = tx.Exec(ctx, `
			UPDATE holdings
			SET status = $1, exit_price = $2, exit_date = $3, realized_pnl = $4, pl = $4
			WHERE id = $5
		`, string(contracts.StatusClosed), exitPrice, exitDate, pnl, uid)
		if err != nil {
			return fmt.Errorf("close holding %s: %w", id, err)
		}
		return nil
	})
}

// Ping checks the database is reachable
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Shutdown closes the pool
func (p *Postgres) Shutdown(ctx context.Context) error {
	p.db.Close()
	return nil
}

// scanDocument reads one row into the document shape shared with Mongo
func scanDocument(row pgx.Row) (Document, error) {
	var (
		id                                        uuid.UUID
		userID, symbol                            string
		typ, status, exchange, reason             *string
		entryPrice, exitPrice, quantity           *float64
		pl, realizedPnL                           *float64
		tradeDate, entryDate, exitDate, createdAt *time.Time
	)
	err := row.Scan(&id, &userID, &symbol, &typ, &status, &entryPrice, &exitPrice, &quantity,
		&exchange, &reason, &pl, &realizedPnL, &tradeDate, &entryDate, &exitDate, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan holding: %w", err)
	}

	doc := Document{
		"_id":    id.String(),
		"userId": userID,
		"symbol": symbol,
	}
	putString(doc, "type", typ)
	putString(doc, "status", status)
	putString(doc, "exchange", exchange)
	putString(doc, "reason", reason)
	putFloat(doc, "entryPrice", entryPrice)
	putFloat(doc, "exitPrice", exitPrice)
	putFloat(doc, "quantity", quantity)
	putFloat(doc, "pl", pl)
	putFloat(doc, "realizedPnL", realizedPnL)
	putTime(doc, "date", tradeDate)
	putTime(doc, "entryDate", entryDate)
	putTime(doc, "exitDate", exitDate)
	putTime(doc, "createdAt", createdAt)
	return doc, nil
}

func putString(doc Document, key string, v *string) {
	if v != nil {
		doc[key] = *v
	}
}

func putFloat(doc Document, key string, v *float64) {
	if v != nil {
		doc[key] = *v
	}
}

func putTime(doc Document, key string, v *time.Time) {
	if v != nil {
		doc[key] = *v
	}
}
