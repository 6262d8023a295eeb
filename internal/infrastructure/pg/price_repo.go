package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockprices-service/internal/application"
	"stockprices-service/internal/domain"
	"stockprices-service/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	_ application.PriceStore       = (*PriceRepo)(nil)
	_ application.PriceHistoryRepo = (*PriceRepo)(nil)
)

// PriceRepo stores the latest record per symbol in stock_market and the
// throttled history in stock_history. Methods join a transaction started by
// UnitOfWork when one is carried in the context.
type PriceRepo struct{ db *DB }

func NewPriceRepo(db *DB) *PriceRepo { return &PriceRepo{db: db} }

// storageErr classifies a driver error. SQLSTATE class 22 (data exception)
// depends on the values written, not on the database's health.
func storageErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "22") {
		return fmt.Errorf("%w: %s: %w", application.ErrRecordRejected, op, err)
	}
	return fmt.Errorf("%w: %s: %w", application.ErrStorage, op, err)
}

func (r *PriceRepo) Upsert(ctx context.Context, rec domain.PriceRecord) error {
	const up = `
        INSERT INTO stock_market(symbol, price, change, change_percent, observed_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (symbol) DO UPDATE
          SET price=EXCLUDED.price,
              change=EXCLUDED.change,
              change_percent=EXCLUDED.change_percent,
              observed_at=EXCLUDED.observed_at,
              updated_at=EXCLUDED.updated_at`
	log := logx.L().With(
		zap.String("repo", "price"),
		zap.String("operation", "Upsert"),
		zap.String("symbol", string(rec.Symbol)),
	)
	log.Debug("sql.exec_start")
	tag, err := r.db.q(ctx).Exec(ctx, up, string(rec.Symbol), rec.Price, rec.Change, rec.ChangePercent, rec.ObservedAt)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return storageErr("upsert", err)
	}
	log.Debug("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

func (r *PriceRepo) GetAll(ctx context.Context) ([]domain.PriceRecord, error) {
	const q = `SELECT symbol, price, change, change_percent, observed_at FROM stock_market`
	rows, err := r.db.q(ctx).Query(ctx, q)
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "price"), zap.String("operation", "GetAll"), zap.Error(err))
		return nil, storageErr("get all", err)
	}
	defer rows.Close()
	out := make([]domain.PriceRecord, 0)
	for rows.Next() {
		var rec domain.PriceRecord
		if err := rows.Scan(&rec.Symbol, &rec.Price, &rec.Change, &rec.ChangePercent, &rec.ObservedAt); err != nil {
			return nil, storageErr("scan", err)
		}
		rec.ObservedAt = rec.ObservedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get all", err)
	}
	return out, nil
}

func (r *PriceRepo) GetBySymbol(ctx context.Context, sym domain.Symbol) (domain.PriceRecord, error) {
	const q = `SELECT symbol, price, change, change_percent, observed_at FROM stock_market WHERE symbol=$1`
	var rec domain.PriceRecord
	err := r.db.q(ctx).QueryRow(ctx, q, string(sym)).Scan(&rec.Symbol, &rec.Price, &rec.Change, &rec.ChangePercent, &rec.ObservedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PriceRecord{}, application.ErrNotFound
	}
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "price"), zap.String("operation", "GetBySymbol"), zap.Error(err))
		return domain.PriceRecord{}, storageErr("get by symbol", err)
	}
	rec.ObservedAt = rec.ObservedAt.UTC()
	return rec, nil
}

func (r *PriceRepo) AppendHistory(ctx context.Context, h domain.PriceHistory) error {
	_, err := r.db.q(ctx).Exec(ctx, `
        INSERT INTO stock_history(symbol, price, change, change_percent, observed_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (symbol, observed_at) DO NOTHING
    `, string(h.Symbol), h.Price, h.Change, h.ChangePercent, h.ObservedAt)
	if err != nil {
		logx.L().Error("sql.exec_failed", zap.String("repo", "price"), zap.String("operation", "AppendHistory"), zap.Error(err))
		return storageErr("append history", err)
	}
	return nil
}

func (r *PriceRepo) ListHistory(ctx context.Context, sym domain.Symbol, limit int) ([]domain.PriceHistory, error) {
	const q = `
        SELECT id, symbol, price, change, change_percent, observed_at, inserted_at
        FROM stock_history
        WHERE symbol=$1
        ORDER BY observed_at DESC
        LIMIT $2`
	rows, err := r.db.q(ctx).Query(ctx, q, string(sym), limit)
	if err != nil {
		return nil, storageErr("list history", err)
	}
	defer rows.Close()
	out := make([]domain.PriceHistory, 0)
	for rows.Next() {
		var h domain.PriceHistory
		if err := rows.Scan(&h.ID, &h.Symbol, &h.Price, &h.Change, &h.ChangePercent, &h.ObservedAt, &h.InsertedAt); err != nil {
			return nil, storageErr("scan history", err)
		}
		h.ObservedAt, h.InsertedAt = h.ObservedAt.UTC(), h.InsertedAt.UTC()
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list history", err)
	}
	return out, nil
}
