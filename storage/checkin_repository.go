package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ariya-backend/models"
)

const checkinColumns = `id, event_id, wallet, pass_id, pass_hash, qr_ref, direction, tx_digest, organizer, created_at`

// CheckinRepository is the check-in log. Rows mirror confirmed chain
// transactions; the chain stays the source of truth.
type CheckinRepository struct {
	pool *pgxpool.Pool
}

func NewCheckinRepository(pool *pgxpool.Pool) *CheckinRepository {
	return &CheckinRepository{pool: pool}
}

// Record inserts rec and returns the stored row. Recording the same
// transaction and direction twice keeps, and returns, the first row.
func (r *CheckinRepository) Record(ctx context.Context, rec models.CheckinRecord) (models.CheckinRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	// The no-op update makes RETURNING yield the existing row on conflict.
	const query = `
INSERT INTO checkins (` + checkinColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (tx_digest, direction) DO UPDATE SET tx_digest = EXCLUDED.tx_digest
RETURNING ` + checkinColumns

	stored, err := scanCheckin(r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.EventID,
		rec.Wallet,
		int64(rec.PassID),
		rec.PassHash,
		rec.QRRef,
		rec.Direction,
		rec.TxDigest,
		rec.Organizer,
		rec.CreatedAt,
	))
	if err != nil {
		return models.CheckinRecord{}, fmt.Errorf("failed to record check-in: %w", err)
	}
	return stored, nil
}

// ListByEvent returns the event's log, newest first.
func (r *CheckinRepository) ListByEvent(ctx context.Context, eventID string) ([]models.CheckinRecord, error) {
	const query = `SELECT ` + checkinColumns + ` FROM checkins WHERE event_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, eventID)
}

// ListByWallet returns every check-in of a wallet, newest first.
func (r *CheckinRepository) ListByWallet(ctx context.Context, wallet string) ([]models.CheckinRecord, error) {
	const query = `SELECT ` + checkinColumns + ` FROM checkins WHERE wallet = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, wallet)
}

// Latest returns the newest row for a wallet at an event, or nil.
func (r *CheckinRepository) Latest(ctx context.Context, eventID, wallet string) (*models.CheckinRecord, error) {
	const query = `SELECT ` + checkinColumns + ` FROM checkins WHERE event_id = $1 AND wallet = $2 ORDER BY created_at DESC LIMIT 1`
	rec, err := scanCheckin(r.pool.QueryRow(ctx, query, eventID, wallet))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest check-in: %w", err)
	}
	return &rec, nil
}

// CountByDirection counts the event's check-ins and check-outs.
func (r *CheckinRepository) CountByDirection(ctx context.Context, eventID string) (in, out int, err error) {
	const query = `
SELECT
	COUNT(*) FILTER (WHERE direction = 'in'),
	COUNT(*) FILTER (WHERE direction = 'out')
FROM checkins
WHERE event_id = $1`
	if err := r.pool.QueryRow(ctx, query, eventID).Scan(&in, &out); err != nil {
		return 0, 0, fmt.Errorf("failed to count check-ins: %w", err)
	}
	return in, out, nil
}

func (r *CheckinRepository) list(ctx context.Context, query string, arg string) ([]models.CheckinRecord, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	out := []models.CheckinRecord{}
	for rows.Next() {
		rec, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read check-ins: %w", err)
	}
	return out, nil
}

func scanCheckin(row pgx.Row) (models.CheckinRecord, error) {
	var (
		rec    models.CheckinRecord
		passID int64
	)
	err := row.Scan(
		&rec.ID,
		&rec.EventID,
		&rec.Wallet,
		&passID,
		&rec.PassHash,
		&rec.QRRef,
		&rec.Direction,
		&rec.TxDigest,
		&rec.Organizer,
		&rec.CreatedAt,
	)
	rec.PassID = uint64(passID)
	return rec, err
}
