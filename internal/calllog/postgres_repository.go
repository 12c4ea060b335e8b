package calllog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the pgx surface the repository uses, satisfied by *pgxpool.Pool and
// by pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores call records in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("calllog: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row, filling ID and CreatedAt on the record.
func (r *PostgresRepository) Create(ctx context.Context, rec *Record) error {
	id := uuid.New()
	query := `
		INSERT INTO call_records (id, call_id, phone, customer_id, job_id, duration_ms, is_lead, booked, status, issue, summary, transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		rec.CallID,
		rec.Phone,
		rec.CustomerID,
		rec.JobID,
		rec.DurationMS,
		rec.IsLead,
		rec.Booked,
		rec.Status,
		rec.Issue,
		rec.Summary,
		rec.Transcript,
	).Scan(&createdAt); err != nil {
		return fmt.Errorf("calllog: insert failed: %w", err)
	}

	rec.ID = id.String()
	rec.CreatedAt = createdAt
	return nil
}

const selectColumns = `id, call_id, phone, customer_id, job_id, duration_ms, is_lead, booked, status, issue, summary, transcript, created_at`

// GetByCallID fetches the record for an upstream call id.
func (r *PostgresRepository) GetByCallID(ctx context.Context, callID string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM call_records WHERE call_id = $1`
	rec, err := scanRecord(r.db.QueryRow(ctx, query, callID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("calllog: select failed: %w", err)
	}
	return rec, nil
}

// RecentByPhone lists the newest records for a normalized phone number.
func (r *PostgresRepository) RecentByPhone(ctx context.Context, phone string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + selectColumns + ` FROM call_records WHERE phone = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("calllog: select failed: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("calllog: scan failed: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calllog: rows failed: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(
		&rec.ID,
		&rec.CallID,
		&rec.Phone,
		&rec.CustomerID,
		&rec.JobID,
		&rec.DurationMS,
		&rec.IsLead,
		&rec.Booked,
		&rec.Status,
		&rec.Issue,
		&rec.Summary,
		&rec.Transcript,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
