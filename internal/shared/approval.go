package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApprovalOutcome enumerates approval trail outcomes.
type ApprovalOutcome string

const (
	// ApprovalAccepted marks an approval confirmed by the upstream.
	ApprovalAccepted ApprovalOutcome = "ACCEPTED"
	// ApprovalRejected marks an approval the upstream refused.
	ApprovalRejected ApprovalOutcome = "REJECTED"
)

// ApprovalTrailEntry is one submitted approval and its outcome.
type ApprovalTrailEntry struct {
	ID       int64
	Partner  string
	RecordID string
	Actor    string
	Outcome  ApprovalOutcome
	BankDate string
	BankUTR  string
	Reason   string
	At       time.Time
}

// ApprovalTrail persists approval history on the console side.
type ApprovalTrail struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewApprovalTrail constructs ApprovalTrail.
func NewApprovalTrail(pool *pgxpool.Pool, logger *slog.Logger) *ApprovalTrail {
	return &ApprovalTrail{pool: pool, logger: logger}
}

// Record writes an approval entry to the database.
func (t *ApprovalTrail) Record(ctx context.Context, entry ApprovalTrailEntry) error {
	if t == nil || t.pool == nil {
		return errors.New("approval trail not initialised")
	}
	if entry.Partner == "" {
		return errors.New("approval partner required")
	}
	if entry.RecordID == "" {
		return errors.New("approval record id required")
	}
	if entry.Outcome == "" {
		return errors.New("approval outcome required")
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := t.pool.Exec(ctx, `INSERT INTO approval_trail (partner, record_id, actor, outcome, bank_date, bank_utr, reason, at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.Partner, entry.RecordID, entry.Actor, string(entry.Outcome), entry.BankDate, entry.BankUTR, entry.Reason, at)
	if err != nil {
		t.logger.Error("record approval trail", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns the trail for one record, oldest first.
func (t *ApprovalTrail) List(ctx context.Context, partner, recordID string) ([]ApprovalTrailEntry, error) {
	if t == nil || t.pool == nil {
		return nil, errors.New("approval trail not initialised")
	}
	rows, err := t.pool.Query(ctx, `SELECT id, partner, record_id, actor, outcome, bank_date, bank_utr, reason, at
FROM approval_trail WHERE partner=$1 AND record_id=$2 ORDER BY at ASC`, partner, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []ApprovalTrailEntry
	for rows.Next() {
		var e ApprovalTrailEntry
		var outcome string
		if err := rows.Scan(&e.ID, &e.Partner, &e.RecordID, &e.Actor, &outcome, &e.BankDate, &e.BankUTR, &e.Reason, &e.At); err != nil {
			return nil, err
		}
		e.Outcome = ApprovalOutcome(outcome)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
