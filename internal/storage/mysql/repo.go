package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"family_trip/internal/domain"
)

const (
	msgSubmitted = "trip request submitted"
	msgLocked    = "your previous trip request is being processed and can no longer be changed"
)

var (
	_ domain.SubmissionAuthority = (*Repo)(nil)
	_ domain.LastSelection       = (*Repo)(nil)
)

// Repo stores submitted trip requests. It acts as the submission authority
// and as the source of the last selection used to prefill new sessions.
type Repo struct {
	db    *sql.DB
	newID func() string
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db, newID: func() string { return uuid.NewString() }}
}

// Submit records a new request, superseding the employee's open one. A locked
// request refuses the submission.
func (r *Repo) Submit(ctx context.Context, employeeID, companionIDs string, slots []domain.SubmittableSlot) (domain.SubmitResult, error) {
	if len(slots) == 0 {
		return domain.SubmitResult{Message: "nothing to submit"}, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var prevID, prevStatus string
	err = tx.QueryRowContext(ctx, activeRequestForUpdateSQL, employeeID).Scan(&prevID, &prevStatus)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return domain.SubmitResult{}, err
	case prevStatus == statusLocked:
		return domain.SubmitResult{Message: msgLocked}, nil
	default:
		if _, err := tx.ExecContext(ctx, markReplacedSQL, statusReplaced, prevID); err != nil {
			return domain.SubmitResult{}, err
		}
	}

	id := r.newID()
	if _, err := tx.ExecContext(ctx, insertRequestSQL, id, employeeID, companionIDs, statusOpen); err != nil {
		return domain.SubmitResult{}, err
	}

	values := make([]string, 0, len(slots))
	args := make([]any, 0, len(slots)*7)
	for i, s := range slots {
		d, err := time.Parse(domain.DateLayout, s.Date)
		if err != nil {
			return domain.SubmitResult{}, fmt.Errorf("destination %d: arrival date %q: %w", i+1, s.Date, err)
		}
		values = append(values, "(?,?,?,?,?,?,?)")
		args = append(args, id, i+1, s.City, s.HotelID, s.HotelName, d, s.RoomsData)
	}
	if _, err := tx.ExecContext(ctx, insertHotelsPrefix+strings.Join(values, ","), args...); err != nil {
		return domain.SubmitResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.SubmitResult{}, err
	}

	log.Info().Str("employee_id", employeeID).Str("request_id", id).Str("replaced", prevID).
		Int("destinations", len(slots)).Msg("trip request stored")
	return domain.SubmitResult{Success: true, Message: msgSubmitted, RequestID: id}, nil
}

// CheckSubmission reports whether a new submission would be accepted.
func (r *Repo) CheckSubmission(ctx context.Context, employeeID, lang string) (domain.CheckResult, error) {
	var id, status string
	err := r.db.QueryRowContext(ctx, activeRequestSQL, employeeID).Scan(&id, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CheckResult{Success: true}, nil
	}
	if err != nil {
		return domain.CheckResult{}, err
	}
	if status == statusLocked {
		return domain.CheckResult{Message: msgLocked}, nil
	}
	return domain.CheckResult{Success: true}, nil
}

func (r *Repo) lastRequest(ctx context.Context, employeeID string) (id, companions string, err error) {
	err = r.db.QueryRowContext(ctx, lastRequestSQL, employeeID).Scan(&id, &companions)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	return id, companions, err
}

func (r *Repo) GetLastHotels(ctx context.Context, employeeID, lang string) ([]domain.LastHotel, error) {
	id, _, err := r.lastRequest(ctx, employeeID)
	if err != nil || id == "" {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, requestHotelsSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LastHotel
	for rows.Next() {
		var lh domain.LastHotel
		var arrival time.Time
		if err := rows.Scan(&lh.City, &lh.HotelID, &lh.HotelName, &arrival, &lh.RoomsData); err != nil {
			return nil, err
		}
		lh.Date = arrival.Format(domain.DateLayout)
		out = append(out, lh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLastCompanions returns ids only; the session resolves them against the
// current companion list.
func (r *Repo) GetLastCompanions(ctx context.Context, employeeID, lang string) ([]domain.Companion, error) {
	_, ids, err := r.lastRequest(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	var out []domain.Companion
	for _, id := range strings.Split(ids, "|") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, domain.Companion{ID: id})
		}
	}
	return out, nil
}
