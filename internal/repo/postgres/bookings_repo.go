// Package postgres is the persistence collaborator. The rest of the
// system consumes it through BookingRepository and never sees SQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/svq/chalet-bookings/internal/calendar"
	"github.com/svq/chalet-bookings/internal/domain"
)

// DB is satisfied by *pgxpool.Pool and by pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type BookingRepository interface {
	List(ctx context.Context) ([]domain.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Insert(ctx context.Context, req *domain.StayRequest) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error
	ApproveIfAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type bookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &bookingRepository{db: db}
}

const queryTimeout = 3 * time.Second

const bookingCols = `id, guest_name, guest_email, guest_count, notes,
start_date, end_date, status, created_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var start, end time.Time
	err := row.Scan(
		&b.ID, &b.GuestName, &b.GuestEmail, &b.GuestCount, &b.Notes,
		&start, &end, &b.Status, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartDate = calendar.Format(start)
	b.EndDate = calendar.Format(end)
	return &b, nil
}

// List returns the full booking set ordered by ascending start date.
// The store replaces its snapshot with exactly this result.
func (r *bookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings ORDER BY start_date ASC, created_at ASC`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

// Insert creates a pending booking; the database assigns the id and
// creation timestamp.
func (r *bookingRepository) Insert(ctx context.Context, req *domain.StayRequest) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
		guest_name, guest_email, guest_count, notes,
		start_date, end_date, status
	) VALUES ($1,$2,$3,$4,$5,$6,'pending')
	RETURNING ` + bookingCols

	start, err := calendar.Parse(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := calendar.Parse(req.EndDate)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.db.QueryRow(ctx, q,
		req.GuestName, req.GuestEmail, req.GuestCount, req.Notes, start, end))
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return b, nil
}

// UpdateStatus sets the status unconditionally (used for reject, which
// covers both declining a pending request and revoking an approval).
func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	const q = `UPDATE bookings SET status=$2 WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApproveIfAvailable flips a pending booking to approved only if no
// other approved booking shares a day with it. The predicate runs
// server-side in a single statement, so two clients racing to approve
// overlapping requests cannot both win; the loser sees false.
func (r *bookingRepository) ApproveIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE bookings SET status='approved'
	WHERE id=$1 AND status='pending'
	  AND NOT EXISTS (
	    SELECT 1 FROM bookings other
	    WHERE other.id <> bookings.id
	      AND other.status = 'approved'
	      AND other.start_date <= bookings.end_date
	      AND other.end_date >= bookings.start_date
	  )`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("approve booking: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes the booking regardless of status. Irreversible.
func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
