package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldbook/fieldbook-api/models"
)

var (
	ErrBookingNotFound         = errors.New("booking not found")
	ErrBookingSlotTaken        = errors.New("booking slot already taken")
	ErrBookingOrderIDConflict  = errors.New("booking order id already exists")
	ErrBookingAlreadyCancelled = errors.New("booking already cancelled")
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error)
	ListOccupiedSlots(ctx context.Context, date models.Date) ([]string, error)
	Cancel(ctx context.Context, orderID string) (*models.Booking, error)
}

type postgresBookingRepository struct {
	db SQLExecutor
}

func NewPostgresBookingRepository(db *sql.DB) BookingRepository {
	return &postgresBookingRepository{db: db}
}

const bookingColumns = `id, order_id, name, phone_number, booking_date, time_slot, status, created_at`

func scanBooking(row rowScanner, b *models.Booking) error {
	return row.Scan(
		&b.ID, &b.OrderID, &b.Name, &b.PhoneNumber, &b.Date, &b.TimeSlot, &b.Status, &b.CreatedAt,
	)
}

// Create inserts a booking. The partial unique index on (booking_date, time_slot)
// over non-cancelled rows is what rejects a concurrent double booking.
func (r *postgresBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (order_id, name, phone_number, booking_date, time_slot, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		b.OrderID, b.Name, b.PhoneNumber, b.Date, b.TimeSlot, b.Status,
	).Scan(&b.ID, &b.CreatedAt)
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok && pqErr.Code == pqUniqueViolation {
		switch pqErr.Constraint {
		case "bookings_active_slot_key":
			return ErrBookingSlotTaken
		case "bookings_order_id_key":
			return ErrBookingOrderIDConflict
		}
	}
	return fmt.Errorf("failed to create booking: %w", err)
}

func (r *postgresBookingRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE order_id = $1`

	b := &models.Booking{}
	if err := scanBooking(r.db.QueryRowContext(ctx, query, orderID), b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking %s: %w", orderID, err)
	}
	return b, nil
}

func (r *postgresBookingRepository) ListOccupiedSlots(ctx context.Context, date models.Date) ([]string, error) {
	query := `
		SELECT time_slot FROM bookings
		WHERE booking_date = $1 AND status <> $2
		ORDER BY time_slot ASC`

	rows, err := r.db.QueryContext(ctx, query, date, models.BookingCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupied slots: %w", err)
	}
	defer rows.Close()

	slots := make([]string, 0)
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time slots: %w", err)
	}
	return slots, nil
}

func (r *postgresBookingRepository) Cancel(ctx context.Context, orderID string) (*models.Booking, error) {
	query := `
		UPDATE bookings SET status = $1
		WHERE order_id = $2 AND status <> $1
		RETURNING ` + bookingColumns

	b := &models.Booking{}
	err := scanBooking(r.db.QueryRowContext(ctx, query, models.BookingCancelled, orderID), b)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to cancel booking %s: %w", orderID, err)
	}

	// Ни одна строка не обновлена: брони нет, либо она уже отменена.
	if _, getErr := r.GetByOrderID(ctx, orderID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrBookingAlreadyCancelled
}
