package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/fieldbook/fieldbook-api/live"
	"github.com/fieldbook/fieldbook-api/models"
	"github.com/fieldbook/fieldbook-api/repositories"
)

// maxOrderIDAttempts is how many order ids are tried before giving up on a booking.
const maxOrderIDAttempts = 3

var phoneNumberRegexp = regexp.MustCompile(`^[0-9]{10,15}$`)

type BookingService interface {
	AvailableSlots(ctx context.Context, date string) ([]string, error)
	CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error)
	GetBooking(ctx context.Context, orderID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, orderID string) (*models.Booking, error)
}

type CreateBookingInput struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Date        string `json:"date"`
	TimeSlot    string `json:"timeSlot"`
}

type bookingService struct {
	repo        repositories.BookingRepository
	catalog     *SlotCatalog
	broadcaster Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

func NewBookingService(
	repo repositories.BookingRepository,
	catalog *SlotCatalog,
	broadcaster Broadcaster,
	logger *slog.Logger,
) BookingService {
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	return &bookingService{
		repo:        repo,
		catalog:     catalog,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *bookingService) validate(in CreateBookingInput) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.PhoneNumber, validation.Required,
			validation.Match(phoneNumberRegexp).Error("must be 10 to 15 digits")),
		validation.Field(&in.Date, validation.Required, validation.Date(models.DateLayout)),
		validation.Field(&in.TimeSlot, validation.Required,
			validation.In(s.catalog.values()...).Error("must be one of the offered time slots")),
	)
}

func (s *bookingService) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	day, err := parseDateParam(date)
	if err != nil {
		return nil, err
	}

	occupied, err := s.repo.ListOccupiedSlots(ctx, day)
	if err != nil {
		return nil, persistenceError("fetch available slots", err)
	}
	return s.catalog.Free(occupied), nil
}

func (s *bookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	input.TimeSlot = strings.TrimSpace(input.TimeSlot)
	if err := s.validate(input); err != nil {
		return nil, newValidationError(err)
	}

	day, err := parseDateParam(input.Date)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		Name:        input.Name,
		PhoneNumber: input.PhoneNumber,
		Date:        day,
		TimeSlot:    input.TimeSlot,
		Status:      models.BookingPending,
	}

	for attempt := 1; ; attempt++ {
		booking.OrderID = newOrderID(s.now())
		err = s.repo.Create(ctx, booking)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repositories.ErrBookingSlotTaken):
			return nil, ErrSlotTaken
		case errors.Is(err, repositories.ErrBookingOrderIDConflict):
			s.logger.Warn("order id collision, regenerating",
				slog.String("order_id", booking.OrderID),
				slog.Int("attempt", attempt),
			)
			if attempt >= maxOrderIDAttempts {
				return nil, ErrOrderIDExhausted
			}
		default:
			return nil, persistenceError("create booking", err)
		}
	}

	s.logger.Info("booking created",
		slog.String("order_id", booking.OrderID),
		slog.String("date", booking.Date.String()),
		slog.String("time_slot", booking.TimeSlot),
	)
	s.broadcaster.BroadcastToRoom(live.SlotsRoom(booking.Date.String()), live.Message{
		Type:    live.EventSlotBooked,
		Payload: map[string]interface{}{"date": booking.Date.String(), "timeSlot": booking.TimeSlot},
	})
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, orderID string) (*models.Booking, error) {
	booking, err := s.repo.GetByOrderID(ctx, normalizeOrderID(orderID))
	if err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, persistenceError("get booking", err)
	}
	return booking, nil
}

// CancelBooking marks a booking cancelled, which frees its slot for new bookings.
func (s *bookingService) CancelBooking(ctx context.Context, orderID string) (*models.Booking, error) {
	booking, err := s.repo.Cancel(ctx, normalizeOrderID(orderID))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrBookingNotFound):
			return nil, ErrBookingNotFound
		case errors.Is(err, repositories.ErrBookingAlreadyCancelled):
			return nil, ErrBookingAlreadyCancelled
		default:
			return nil, persistenceError("cancel booking", err)
		}
	}

	s.logger.Info("booking cancelled", slog.String("order_id", booking.OrderID))
	s.broadcaster.BroadcastToRoom(live.SlotsRoom(booking.Date.String()), live.Message{
		Type:    live.EventSlotReleased,
		Payload: map[string]interface{}{"date": booking.Date.String(), "timeSlot": booking.TimeSlot},
	})
	return booking, nil
}

func parseDateParam(value string) (models.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.Date{}, &ValidationError{Fields: map[string]string{"date": "cannot be blank"}}
	}
	day, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}, &ValidationError{Fields: map[string]string{"date": "must be a valid date (YYYY-MM-DD)"}}
	}
	return day, nil
}

func normalizeOrderID(orderID string) string {
	return strings.ToUpper(strings.TrimSpace(orderID))
}
