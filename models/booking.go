package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking reserves one hour slot of the field on one calendar date.
type Booking struct {
	ID          int           `json:"id"`
	OrderID     string        `json:"orderId"`
	Name        string        `json:"name"`
	PhoneNumber string        `json:"phoneNumber"`
	Date        Date          `json:"date"`
	TimeSlot    string        `json:"timeSlot"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}
