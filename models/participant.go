package models

import "time"

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
)

// Participant is a player's registration, embedded in Tournament responses.
type Participant struct {
	ID            int           `json:"id"`
	TournamentID  int           `json:"-"`
	PlayerID      int           `json:"-"`
	Player        *PlayerInfo   `json:"player"`
	RegisteredAt  time.Time     `json:"registeredAt"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}
