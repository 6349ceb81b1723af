package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие CHECK-ограничению в БД.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

// TournamentStatuses lists every accepted status in lifecycle order.
var TournamentStatuses = []TournamentStatus{StatusUpcoming, StatusOngoing, StatusCompleted}

func (s TournamentStatus) IsValid() bool {
	for _, known := range TournamentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// RegistrationFee is charged for every tournament and is never taken from client input.
const RegistrationFee = 500

// Tournament представляет турнир.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Banner          *string          `json:"banner,omitempty" db:"banner"`
	BannerKey       *string          `json:"-" db:"banner_key"`
	Date            Date             `json:"date" db:"tournament_date"`
	RegistrationFee int              `json:"registrationFee" db:"registration_fee"`
	Status          TournamentStatus `json:"status" db:"status"`
	IsActive        bool             `json:"isActive" db:"is_active"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`

	Participants []Participant `json:"participants" db:"-"`
}
