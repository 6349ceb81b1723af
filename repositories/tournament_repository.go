package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fieldbook/fieldbook-api/models"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentInvalidStatus = errors.New("tournament status rejected by storage")
	ErrParticipantConflict     = errors.New("participant conflict: player already registered for this tournament")
	ErrPlayerNotFound          = errors.New("player not found")
)

// ListTournamentsFilter narrows tournaments and their participants.
// The zero value matches every tournament, inactive ones included.
type ListTournamentsFilter struct {
	ActiveOnly   bool
	Status       *models.TournamentStatus
	TournamentID *int
}

// StatusChange reports a tournament moved to a new status by a bulk update.
type StatusChange struct {
	TournamentID int
	Status       models.TournamentStatus
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	ListParticipants(ctx context.Context, filter ListTournamentsFilter) ([]models.Participant, error)
	AddParticipant(ctx context.Context, participant *models.Participant) error
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	UpdateBanner(ctx context.Context, id int, banner, bannerKey *string) error
	Deactivate(ctx context.Context, id int) error
	AdvanceStatusesByDate(ctx context.Context, today models.Date) ([]StatusChange, error)
}

type postgresTournamentRepository struct {
	db SQLExecutor
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, name, banner, banner_key, tournament_date, registration_fee, status, is_active, created_at`

func scanTournament(row rowScanner, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Banner, &t.BannerKey, &t.Date,
		&t.RegistrationFee, &t.Status, &t.IsActive, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, banner, tournament_date, registration_fee, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Banner, t.Date, t.RegistrationFee, t.Status, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	if err := scanTournament(r.db.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	where, args := tournamentFilterSQL(filter, "")
	query := `SELECT ` + tournamentColumns + ` FROM tournaments` + where +
		` ORDER BY tournament_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

// ListParticipants returns participants of every tournament matched by filter,
// grouped by tournament and ordered by registration time.
func (r *postgresTournamentRepository) ListParticipants(ctx context.Context, filter ListTournamentsFilter) ([]models.Participant, error) {
	where, args := tournamentFilterSQL(filter, "t.")
	query := `
		SELECT
			p.id, p.tournament_id, p.player_id, p.payment_status, p.registered_at,
			u.id, u.name, u.email, u.phone
		FROM tournament_participants p
		JOIN tournaments t ON t.id = p.tournament_id
		JOIN users u ON u.id = p.player_id` + where + `
		ORDER BY p.tournament_id ASC, p.registered_at ASC, p.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var u models.PlayerInfo
		if err := rows.Scan(
			&p.ID, &p.TournamentID, &p.PlayerID, &p.PaymentStatus, &p.RegisteredAt,
			&u.ID, &u.Name, &u.Email, &u.Phone,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		p.Player = &u
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

// AddParticipant appends a participant in one statement. The unique constraint on
// (tournament_id, player_id) decides concurrent duplicates; inactive tournaments
// are reported as missing.
func (r *postgresTournamentRepository) AddParticipant(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO tournament_participants (tournament_id, player_id, payment_status)
		SELECT id, $2, $3 FROM tournaments WHERE id = $1 AND is_active
		RETURNING id, registered_at`

	err := r.db.QueryRowContext(ctx, query, p.TournamentID, p.PlayerID, p.PaymentStatus).
		Scan(&p.ID, &p.RegisteredAt)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotFound
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == "tournament_participants_tournament_id_player_id_key" {
				return ErrParticipantConflict
			}
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "tournament_participants_player_id_fkey":
				return ErrPlayerNotFound
			case "tournament_participants_tournament_id_fkey":
				return ErrTournamentNotFound
			}
		}
	}
	return fmt.Errorf("failed to add participant: %w", err)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBanner(ctx context.Context, id int, banner, bannerKey *string) error {
	query := `UPDATE tournaments SET banner = $1, banner_key = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, banner, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// Deactivate is idempotent: Postgres counts matched rows even when is_active is already false.
func (r *postgresTournamentRepository) Deactivate(ctx context.Context, id int) error {
	query := `UPDATE tournaments SET is_active = FALSE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// AdvanceStatusesByDate moves active tournaments dated today to ongoing and
// tournaments dated before today to completed.
func (r *postgresTournamentRepository) AdvanceStatusesByDate(ctx context.Context, today models.Date) ([]StatusChange, error) {
	query := `
		UPDATE tournaments
		SET status = CASE WHEN tournament_date < $1 THEN $2 ELSE $3 END
		WHERE is_active
		AND (
			(status = $4 AND tournament_date <= $1) OR
			(status = $3 AND tournament_date < $1)
		)
		RETURNING id, status`

	rows, err := r.db.QueryContext(ctx, query,
		today,                  // $1
		models.StatusCompleted, // $2
		models.StatusOngoing,   // $3
		models.StatusUpcoming,  // $4
	)
	if err != nil {
		return nil, fmt.Errorf("failed to advance tournament statuses: %w", err)
	}
	defer rows.Close()

	var changes []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.TournamentID, &c.Status); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		changes = append(changes, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status changes: %w", err)
	}
	return changes, nil
}

func tournamentFilterSQL(filter ListTournamentsFilter, alias string) (string, []interface{}) {
	var conditions []string
	args := []interface{}{}

	if filter.ActiveOnly {
		conditions = append(conditions, alias+"is_active")
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("%sstatus = $%d", alias, len(args)))
	}
	if filter.TournamentID != nil {
		args = append(args, *filter.TournamentID)
		conditions = append(conditions, fmt.Sprintf("%sid = $%d", alias, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok && pqErr.Code == pqCheckViolation {
		return ErrTournamentInvalidStatus
	}
	return fmt.Errorf("tournament query failed: %w", err)
}
