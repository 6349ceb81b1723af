package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/sync/errgroup"

	"github.com/fieldbook/fieldbook-api/live"
	"github.com/fieldbook/fieldbook-api/models"
	"github.com/fieldbook/fieldbook-api/repositories"
	"github.com/fieldbook/fieldbook-api/storage"
)

// Broadcaster pushes live events to websocket rooms. *live.Hub implements it.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message live.Message)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToRoom(string, live.Message) {}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	ListActiveTournaments(ctx context.Context) ([]models.Tournament, error)
	ListOngoing(ctx context.Context) ([]models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	Register(ctx context.Context, tournamentID int, principal models.Principal) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	SoftDelete(ctx context.Context, id int) error
	UploadBanner(ctx context.Context, id int, upload BannerUpload) (*models.Tournament, error)
	AutoUpdateStatuses(ctx context.Context, today models.Date) (int, error)
}

type CreateTournamentInput struct {
	Name   string  `json:"name"`
	Banner *string `json:"banner"`
	Date   string  `json:"date"`
}

func (in CreateTournamentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Date, validation.Required, validation.Date(models.DateLayout)),
		validation.Field(&in.Banner, is.URL),
	)
}

// BannerUpload is an image file received from an admin.
type BannerUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type tournamentService struct {
	repo        repositories.TournamentRepository
	uploader    storage.FileUploader
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewTournamentService wires the service. uploader may be nil when banner storage is not
// configured; broadcaster may be nil to disable live events.
func NewTournamentService(
	repo repositories.TournamentRepository,
	uploader storage.FileUploader,
	broadcaster Broadcaster,
	logger *slog.Logger,
) TournamentService {
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	return &tournamentService{
		repo:        repo,
		uploader:    uploader,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Banner != nil {
		banner := strings.TrimSpace(*input.Banner)
		input.Banner = &banner
		if banner == "" {
			input.Banner = nil
		}
	}
	if err := input.Validate(); err != nil {
		return nil, newValidationError(err)
	}

	date, err := models.ParseDate(input.Date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": err.Error()}}
	}

	tournament := &models.Tournament{
		Name:            input.Name,
		Banner:          input.Banner,
		Date:            date,
		RegistrationFee: models.RegistrationFee,
		Status:          models.StatusUpcoming,
		IsActive:        true,
		Participants:    []models.Participant{},
	}
	if err := s.repo.Create(ctx, tournament); err != nil {
		return nil, mapTournamentRepoError("create tournament", err)
	}

	s.logger.Info("tournament created", slog.Int("tournament_id", tournament.ID), slog.String("date", tournament.Date.String()))
	return tournament, nil
}

func (s *tournamentService) ListActiveTournaments(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.load(ctx, repositories.ListTournamentsFilter{ActiveOnly: true})
	if err != nil {
		return nil, mapTournamentRepoError("list tournaments", err)
	}
	return tournaments, nil
}

func (s *tournamentService) ListOngoing(ctx context.Context) ([]models.Tournament, error) {
	status := models.StatusOngoing
	tournaments, err := s.load(ctx, repositories.ListTournamentsFilter{ActiveOnly: true, Status: &status})
	if err != nil {
		return nil, mapTournamentRepoError("list ongoing tournaments", err)
	}
	return tournaments, nil
}

// GetTournament looks a tournament up by id, soft-deleted ones included.
func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournaments, err := s.load(ctx, repositories.ListTournamentsFilter{TournamentID: &id})
	if err != nil {
		return nil, mapTournamentRepoError("get tournament", err)
	}
	if len(tournaments) == 0 {
		return nil, ErrTournamentNotFound
	}
	return &tournaments[0], nil
}

func (s *tournamentService) Register(ctx context.Context, tournamentID int, principal models.Principal) (*models.Tournament, error) {
	if principal.UserID <= 0 {
		return nil, &ValidationError{Fields: map[string]string{"player": "must be an authenticated user"}}
	}

	participant := &models.Participant{
		TournamentID:  tournamentID,
		PlayerID:      principal.UserID,
		PaymentStatus: models.PaymentPaid,
	}
	if err := s.repo.AddParticipant(ctx, participant); err != nil {
		return nil, mapTournamentRepoError("register participant", err)
	}

	s.logger.Info("participant registered",
		slog.Int("tournament_id", tournamentID),
		slog.Int("player_id", principal.UserID),
	)

	tournament, err := s.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	for i := range tournament.Participants {
		if tournament.Participants[i].ID == participant.ID {
			s.broadcaster.BroadcastToRoom(live.TournamentRoom(tournamentID), live.Message{
				Type:    live.EventParticipantRegistered,
				Payload: map[string]interface{}{"tournamentId": tournamentID, "participant": tournament.Participants[i]},
			})
			break
		}
	}
	return tournament, nil
}

// UpdateStatus overwrites the status. Any status may follow any other.
func (s *tournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.IsValid() {
		return nil, ErrInvalidTournamentStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, mapTournamentRepoError("update tournament status", err)
	}

	s.broadcaster.BroadcastToRoom(live.TournamentRoom(id), live.Message{
		Type:    live.EventStatusChanged,
		Payload: map[string]interface{}{"tournamentId": id, "status": status},
	})
	return s.GetTournament(ctx, id)
}

func (s *tournamentService) SoftDelete(ctx context.Context, id int) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return mapTournamentRepoError("delete tournament", err)
	}
	s.logger.Info("tournament deactivated", slog.Int("tournament_id", id))
	s.broadcaster.BroadcastToRoom(live.TournamentRoom(id), live.Message{
		Type:    live.EventTournamentDeleted,
		Payload: map[string]interface{}{"tournamentId": id},
	})
	return nil
}

func (s *tournamentService) UploadBanner(ctx context.Context, id int, upload BannerUpload) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrBannerStorageDisabled
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, ErrInvalidBannerType
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError("get tournament", err)
	}

	key := storage.BannerKey(id, current.Name, upload.Filename)
	result, err := s.uploader.Upload(ctx, key, upload.ContentType, upload.Body)
	if err != nil {
		return nil, persistenceError("upload banner", err)
	}

	if err := s.repo.UpdateBanner(ctx, id, &result.Location, &result.Key); err != nil {
		if delErr := s.uploader.Delete(ctx, result.Key); delErr != nil {
			s.logger.Warn("failed to remove orphaned banner", slog.String("key", result.Key), slog.Any("error", delErr))
		}
		return nil, mapTournamentRepoError("update tournament banner", err)
	}

	if current.BannerKey != nil && *current.BannerKey != "" && *current.BannerKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *current.BannerKey); delErr != nil {
			s.logger.Warn("failed to delete previous banner", slog.String("key", *current.BannerKey), slog.Any("error", delErr))
		}
	}

	return s.GetTournament(ctx, id)
}

// AutoUpdateStatuses advances tournaments by their date and returns how many changed.
func (s *tournamentService) AutoUpdateStatuses(ctx context.Context, today models.Date) (int, error) {
	changes, err := s.repo.AdvanceStatusesByDate(ctx, today)
	if err != nil {
		return 0, persistenceError("advance tournament statuses", err)
	}
	for _, c := range changes {
		s.logger.Info("tournament status advanced",
			slog.Int("tournament_id", c.TournamentID),
			slog.String("status", string(c.Status)),
		)
		s.broadcaster.BroadcastToRoom(live.TournamentRoom(c.TournamentID), live.Message{
			Type:    live.EventStatusChanged,
			Payload: map[string]interface{}{"tournamentId": c.TournamentID, "status": c.Status},
		})
	}
	return len(changes), nil
}

// load fetches tournaments and their participants concurrently and stitches them together.
func (s *tournamentService) load(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	var (
		tournaments  []models.Tournament
		participants []models.Participant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournaments, err = s.repo.List(gCtx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = s.repo.ListParticipants(gCtx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[int]int, len(tournaments))
	for i := range tournaments {
		tournaments[i].Participants = []models.Participant{}
		byID[tournaments[i].ID] = i
	}
	for _, p := range participants {
		// Участник турнира, созданного между двумя запросами, просто пропускается.
		if i, ok := byID[p.TournamentID]; ok {
			tournaments[i].Participants = append(tournaments[i].Participants, p)
		}
	}
	return tournaments, nil
}

func mapTournamentRepoError(op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrParticipantConflict):
		return ErrAlreadyRegistered
	case errors.Is(err, repositories.ErrTournamentInvalidStatus):
		return ErrInvalidTournamentStatus
	default:
		return persistenceError(op, err)
	}
}
