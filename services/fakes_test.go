package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fieldbook/fieldbook-api/live"
	"github.com/fieldbook/fieldbook-api/models"
	"github.com/fieldbook/fieldbook-api/repositories"
	"github.com/fieldbook/fieldbook-api/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memTournamentRepo mimics the constraint behaviour of the Postgres repository.
type memTournamentRepo struct {
	mu           sync.Mutex
	nextID       int
	tournaments  map[int]*models.Tournament
	participants []models.Participant
	players      map[int]models.PlayerInfo
	failWith     error
}

func newMemTournamentRepo(playerIDs ...int) *memTournamentRepo {
	r := &memTournamentRepo{
		tournaments: make(map[int]*models.Tournament),
		players:     make(map[int]models.PlayerInfo),
	}
	for _, id := range playerIDs {
		r.players[id] = models.PlayerInfo{ID: id, Name: fmt.Sprintf("Player %d", id), Email: fmt.Sprintf("p%d@example.com", id)}
	}
	return r
}

func (r *memTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	stored := *t
	stored.Participants = nil
	r.tournaments[t.ID] = &stored
	return nil
}

func (r *memTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTournamentRepo) matches(t *models.Tournament, f repositories.ListTournamentsFilter) bool {
	if f.ActiveOnly && !t.IsActive {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.TournamentID != nil && t.ID != *f.TournamentID {
		return false
	}
	return true
}

func (r *memTournamentRepo) List(_ context.Context, f repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if r.matches(t, f) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memTournamentRepo) ListParticipants(_ context.Context, f repositories.ListTournamentsFilter) ([]models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]models.Participant, 0)
	for _, p := range r.participants {
		if t, ok := r.tournaments[p.TournamentID]; ok && r.matches(t, f) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memTournamentRepo) AddParticipant(_ context.Context, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	t, ok := r.tournaments[p.TournamentID]
	if !ok || !t.IsActive {
		return repositories.ErrTournamentNotFound
	}
	player, ok := r.players[p.PlayerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	for _, existing := range r.participants {
		if existing.TournamentID == p.TournamentID && existing.PlayerID == p.PlayerID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = len(r.participants) + 1
	p.RegisteredAt = time.Now()
	p.Player = &player
	r.participants = append(r.participants, *p)
	return nil
}

func (r *memTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *memTournamentRepo) UpdateBanner(_ context.Context, id int, banner, bannerKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Banner = banner
	t.BannerKey = bannerKey
	return nil
}

func (r *memTournamentRepo) Deactivate(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.IsActive = false
	return nil
}

func (r *memTournamentRepo) AdvanceStatusesByDate(_ context.Context, today models.Date) ([]repositories.StatusChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	var changes []repositories.StatusChange
	for _, t := range r.tournaments {
		if !t.IsActive {
			continue
		}
		switch {
		case t.Date.Before(today) && t.Status != models.StatusCompleted:
			t.Status = models.StatusCompleted
		case t.Date.Equal(today) && t.Status == models.StatusUpcoming:
			t.Status = models.StatusOngoing
		default:
			continue
		}
		changes = append(changes, repositories.StatusChange{TournamentID: t.ID, Status: t.Status})
	}
	return changes, nil
}

func (r *memTournamentRepo) status(id int) models.TournamentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tournaments[id].Status
}

// memBookingRepo enforces the active-slot and order id uniqueness the way the indexes do.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings []*models.Booking
	// orderIDCollisions makes the next N inserts fail with an order id conflict.
	orderIDCollisions int
	failWith          error
}

func (r *memBookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	for _, existing := range r.bookings {
		if existing.Status != models.BookingCancelled && existing.Date.Equal(b.Date) && existing.TimeSlot == b.TimeSlot {
			return repositories.ErrBookingSlotTaken
		}
	}
	if r.orderIDCollisions > 0 {
		r.orderIDCollisions--
		return repositories.ErrBookingOrderIDConflict
	}
	for _, existing := range r.bookings {
		if existing.OrderID == b.OrderID {
			return repositories.ErrBookingOrderIDConflict
		}
	}
	b.ID = len(r.bookings) + 1
	b.CreatedAt = time.Now()
	cp := *b
	r.bookings = append(r.bookings, &cp)
	return nil
}

func (r *memBookingRepo) GetByOrderID(_ context.Context, orderID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.OrderID == orderID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repositories.ErrBookingNotFound
}

func (r *memBookingRepo) ListOccupiedSlots(_ context.Context, date models.Date) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]string, 0)
	for _, b := range r.bookings {
		if b.Status != models.BookingCancelled && b.Date.Equal(date) {
			out = append(out, b.TimeSlot)
		}
	}
	return out, nil
}

func (r *memBookingRepo) Cancel(_ context.Context, orderID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.OrderID == orderID {
			if b.Status == models.BookingCancelled {
				return nil, repositories.ErrBookingAlreadyCancelled
			}
			b.Status = models.BookingCancelled
			cp := *b
			return &cp, nil
		}
	}
	return nil, repositories.ErrBookingNotFound
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []roomMessage
}

type roomMessage struct {
	room string
	msg  live.Message
}

func (b *recordingBroadcaster) BroadcastToRoom(room string, msg live.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, roomMessage{room: room, msg: msg})
}

func (b *recordingBroadcaster) types(room string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, m := range b.messages {
		if m.room == room {
			out = append(out, m.msg.Type)
		}
	}
	return out
}

type memUploader struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

var _ storage.FileUploader = (*memUploader)(nil)

func newMemUploader() *memUploader {
	return &memUploader{objects: make(map[string][]byte)}
}

func (u *memUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.objects[key]; !ok {
		return errors.New("no such key")
	}
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *memUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
