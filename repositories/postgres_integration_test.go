package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldbook/fieldbook-api/db"
	"github.com/fieldbook/fieldbook-api/models"
)

var (
	testDB      *sql.DB
	testDBErr   error
	testDBOnce  sync.Once
	testCleanup func()
)

func TestMain(m *testing.M) {
	code := m.Run()
	if testCleanup != nil {
		testCleanup()
	}
	os.Exit(code)
}

// openTestDB starts one disposable Postgres per package run and applies the schema.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres integration test in -short mode")
	}

	testDBOnce.Do(func() {
		pool, err := dockertest.NewPool("")
		if err != nil {
			testDBErr = fmt.Errorf("docker unavailable: %w", err)
			return
		}
		if err = pool.Client.Ping(); err != nil {
			testDBErr = fmt.Errorf("docker unavailable: %w", err)
			return
		}

		resource, err := pool.RunWithOptions(&dockertest.RunOptions{
			Repository: "postgres",
			Tag:        "16-alpine",
			Env: []string{
				"POSTGRES_USER=fieldbook",
				"POSTGRES_PASSWORD=fieldbook",
				"POSTGRES_DB=fieldbook",
			},
		}, func(hc *docker.HostConfig) {
			hc.AutoRemove = true
			hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
		})
		if err != nil {
			testDBErr = fmt.Errorf("could not start postgres: %w", err)
			return
		}
		_ = resource.Expire(300)
		testCleanup = func() { _ = pool.Purge(resource) }

		dsn := fmt.Sprintf("postgres://fieldbook:fieldbook@%s/fieldbook?sslmode=disable", resource.GetHostPort("5432/tcp"))
		pool.MaxWait = 60 * time.Second
		if err = pool.Retry(func() error {
			conn, err := db.Connect(dsn, 2*time.Second)
			if err != nil {
				return err
			}
			testDB = conn
			return nil
		}); err != nil {
			testDBErr = fmt.Errorf("postgres did not become ready: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		testDBErr = db.Migrate(ctx, testDB)
	})

	if testDBErr != nil {
		t.Skipf("postgres not available: %v", testDBErr)
	}
	resetTables(t, testDB)
	return testDB
}

func resetTables(t *testing.T, conn *sql.DB) {
	t.Helper()
	_, err := conn.Exec(`TRUNCATE tournament_participants, tournaments, bookings, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func insertUser(t *testing.T, conn *sql.DB, name string) int {
	t.Helper()
	var id int
	err := conn.QueryRow(
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`,
		name, name+"@example.com",
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func newTournament(t *testing.T, repo TournamentRepository, name, date string) *models.Tournament {
	t.Helper()
	d, err := models.ParseDate(date)
	require.NoError(t, err)
	tournament := &models.Tournament{
		Name:            name,
		Date:            d,
		RegistrationFee: models.RegistrationFee,
		Status:          models.StatusUpcoming,
		IsActive:        true,
	}
	require.NoError(t, repo.Create(context.Background(), tournament))
	return tournament
}

func TestTournamentRepository_CreateAndList(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresTournamentRepository(conn)
	ctx := context.Background()

	late := newTournament(t, repo, "Late", "2024-08-01")
	early := newTournament(t, repo, "Early", "2024-06-01")
	gone := newTournament(t, repo, "Gone", "2024-05-01")
	require.NoError(t, repo.Deactivate(ctx, gone.ID))
	require.NoError(t, repo.Deactivate(ctx, gone.ID), "deactivate must be idempotent")

	list, err := repo.List(ctx, ListTournamentsFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)
	assert.Equal(t, "2024-06-01", list[0].Date.String())

	got, err := repo.GetByID(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
	assert.ErrorIs(t, repo.Deactivate(ctx, 9999), ErrTournamentNotFound)
}

func TestTournamentRepository_AddParticipant(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresTournamentRepository(conn)
	ctx := context.Background()
	playerID := insertUser(t, conn, "ivan")
	tournament := newTournament(t, repo, "Cup", "2024-07-01")

	p := &models.Participant{TournamentID: tournament.ID, PlayerID: playerID, PaymentStatus: models.PaymentPaid}
	require.NoError(t, repo.AddParticipant(ctx, p))
	assert.NotZero(t, p.ID)
	assert.False(t, p.RegisteredAt.IsZero())

	dup := &models.Participant{TournamentID: tournament.ID, PlayerID: playerID, PaymentStatus: models.PaymentPaid}
	assert.ErrorIs(t, repo.AddParticipant(ctx, dup), ErrParticipantConflict)

	ghost := &models.Participant{TournamentID: tournament.ID, PlayerID: 9999, PaymentStatus: models.PaymentPaid}
	assert.ErrorIs(t, repo.AddParticipant(ctx, ghost), ErrPlayerNotFound)

	missing := &models.Participant{TournamentID: 9999, PlayerID: playerID, PaymentStatus: models.PaymentPaid}
	assert.ErrorIs(t, repo.AddParticipant(ctx, missing), ErrTournamentNotFound)

	id := tournament.ID
	participants, err := repo.ListParticipants(ctx, ListTournamentsFilter{TournamentID: &id})
	require.NoError(t, err)
	require.Len(t, participants, 1)
	require.NotNil(t, participants[0].Player)
	assert.Equal(t, "ivan", participants[0].Player.Name)
}

func TestTournamentRepository_ConcurrentRegistration(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresTournamentRepository(conn)
	playerID := insertUser(t, conn, "petr")
	tournament := newTournament(t, repo, "Cup", "2024-07-01")

	const attempts = 10
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.AddParticipant(context.Background(), &models.Participant{
				TournamentID: tournament.ID, PlayerID: playerID, PaymentStatus: models.PaymentPaid,
			})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrParticipantConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
}

func TestTournamentRepository_StatusUpdates(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresTournamentRepository(conn)
	ctx := context.Background()
	past := newTournament(t, repo, "Past", "2024-06-10")
	today := newTournament(t, repo, "Today", "2024-06-15")
	future := newTournament(t, repo, "Future", "2024-06-20")

	assert.ErrorIs(t, repo.UpdateStatus(ctx, past.ID, "finished"), ErrTournamentInvalidStatus)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 9999, models.StatusOngoing), ErrTournamentNotFound)

	day, err := models.ParseDate("2024-06-15")
	require.NoError(t, err)
	changes, err := repo.AdvanceStatusesByDate(ctx, day)
	require.NoError(t, err)
	assert.ElementsMatch(t, []StatusChange{
		{TournamentID: past.ID, Status: models.StatusCompleted},
		{TournamentID: today.ID, Status: models.StatusOngoing},
	}, changes)

	got, err := repo.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, got.Status)

	ongoing := models.StatusOngoing
	list, err := repo.List(ctx, ListTournamentsFilter{ActiveOnly: true, Status: &ongoing})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, today.ID, list[0].ID)
}

func TestTournamentRepository_UpdateBanner(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresTournamentRepository(conn)
	ctx := context.Background()
	tournament := newTournament(t, repo, "Cup", "2024-07-01")
	url, key := "https://cdn.example.com/b.png", "tournaments/1/b.png"

	require.NoError(t, repo.UpdateBanner(ctx, tournament.ID, &url, &key))

	got, err := repo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Banner)
	assert.Equal(t, url, *got.Banner)
	assert.Equal(t, key, *got.BannerKey)
}

func newBooking(orderID, date, slot string) *models.Booking {
	d, _ := models.ParseDate(date)
	return &models.Booking{
		OrderID:     orderID,
		Name:        "Ivan",
		PhoneNumber: "0123456789",
		Date:        d,
		TimeSlot:    slot,
		Status:      models.BookingPending,
	}
}

func TestBookingRepository(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresBookingRepository(conn)
	ctx := context.Background()

	first := newBooking("FB1-AAAAAA", "2024-06-01", "10:00-11:00")
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	assert.ErrorIs(t, repo.Create(ctx, newBooking("FB2-BBBBBB", "2024-06-01", "10:00-11:00")), ErrBookingSlotTaken)
	assert.ErrorIs(t, repo.Create(ctx, newBooking("FB1-AAAAAA", "2024-06-01", "11:00-12:00")), ErrBookingOrderIDConflict)
	require.NoError(t, repo.Create(ctx, newBooking("FB3-CCCCCC", "2024-06-02", "10:00-11:00")))

	day, _ := models.ParseDate("2024-06-01")
	occupied, err := repo.ListOccupiedSlots(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00-11:00"}, occupied)

	cancelled, err := repo.Cancel(ctx, "FB1-AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)

	_, err = repo.Cancel(ctx, "FB1-AAAAAA")
	assert.ErrorIs(t, err, ErrBookingAlreadyCancelled)
	_, err = repo.Cancel(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	occupied, err = repo.ListOccupiedSlots(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, occupied)

	require.NoError(t, repo.Create(ctx, newBooking("FB4-DDDDDD", "2024-06-01", "10:00-11:00")), "cancelled slot must be bookable again")

	got, err := repo.GetByOrderID(ctx, "FB4-DDDDDD")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", got.Date.String())
	_, err = repo.GetByOrderID(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookingRepository_ConcurrentSameSlot(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresBookingRepository(conn)

	const attempts = 10
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Create(context.Background(), newBooking(fmt.Sprintf("FBC-%06d", i), "2024-06-01", "18:00-19:00"))
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, taken int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrBookingSlotTaken):
			taken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, taken)
}
