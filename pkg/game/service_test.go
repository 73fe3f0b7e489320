package game_test

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"testing"
	"time"

	"chessd/pkg/game"
	"chessd/pkg/game/mocks"
	"chessd/pkg/notify"
	notifymocks "chessd/pkg/notify/mocks"
	"chessd/pkg/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	alice = game.Player{Email: "alice@example.com"}
	bob   = game.Player{Email: "bob@example.com"}
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) add(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) last() notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

func recordingSink(t *testing.T) (*notifymocks.Sink, *recorder) {
	rec := &recorder{}
	sink := notifymocks.NewSink(t)
	sink.On("Publish", mock.Anything, mock.AnythingOfType("notify.Event")).
		Run(func(args mock.Arguments) { rec.add(args.Get(1).(notify.Event)) }).
		Return(nil).Maybe()
	return sink, rec
}

func newService(repo game.Repository, sink notify.Sink, opts ...game.Option) *game.Service {
	return game.NewService(repo, rules.NewChessEngine(), sink, game.NewTokenIssuer(bcrypt.MinCost), slog.Default(), opts...)
}

func play(t *testing.T, svc *game.Service, rec *recorder, id string, moves ...string) *game.MoveOutcome {
	t.Helper()
	var out *game.MoveOutcome
	for _, m := range moves {
		var err error
		out, err = svc.ApplyMove(context.Background(), id, rec.last().Token, rules.Move{From: m[:2], To: m[2:4]})
		require.NoError(t, err, m)
	}
	return out
}

func TestCreateGame(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := game.NewMemoryRepo()
		sink, rec := recordingSink(t)
		svc := newService(repo, sink)

		summary, err := svc.CreateGame(context.Background(), alice, bob)
		require.NoError(t, err)
		assert.Len(t, summary.ID, 22)
		assert.NotEmpty(t, summary.Rendering)

		stored, err := repo.Get(context.Background(), summary.ID)
		require.NoError(t, err)
		assert.Equal(t, game.StatusInProgress, stored.Status)
		assert.Equal(t, rules.NewChessEngine().Initial(), stored.BoardState)
		assert.Equal(t, alice, stored.White)
		assert.Equal(t, bob, stored.Black)
		assert.False(t, stored.LastUpdate.IsZero())

		events := rec.all()
		require.Len(t, events, 1)
		assert.Equal(t, alice.Email, events[0].Player.Email)
		assert.Equal(t, summary.ID, events[0].Game)
		assert.NotEmpty(t, events[0].Token)
		assert.NotEqual(t, events[0].Token, stored.TurnTokenHash)
	})

	t.Run("invalid email", func(t *testing.T) {
		svc := newService(game.NewMemoryRepo(), notifymocks.NewSink(t))

		_, err := svc.CreateGame(context.Background(), game.Player{Email: "not-an-email"}, bob)
		assert.ErrorIs(t, err, game.ErrValidation)

		_, err = svc.CreateGame(context.Background(), alice, game.Player{})
		assert.ErrorIs(t, err, game.ErrValidation)
	})

	t.Run("same player twice", func(t *testing.T) {
		svc := newService(game.NewMemoryRepo(), notifymocks.NewSink(t))

		_, err := svc.CreateGame(context.Background(), alice, game.Player{Email: "ALICE@example.com"})
		assert.ErrorIs(t, err, game.ErrValidation)
	})

	t.Run("repo error", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
		svc := newService(repo, notifymocks.NewSink(t))

		summary, err := svc.CreateGame(context.Background(), alice, bob)
		assert.Nil(t, summary)
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("publish failure does not fail creation", func(t *testing.T) {
		repo := game.NewMemoryRepo()
		sink := notifymocks.NewSink(t)
		sink.On("Publish", mock.Anything, mock.Anything).Return(errors.New("queue full"))
		svc := newService(repo, sink)

		summary, err := svc.CreateGame(context.Background(), alice, bob)
		require.NoError(t, err)

		_, err = repo.Get(context.Background(), summary.ID)
		assert.NoError(t, err)
	})
}

func TestGetGame(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		svc := newService(game.NewMemoryRepo(), notifymocks.NewSink(t))

		g, err := svc.GetGame(context.Background(), "nope")
		assert.Nil(t, g)
		assert.ErrorIs(t, err, game.ErrNotFound)
	})

	t.Run("repo failure reads as not found", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		repo.On("Get", mock.Anything, "abc").Return(nil, errors.New("timeout"))
		svc := newService(repo, notifymocks.NewSink(t))

		_, err := svc.GetGame(context.Background(), "abc")
		assert.ErrorIs(t, err, game.ErrNotFound)
	})
}

func TestListGamesAndInspect(t *testing.T) {
	repo := game.NewMemoryRepo()
	sink, _ := recordingSink(t)
	svc := newService(repo, sink)

	first, err := svc.CreateGame(context.Background(), alice, bob)
	require.NoError(t, err)
	_, err = svc.CreateGame(context.Background(), bob, alice)
	require.NoError(t, err)

	games, err := svc.ListGames(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 2)

	view, err := svc.Inspect(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.White, view.Turn)
	assert.Len(t, view.LegalMoves, 20)
	assert.Equal(t, first.Rendering, view.Rendering)

	_, err = svc.Inspect(context.Background(), "missing")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestListGamesQueryError(t *testing.T) {
	repo := mocks.NewRepository(t)
	var seq iter.Seq2[*game.Game, error] = func(yield func(*game.Game, error) bool) {
		yield(nil, errors.New("cursor died"))
	}
	repo.On("Query", mock.Anything, game.Filter{}).Return(seq)
	svc := newService(repo, notifymocks.NewSink(t))

	games, err := svc.ListGames(context.Background())
	assert.Nil(t, games)
	assert.ErrorContains(t, err, "cursor died")
}

func TestApplyMove(t *testing.T) {
	setup := func(t *testing.T) (*game.Service, *game.MemoryRepo, *recorder, string) {
		repo := game.NewMemoryRepo()
		sink, rec := recordingSink(t)
		svc := newService(repo, sink)
		summary, err := svc.CreateGame(context.Background(), alice, bob)
		require.NoError(t, err)
		return svc, repo, rec, summary.ID
	}

	t.Run("token rotates to the opponent", func(t *testing.T) {
		svc, repo, rec, id := setup(t)
		before, _ := repo.Get(context.Background(), id)
		whiteToken := rec.last().Token

		out, err := svc.ApplyMove(context.Background(), id, whiteToken, rules.Move{From: "e2", To: "e4"})
		require.NoError(t, err)
		assert.False(t, out.Finished)

		after, _ := repo.Get(context.Background(), id)
		assert.NotEqual(t, before.BoardState, after.BoardState)
		assert.NotEqual(t, before.TurnTokenHash, after.TurnTokenHash)
		assert.False(t, after.LastUpdate.Before(before.LastUpdate))

		ev := rec.last()
		assert.Equal(t, bob.Email, ev.Player.Email)
		assert.NotEqual(t, whiteToken, ev.Token)

		_, err = svc.ApplyMove(context.Background(), id, whiteToken, rules.Move{From: "d2", To: "d4"})
		assert.ErrorIs(t, err, game.ErrUnauthorized)
	})

	t.Run("wrong token", func(t *testing.T) {
		svc, repo, _, id := setup(t)
		before, _ := repo.Get(context.Background(), id)

		_, err := svc.ApplyMove(context.Background(), id, "forged", rules.Move{From: "e2", To: "e4"})
		assert.ErrorIs(t, err, game.ErrUnauthorized)

		_, err = svc.ApplyMove(context.Background(), id, "", rules.Move{From: "e2", To: "e4"})
		assert.ErrorIs(t, err, game.ErrUnauthorized)

		after, _ := repo.Get(context.Background(), id)
		assert.Equal(t, before, after)
	})

	t.Run("illegal move keeps the token", func(t *testing.T) {
		svc, repo, rec, id := setup(t)
		before, _ := repo.Get(context.Background(), id)
		token := rec.last().Token

		_, err := svc.ApplyMove(context.Background(), id, token, rules.Move{From: "e2", To: "e5"})
		assert.ErrorIs(t, err, game.ErrIllegalMove)

		after, _ := repo.Get(context.Background(), id)
		assert.Equal(t, before, after)
		assert.Len(t, rec.all(), 1)

		_, err = svc.ApplyMove(context.Background(), id, token, rules.Move{From: "e2", To: "e4"})
		assert.NoError(t, err)
	})

	t.Run("unknown game", func(t *testing.T) {
		svc, _, rec, _ := setup(t)

		_, err := svc.ApplyMove(context.Background(), "missing", rec.last().Token, rules.Move{From: "e2", To: "e4"})
		assert.ErrorIs(t, err, game.ErrNotFound)
	})

	t.Run("checkmate finishes the game", func(t *testing.T) {
		svc, repo, rec, id := setup(t)

		out := play(t, svc, rec, id, "f2f3", "e7e5", "g2g4", "d8h4")
		assert.True(t, out.Finished)
		assert.NotEmpty(t, out.Rendering)

		stored, _ := repo.Get(context.Background(), id)
		assert.Equal(t, game.StatusFinished, stored.Status)

		events := rec.all()
		tail := events[len(events)-2:]
		for _, ev := range tail {
			assert.True(t, ev.Finished)
			assert.Empty(t, ev.Token)
			assert.Equal(t, id, ev.Game)
		}
		assert.ElementsMatch(t, []string{alice.Email, bob.Email}, []string{tail[0].Player.Email, tail[1].Player.Email})

		_, err := svc.ApplyMove(context.Background(), id, events[len(events)-3].Token, rules.Move{From: "e1", To: "f2"})
		assert.ErrorIs(t, err, game.ErrUnauthorized)
	})

	t.Run("last update never goes backwards", func(t *testing.T) {
		repo := game.NewMemoryRepo()
		sink, rec := recordingSink(t)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		svc := newService(repo, sink, game.WithClock(clock))

		summary, err := svc.CreateGame(context.Background(), alice, bob)
		require.NoError(t, err)

		now = now.Add(-time.Hour)
		play(t, svc, rec, summary.ID, "e2e4")

		stored, _ := repo.Get(context.Background(), summary.ID)
		assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), stored.LastUpdate)
	})

	t.Run("concurrent moves with one token", func(t *testing.T) {
		svc, _, rec, id := setup(t)
		token := rec.last().Token

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			results []error
		)
		for _, mv := range []rules.Move{{From: "e2", To: "e4"}, {From: "d2", To: "d4"}} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.ApplyMove(context.Background(), id, token, mv)
				mu.Lock()
				results = append(results, err)
				mu.Unlock()
			}()
		}
		wg.Wait()

		var ok, unauthorized int
		for _, err := range results {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, game.ErrUnauthorized):
				unauthorized++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, unauthorized)
	})

	t.Run("lost compare and swap", func(t *testing.T) {
		issuer := game.NewTokenIssuer(bcrypt.MinCost)
		token, hash, err := issuer.Issue()
		require.NoError(t, err)

		repo := mocks.NewRepository(t)
		repo.On("Get", mock.Anything, "g1").Return(&game.Game{
			ID:            "g1",
			BoardState:    rules.NewChessEngine().Initial(),
			Status:        game.StatusInProgress,
			White:         alice,
			Black:         bob,
			TurnTokenHash: hash,
		}, nil)
		repo.On("Update", mock.Anything, mock.Anything, hash).Return(game.ErrTokenMismatch)

		svc := game.NewService(repo, rules.NewChessEngine(), notifymocks.NewSink(t), issuer, slog.Default())
		_, err = svc.ApplyMove(context.Background(), "g1", token, rules.Move{From: "e2", To: "e4"})
		assert.ErrorIs(t, err, game.ErrUnauthorized)
	})

	t.Run("update failure", func(t *testing.T) {
		issuer := game.NewTokenIssuer(bcrypt.MinCost)
		token, hash, err := issuer.Issue()
		require.NoError(t, err)

		repo := mocks.NewRepository(t)
		repo.On("Get", mock.Anything, "g1").Return(&game.Game{
			ID:            "g1",
			BoardState:    rules.NewChessEngine().Initial(),
			Status:        game.StatusInProgress,
			White:         alice,
			Black:         bob,
			TurnTokenHash: hash,
		}, nil)
		repo.On("Update", mock.Anything, mock.Anything, hash).Return(errors.New("disk full"))

		svc := game.NewService(repo, rules.NewChessEngine(), notifymocks.NewSink(t), issuer, slog.Default())
		_, err = svc.ApplyMove(context.Background(), "g1", token, rules.Move{From: "e2", To: "e4"})
		assert.ErrorContains(t, err, "disk full")
		assert.NotErrorIs(t, err, game.ErrUnauthorized)
	})
}
