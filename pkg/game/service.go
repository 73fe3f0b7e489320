package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chessd/pkg/generator"
	"chessd/pkg/notify"
	"chessd/pkg/rules"
)

type ServiceGame interface {
	CreateGame(ctx context.Context, white, black Player) (*Summary, error)
	GetGame(ctx context.Context, id string) (*Game, error)
	ListGames(ctx context.Context) ([]*Game, error)
	Inspect(ctx context.Context, id string) (*View, error)
	ApplyMove(ctx context.Context, id, token string, move rules.Move) (*MoveOutcome, error)
}

type Service struct {
	repo     Repository
	engine   rules.Engine
	sink     notify.Sink
	tokens   *TokenIssuer
	logger   *slog.Logger
	tracer   trace.Tracer
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

func NewService(repo Repository, engine rules.Engine, sink notify.Sink, tokens *TokenIssuer, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		engine:   engine,
		sink:     sink,
		tokens:   tokens,
		logger:   logger,
		tracer:   otel.Tracer("chessd/pkg/game"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateGame(ctx context.Context, white, black Player) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "game.Create")
	defer span.End()

	white.Email = strings.TrimSpace(white.Email)
	black.Email = strings.TrimSpace(black.Email)
	if err := s.validatePlayers(white, black); err != nil {
		return nil, err
	}

	pos, err := s.engine.Load(s.engine.Initial())
	if err != nil {
		return nil, fmt.Errorf("load initial board: %w", err)
	}

	id, err := generator.GameID()
	if err != nil {
		return nil, fmt.Errorf("game id gen error: %w", err)
	}
	token, hash, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}

	g := &Game{
		ID:            id,
		BoardState:    pos.Board(),
		Status:        StatusInProgress,
		LastUpdate:    s.stamp(time.Time{}),
		White:         white,
		Black:         black,
		TurnTokenHash: hash,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("save game %s: %w", id, err)
	}
	span.SetAttributes(attribute.String("game.id", id))
	s.logger.InfoContext(ctx, "game created", "game", id)

	s.publish(ctx, notify.NewTurnEvent(notify.Player(white), id, token))

	return &Summary{ID: id, Rendering: pos.Render()}, nil
}

// GetGame reports ErrNotFound for any repository failure, not only a missing
// id; the underlying error is logged.
func (s *Service) GetGame(ctx context.Context, id string) (*Game, error) {
	ctx, span := s.tracer.Start(ctx, "game.Get", trace.WithAttributes(attribute.String("game.id", id)))
	defer span.End()

	g, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.ErrorContext(ctx, "game lookup failed", "game", id, "error", err)
			span.RecordError(err)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return g, nil
}

func (s *Service) ListGames(ctx context.Context) ([]*Game, error) {
	games := make([]*Game, 0)
	for g, err := range s.repo.Query(ctx, Filter{}) {
		if err != nil {
			return nil, fmt.Errorf("list games: %w", err)
		}
		games = append(games, g)
	}
	return games, nil
}

func (s *Service) Inspect(ctx context.Context, id string) (*View, error) {
	g, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	pos, err := s.engine.Load(g.BoardState)
	if err != nil {
		return nil, fmt.Errorf("load board of game %s: %w", id, err)
	}

	return &View{
		Game:       g,
		Turn:       pos.Turn(),
		Rendering:  pos.Render(),
		LegalMoves: pos.LegalMoves(),
	}, nil
}

// ApplyMove checks the presented token before consulting the rules engine so
// a rejected caller learns nothing about the move. The write is conditional on
// the digest read here; losing that race is reported as ErrUnauthorized.
func (s *Service) ApplyMove(ctx context.Context, id, token string, move rules.Move) (*MoveOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "game.ApplyMove", trace.WithAttributes(attribute.String("game.id", id)))
	defer span.End()

	g, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	if g.Finished() || !s.tokens.Verify(g.TurnTokenHash, token) {
		return nil, ErrUnauthorized
	}

	pos, err := s.engine.Load(g.BoardState)
	if err != nil {
		return nil, fmt.Errorf("load board of game %s: %w", id, err)
	}

	mover := pos.Turn()
	if err := pos.Move(move); err != nil {
		if errors.Is(err, rules.ErrIllegalMove) {
			return nil, fmt.Errorf("%w: cannot move %s to %s", ErrIllegalMove, move.From, move.To)
		}
		return nil, err
	}

	finished := pos.Terminal()

	nextToken, nextHash, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}

	updated := *g
	updated.BoardState = pos.Board()
	updated.Status = StatusInProgress
	if finished {
		updated.Status = StatusFinished
	}
	updated.LastUpdate = s.stamp(g.LastUpdate)
	updated.TurnTokenHash = nextHash

	if err := s.repo.Update(ctx, &updated, g.TurnTokenHash); err != nil {
		if errors.Is(err, ErrTokenMismatch) {
			s.logger.WarnContext(ctx, "concurrent move rejected", "game", id)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("save game %s: %w", id, err)
	}

	span.SetAttributes(attribute.Bool("game.finished", finished))
	s.logger.InfoContext(ctx, "move applied", "game", id, "color", mover, "move", move.UCI(), "finished", finished)

	if finished {
		s.publish(ctx, notify.NewFinishedEvent(notify.Player(updated.White), id))
		s.publish(ctx, notify.NewFinishedEvent(notify.Player(updated.Black), id))
	} else {
		next := updated.PlayerFor(mover.Opponent())
		s.publish(ctx, notify.NewTurnEvent(notify.Player(next), id, nextToken))
	}

	return &MoveOutcome{Rendering: pos.Render(), Finished: finished}, nil
}

func (s *Service) validatePlayers(white, black Player) error {
	if err := s.validate.Struct(white); err != nil {
		return fmt.Errorf("%w: white player: %v", ErrValidation, err)
	}
	if err := s.validate.Struct(black); err != nil {
		return fmt.Errorf("%w: black player: %v", ErrValidation, err)
	}
	if white.Same(black) {
		return fmt.Errorf("%w: players must differ", ErrValidation)
	}
	return nil
}

// stamp never returns a time before prev.
func (s *Service) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Millisecond)
	if now.Before(prev) {
		return prev
	}
	return now
}

// publish does not roll anything back on failure; the move is already stored.
func (s *Service) publish(ctx context.Context, ev notify.Event) {
	if err := s.sink.Publish(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "notification publish failed",
			"event", ev.ID, "game", ev.Game, "player", ev.Player.Email, "error", err)
	}
}
