// Package notify publishes turn notifications and delivers them downstream.
//
// Publishing only guarantees the event was enqueued. A Consumer reads the
// queue, resolves the player's address and hands a text message to a
// Deliverer; events stay pending until delivery succeeds.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type Player struct {
	Email string `json:"email"`
}

// Event tells a player it is their turn (Token set) or that the game ended (Finished set).
type Event struct {
	ID       string `json:"id"`
	Player   Player `json:"player"`
	Game     string `json:"game"`
	Token    string `json:"token,omitempty"`
	Finished bool   `json:"finished,omitempty"`
}

func NewTurnEvent(player Player, gameID, token string) Event {
	return Event{ID: uuid.NewString(), Player: player, Game: gameID, Token: token}
}

func NewFinishedEvent(player Player, gameID string) Event {
	return Event{ID: uuid.NewString(), Player: player, Game: gameID, Finished: true}
}

type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

type LogSink struct {
	Logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{Logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, ev Event) error {
	s.Logger.InfoContext(ctx, "notification",
		"event", ev.ID,
		"player", ev.Player.Email,
		"game", ev.Game,
		"has_token", ev.Token != "",
		"finished", ev.Finished,
	)
	return nil
}
