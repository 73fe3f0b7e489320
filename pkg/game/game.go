// Package game holds the chess session aggregate, the turn-token protocol
// and the repositories that persist sessions.
package game

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"chessd/pkg/rules"
)

var (
	ErrNotFound      = errors.New("game not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrIllegalMove   = errors.New("illegal move")
	ErrValidation    = errors.New("validation failed")
	ErrAlreadyExists = errors.New("game already exists")
	// ErrTokenMismatch is returned by Repository.Update when no stored game
	// matches both the id and the expected token digest.
	ErrTokenMismatch = errors.New("turn token changed")
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

type Player struct {
	Email string `json:"email" bson:"email" validate:"required,email,max=254"`
}

func (p Player) Same(other Player) bool {
	return strings.EqualFold(strings.TrimSpace(p.Email), strings.TrimSpace(other.Email))
}

// Game is a single chess session. TurnTokenHash is the bcrypt digest of the
// token that authorizes the next move; the token itself is never stored.
type Game struct {
	ID            string    `json:"id" bson:"_id"`
	BoardState    string    `json:"boardState" bson:"board_state"`
	Status        Status    `json:"status" bson:"status"`
	LastUpdate    time.Time `json:"lastUpdate" bson:"last_update"`
	White         Player    `json:"white" bson:"white"`
	Black         Player    `json:"black" bson:"black"`
	TurnTokenHash string    `json:"-" bson:"turn_token_hash"`
}

func (g *Game) Finished() bool {
	return g.Status == StatusFinished
}

func (g *Game) PlayerFor(c rules.Color) Player {
	if c == rules.White {
		return g.White
	}
	return g.Black
}

// Filter selects games in Repository.Query. Zero fields match everything.
type Filter struct {
	Status *Status
	// UpdatedBefore matches LastUpdate <= UpdatedBefore.
	UpdatedBefore time.Time
}

func WithStatus(s Status) Filter {
	return Filter{Status: &s}
}

func IdleSince(t time.Time) Filter {
	return Filter{UpdatedBefore: t}
}

func (f Filter) Match(g *Game) bool {
	if f.Status != nil && g.Status != *f.Status {
		return false
	}
	if !f.UpdatedBefore.IsZero() && g.LastUpdate.After(f.UpdatedBefore) {
		return false
	}
	return true
}

type Repository interface {
	Get(ctx context.Context, id string) (*Game, error)
	Create(ctx context.Context, g *Game) error
	// Update overwrites the mutable fields of g only if the stored digest
	// still equals prevTokenHash.
	Update(ctx context.Context, g *Game, prevTokenHash string) error
	// Query is lazy and restartable: every range re-runs the query.
	Query(ctx context.Context, f Filter) iter.Seq2[*Game, error]
	// Delete of a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

type Summary struct {
	ID        string `json:"id"`
	Rendering string `json:"rendering"`
}

type MoveOutcome struct {
	Rendering string `json:"rendering"`
	Finished  bool   `json:"finished"`
}

type View struct {
	Game       *Game        `json:"game"`
	Turn       rules.Color  `json:"turn"`
	Rendering  string       `json:"rendering"`
	LegalMoves []rules.Move `json:"legalMoves"`
}
