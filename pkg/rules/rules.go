// Package rules wraps a chess move generator behind a small interface.
//
// Board states are FEN strings. Nothing outside this package interprets them.
package rules

import (
	"errors"
	"strings"
)

var (
	ErrInvalidBoard = errors.New("invalid board state")
	ErrIllegalMove  = errors.New("illegal move")
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Move is a from/to square pair in algebraic coordinates ("e2", "e4").
// Promotion is one of q, r, b, n and is only meaningful for pawns reaching the last rank.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI renders the move in long algebraic form, e.g. "e7e8q".
func (m Move) UCI() string {
	return normSquare(m.From) + normSquare(m.To) + normPromotion(m.Promotion)
}

type Engine interface {
	// Initial returns the canonical start position.
	Initial() string
	Load(board string) (Position, error)
}

// Position is a mutable handle on a loaded board.
type Position interface {
	Move(m Move) error
	Board() string
	Turn() Color
	LegalMoves() []Move
	IsCheckmate() bool
	IsDraw() bool
	IsStalemate() bool
	// Terminal reports checkmate, draw or stalemate.
	Terminal() bool
	Render() string
}

func normSquare(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normPromotion(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "", "none":
		return ""
	case "q", "queen":
		return "q"
	case "r", "rook":
		return "r"
	case "b", "bishop":
		return "b"
	case "n", "knight":
		return "n"
	default:
		// passed through so the legality check rejects it
		return strings.ToLower(strings.TrimSpace(p))
	}
}
