package rules

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// ChessEngine implements Engine on top of github.com/corentings/chess.
type ChessEngine struct{}

func NewChessEngine() *ChessEngine {
	return &ChessEngine{}
}

func (e *ChessEngine) Initial() string {
	return chess.NewGame().FEN()
}

func (e *ChessEngine) Load(board string) (Position, error) {
	board = strings.TrimSpace(board)
	if board == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidBoard)
	}

	option, err := chess.FEN(board)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}

	return &chessPosition{game: chess.NewGame(option)}, nil
}

type chessPosition struct {
	game *chess.Game
}

func (p *chessPosition) Move(m Move) error {
	if normSquare(m.From) == "" || normSquare(m.To) == "" {
		return fmt.Errorf("%w: missing square", ErrIllegalMove)
	}
	if p.Terminal() {
		return fmt.Errorf("%w: game is over", ErrIllegalMove)
	}

	uci := m.UCI()
	for _, valid := range p.game.ValidMoves() {
		if valid.String() != uci {
			continue
		}
		if err := p.game.PushNotationMove(uci, chess.UCINotation{}, nil); err != nil {
			return fmt.Errorf("%w: %v", ErrIllegalMove, err)
		}
		return nil
	}

	return fmt.Errorf("%w: cannot move %s to %s", ErrIllegalMove, m.From, m.To)
}

func (p *chessPosition) Board() string {
	return p.game.FEN()
}

func (p *chessPosition) Turn() Color {
	if p.game.Position().Turn() == chess.White {
		return White
	}
	return Black
}

func (p *chessPosition) LegalMoves() []Move {
	valid := p.game.ValidMoves()
	moves := make([]Move, 0, len(valid))
	for _, mv := range valid {
		uci := mv.String()
		if len(uci) < 4 {
			continue
		}
		moves = append(moves, Move{From: uci[:2], To: uci[2:4], Promotion: uci[4:]})
	}
	return moves
}

func (p *chessPosition) IsCheckmate() bool {
	return p.game.Method() == chess.Checkmate
}

func (p *chessPosition) IsStalemate() bool {
	return p.game.Method() == chess.Stalemate
}

// IsDraw includes claimable draws (threefold repetition, fifty-move rule),
// not only the ones the library ends the game on.
func (p *chessPosition) IsDraw() bool {
	if p.game.Outcome() == chess.Draw {
		return true
	}
	for _, method := range p.game.EligibleDraws() {
		if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
			return true
		}
	}
	return false
}

func (p *chessPosition) Terminal() bool {
	return p.IsCheckmate() || p.IsDraw() || p.IsStalemate()
}

func (p *chessPosition) Render() string {
	return p.game.Position().Board().Draw()
}
