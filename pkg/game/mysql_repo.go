package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const gameColumns = "id, board_state, status, last_update, white_email, black_email, turn_token_hash"

// MySQLRepo stores games in the games table. last_update is kept as unix
// milliseconds.
type MySQLRepo struct {
	DB *sql.DB
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*Game, error) {
	var (
		g      Game
		status string
		millis int64
	)
	err := row.Scan(&g.ID, &g.BoardState, &status, &millis, &g.White.Email, &g.Black.Email, &g.TurnTokenHash)
	if err != nil {
		return nil, err
	}
	g.Status = Status(status)
	g.LastUpdate = time.UnixMilli(millis).UTC()
	return &g, nil
}

func (r *MySQLRepo) Get(ctx context.Context, id string) (*Game, error) {
	g, err := scanGame(r.DB.QueryRowContext(ctx,
		"SELECT "+gameColumns+" FROM games WHERE id = ?", id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch game: %w", err)
	}
	return g, nil
}

func (r *MySQLRepo) Create(ctx context.Context, g *Game) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO games ("+gameColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		g.ID, g.BoardState, string(g.Status), g.LastUpdate.UnixMilli(), g.White.Email, g.Black.Email, g.TurnTokenHash,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == 1062 {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (r *MySQLRepo) Update(ctx context.Context, g *Game, prevTokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE games SET board_state = ?, status = ?, last_update = ?, turn_token_hash = ? WHERE id = ? AND turn_token_hash = ?",
		g.BoardState, string(g.Status), g.LastUpdate.UnixMilli(), g.TurnTokenHash, g.ID, prevTokenHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if n == 0 {
		return ErrTokenMismatch
	}
	return nil
}

func (r *MySQLRepo) Query(ctx context.Context, f Filter) iter.Seq2[*Game, error] {
	return func(yield func(*Game, error) bool) {
		var (
			where []string
			args  []any
		)
		if f.Status != nil {
			where = append(where, "status = ?")
			args = append(args, string(*f.Status))
		}
		if !f.UpdatedBefore.IsZero() {
			where = append(where, "last_update <= ?")
			args = append(args, f.UpdatedBefore.UnixMilli())
		}

		query := "SELECT " + gameColumns + " FROM games"
		if len(where) > 0 {
			query += " WHERE " + strings.Join(where, " AND ")
		}
		query += " ORDER BY id"

		rows, err := r.DB.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("failed to query games: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			g, err := scanGame(rows)
			if err != nil {
				if !yield(nil, fmt.Errorf("failed to scan game: %w", err)) {
					return
				}
				continue
			}
			if !yield(g, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("game rows: %w", err))
		}
	}
}

func (r *MySQLRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}
