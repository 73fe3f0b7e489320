package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"chessd/pkg/game"
	"chessd/pkg/rules"
)

const (
	muxVarGameID   string = "game_id"
	queryParamTurn string = "token"
)

type GameHandler struct {
	Service game.ServiceGame
	Logger  *slog.Logger
}

func NewGameHandler(service game.ServiceGame, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		Service: service,
		Logger:  logger,
	}
}

type createGameRequest struct {
	White game.Player `json:"w"`
	Black game.Player `json:"b"`
}

type gameListItem struct {
	ID         string      `json:"id"`
	BoardState string      `json:"boardState"`
	Status     game.Status `json:"status"`
	LastUpdate time.Time   `json:"lastUpdate"`
	White      game.Player `json:"white"`
	Black      game.Player `json:"black"`
}

type gameView struct {
	ID         string       `json:"id"`
	BoardState string       `json:"boardState"`
	Status     game.Status  `json:"status"`
	Turn       rules.Color  `json:"turn"`
	Rendering  string       `json:"rendering"`
	LegalMoves []rules.Move `json:"legalMoves"`
}

func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("invalid json", "error", err)
		writeError(w, http.StatusBadRequest, typeError, "invalid JSON payload")
		return
	}

	summary, err := h.Service.CreateGame(r.Context(), req.White, req.Black)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONStatus(w, h.Logger, http.StatusCreated, summary)
}

func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.Service.ListGames(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]gameListItem, 0, len(games))
	for _, g := range games {
		items = append(items, gameListItem{
			ID:         g.ID,
			BoardState: g.BoardState,
			Status:     g.Status,
			LastUpdate: g.LastUpdate,
			White:      g.White,
			Black:      g.Black,
		})
	}
	writeJSON(w, h.Logger, items)
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	view, ok := h.inspect(w, r)
	if !ok {
		return
	}

	writeJSON(w, h.Logger, gameView{
		ID:         view.Game.ID,
		BoardState: view.Game.BoardState,
		Status:     view.Game.Status,
		Turn:       view.Turn,
		Rendering:  view.Rendering,
		LegalMoves: view.LegalMoves,
	})
}

func (h *GameHandler) GetMoves(w http.ResponseWriter, r *http.Request) {
	view, ok := h.inspect(w, r)
	if !ok {
		return
	}

	moves := view.LegalMoves
	if view.Game.Finished() || moves == nil {
		moves = []rules.Move{}
	}
	writeJSON(w, h.Logger, moves)
}

func (h *GameHandler) MakeMove(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id := mux.Vars(r)[muxVarGameID]
	if id == "" {
		writeError(w, http.StatusBadRequest, typeMessage, "invalid game id")
		return
	}

	var move rules.Move
	if err := json.NewDecoder(r.Body).Decode(&move); err != nil {
		h.Logger.Error("invalid json", "error", err)
		writeError(w, http.StatusBadRequest, typeError, "invalid JSON payload")
		return
	}

	token := r.URL.Query().Get(queryParamTurn)

	outcome, err := h.Service.ApplyMove(r.Context(), id, token, move)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if outcome.Finished {
		writeText(w, h.Logger, "game over\n"+outcome.Rendering)
		return
	}
	writeText(w, h.Logger, "move submitted")
}

func (h *GameHandler) inspect(w http.ResponseWriter, r *http.Request) (*game.View, bool) {
	id := mux.Vars(r)[muxVarGameID]
	if id == "" {
		writeError(w, http.StatusBadRequest, typeMessage, "invalid game id")
		return nil, false
	}

	view, err := h.Service.Inspect(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return nil, false
	}
	return view, true
}

func (h *GameHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		writeError(w, http.StatusNotFound, typeMessage, "game not found")
	case errors.Is(err, game.ErrUnauthorized):
		writeError(w, http.StatusForbidden, typeMessage, "unauthorized")
	case errors.Is(err, game.ErrIllegalMove):
		writeError(w, http.StatusForbidden, typeMessage, "illegal move")
	case errors.Is(err, game.ErrValidation):
		writeError(w, http.StatusBadRequest, typeError, err.Error())
	default:
		h.Logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "internal error")
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
