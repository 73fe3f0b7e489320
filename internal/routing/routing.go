package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"chessd/pkg/handlers"
	"chessd/pkg/middleware"
)

const (
	gameIDPattern = "{game_id:[a-zA-Z0-9]+}"
	reapJobs      = "finished|stale"

	shutdownTimeout = 10 * time.Second
)

func NewRouter(gameHandler *handlers.GameHandler, adminHandler *handlers.AdminHandler, jwtSecret string, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Panic(logger))
	r.Use(middleware.Logging(logger))

	InitRoutes(r, gameHandler, adminHandler, jwtSecret, logger)
	return r
}

func InitRoutes(r *mux.Router, gameHandler *handlers.GameHandler, adminHandler *handlers.AdminHandler, jwtSecret string, logger *slog.Logger) {
	gameRouter := r.PathPrefix("/game").Subrouter()
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.CheckJWT(jwtSecret, logger))

	r.HandleFunc("/healthz", handlers.Health).Methods("GET")

	/* game routers */
	gameRouter.HandleFunc("", gameHandler.CreateGame).Methods("POST")
	gameRouter.HandleFunc("", gameHandler.ListGames).Methods("GET")
	gameRouter.HandleFunc("/"+gameIDPattern, gameHandler.GetGame).Methods("GET")
	gameRouter.HandleFunc("/"+gameIDPattern, gameHandler.MakeMove).Methods("POST")
	gameRouter.HandleFunc("/"+gameIDPattern+"/moves", gameHandler.GetMoves).Methods("GET")

	/* admin routers */
	adminRouter.HandleFunc("/reap/{job:(?:"+reapJobs+")}", adminHandler.Reap).Methods("POST")
}

// StartServer serves h on addr until ctx is cancelled, then drains in-flight
// requests.
func StartServer(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("The server is running on %s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
