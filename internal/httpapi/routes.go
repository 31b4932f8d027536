package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/paul0vinicius/chasing-chairs/internal/history"
	"github.com/paul0vinicius/chasing-chairs/internal/hub"
	"github.com/paul0vinicius/chasing-chairs/internal/ws"
)

type Deps struct {
	Hub         *hub.Hub
	Leaderboard history.Leaderboard
	PublicURL   string
	Origins     []string
	Profile     bool
	Logger      *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if d.Leaderboard == nil {
		d.Leaderboard = history.Nop{}
	}
	log = log.Named("http")

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, ws.Options{OriginPatterns: d.Origins, Logger: d.Logger}))
	r.Get("/rooms/{code}", RoomInfo(d.Hub, log))
	r.Get("/rooms/{code}/qr", RoomQR(d.Hub, d.PublicURL, log))
	r.Get("/leaderboard", Leaderboard(d.Leaderboard, log))

	if d.Profile {
		r.Mount("/debug", middleware.Profiler())
	}
	return r
}
