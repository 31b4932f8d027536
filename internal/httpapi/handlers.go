package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/paul0vinicius/chasing-chairs/internal/history"
	"github.com/paul0vinicius/chasing-chairs/internal/hub"
	"github.com/paul0vinicius/chasing-chairs/internal/room"
)

const (
	qrSize           = 256
	defaultBoardSize = 10
	maxBoardSize     = 100
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func RoomInfo(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := roomParam(r)
		rm, err := h.Room(r.Context(), code)
		if err != nil {
			roomError(w, log, code, err)
			return
		}
		writeJSON(w, http.StatusOK, rm)
	}
}

// RoomQR renders a PNG that opens the client straight into the room.
func RoomQR(h *hub.Hub, publicURL string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := roomParam(r)
		if _, err := h.Room(r.Context(), code); err != nil {
			roomError(w, log, code, err)
			return
		}

		png, err := qrcode.Encode(joinURL(publicURL, r, code), qrcode.Medium, qrSize)
		if err != nil {
			log.Error("encode qr", zap.String("room", code), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to render qr code")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

func Leaderboard(lb history.Leaderboard, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultBoardSize
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxBoardSize)
		}

		standings, err := lb.Leaderboard(r.Context(), limit)
		if err != nil {
			log.Error("leaderboard", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
			return
		}
		writeJSON(w, http.StatusOK, standings)
	}
}

func roomParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
}

func joinURL(publicURL string, r *http.Request, code string) string {
	base := strings.TrimRight(publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return fmt.Sprintf("%s/?room=%s", base, code)
}

func roomError(w http.ResponseWriter, log *zap.Logger, code string, err error) {
	if errors.Is(err, room.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	log.Error("room lookup", zap.String("room", code), zap.Error(err))
	writeError(w, http.StatusServiceUnavailable, "room lookup failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}
