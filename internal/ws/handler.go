package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paul0vinicius/chasing-chairs/internal/hub"
	"github.com/paul0vinicius/chasing-chairs/internal/types"
)

const (
	outboxSize   = 32
	readLimit    = 4096
	writeTimeout = 3 * time.Second
	pingInterval = 20 * time.Second
)

var errOutboxClosed = errors.New("outbox closed")

type Options struct {
	// OriginPatterns are host patterns allowed to open sockets cross-origin.
	OriginPatterns []string
	Logger         *zap.Logger
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("accept", zap.Error(err))
			return
		}
		defer conn.CloseNow()
		conn.SetReadLimit(readLimit)

		connID := uuid.NewString()
		out := make(chan types.ServerMessage, outboxSize)
		if !h.Send(hub.Connect{ConnID: connID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error { return writeLoop(ctx, conn, out) })
		g.Go(func() error { return readLoop(ctx, conn, h, connID) })
		err = g.Wait()

		h.Send(hub.Disconnect{ConnID: connID})

		switch {
		case errors.Is(err, errOutboxClosed):
			conn.Close(websocket.StatusGoingAway, "")
		case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
			websocket.CloseStatus(err) == websocket.StatusGoingAway:
			conn.Close(websocket.StatusNormalClosure, "")
		default:
			log.Debug("connection ended", zap.String("conn", connID), zap.Error(err))
		}
	}
}

// writeLoop drains the outbox until the hub closes it. It also keeps the
// socket alive with pings.
func writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan types.ServerMessage) error {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-out:
			if !ok {
				return errOutboxClosed
			}
			if err := write(ctx, conn, msg); err != nil {
				return err
			}

		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn, h *hub.Hub, connID string) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		cmd, err := Decode(data)
		if err != nil {
			// rejected input never reaches the hub
			if err := write(ctx, conn, types.Error(err.Error())); err != nil {
				return err
			}
			continue
		}

		if !h.Send(hub.FromClient{ConnID: connID, Cmd: cmd}) {
			return hub.ErrStopped
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, msg)
}
