// internal/api/themes/ws.go
package themes

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/lucentchat/lucent/internal/models"
	"github.com/lucentchat/lucent/internal/theme"
)

const eventBuffer = 16

// EventMessage is the wire form of a theme event pushed to connected tabs.
type EventMessage struct {
	Type     string               `json:"type"`
	Source   string               `json:"source"`
	Settings models.ThemeSettings `json:"settings"`
}

// /api/v1/theme/events (GET). Upgrades to WebSocket and streams committed
// theme changes so other tabs re-render without a reload.
func (h *Handlers) HandleThemeEvents(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	engine := h.engineFor(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Browser clients connect cross-origin from the chat frontend.
		InsecureSkipVerify: true,
	})
	if err != nil {
		logger.Error().Err(err).Msg("WebSocket accept failed")
		return
	}

	events := make(chan theme.Event, eventBuffer)
	unsubscribe := engine.Bus.Subscribe(func(event theme.Event) {
		if event.Type != theme.EventCommitted {
			return
		}
		select {
		case events <- event:
		default:
			logger.Warn().Msg("Event buffer full, dropping theme event")
		}
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		writePump(ctx, conn, events)
		close(done)
	}()

	// Block until the client disconnects. No client-to-server messages are
	// expected; reads only detect the close.
	readPump(ctx, conn)

	unsubscribe()
	cancel()
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

func writePump(ctx context.Context, conn *websocket.Conn, events <-chan theme.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			msg := EventMessage{
				Type:     string(event.Type),
				Source:   string(event.Source),
				Settings: event.Settings,
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func readPump(ctx context.Context, conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}
