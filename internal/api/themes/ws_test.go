package themes

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lucentchat/lucent/internal/models"
	"github.com/lucentchat/lucent/internal/theme"
)

func TestThemeEventsStream(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/theme/events", handlers.HandleThemeEvents)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/theme/events"
	header := http.Header{}
	header.Set(UserIDHeader, "user-1")
	conn, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Wait for the handler goroutine to attach its bus subscription.
	engine := handlers.registry.EngineFor(context.Background(), "user-1")
	deadline := time.Now().Add(2 * time.Second)
	for engine.Bus.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("stream handler never subscribed to the bus")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Another tab saves a new theme for the same user.
	updated := models.DefaultThemeSettings()
	updated.Mode = models.ModeDark
	r := httptest.NewRequest(http.MethodPut, "/api/v1/theme", bytes.NewReader(marshalSettings(t, updated)))
	r.Header.Set(UserIDHeader, "user-1")
	w := httptest.NewRecorder()
	handlers.HandleThemeSave(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, want 200", w.Code)
	}

	var msg EventMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg.Type != string(theme.EventCommitted) {
		t.Fatalf("event type = %q, want committed", msg.Type)
	}
	if msg.Source != string(theme.SourceSave) {
		t.Fatalf("event source = %q, want save", msg.Source)
	}
	if msg.Settings.Mode != models.ModeDark {
		t.Fatalf("event mode = %q, want dark", msg.Settings.Mode)
	}
}
