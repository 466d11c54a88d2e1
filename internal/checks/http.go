package checks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"

	"github.com/roach88/migsmoke/internal/harness"
)

const probeTimeout = 5 * time.Second

// HTTPLibraries serves a chi router on loopback, probes it over HTTP and
// WebSocket, and constructs a Redis client for redisAddr without connecting.
func HTTPLibraries(redisAddr string) harness.Procedure {
	return func(ctx context.Context) error {
		srv := httptest.NewServer(newProbeRouter())
		defer srv.Close()

		if err := probeHealth(ctx, srv.URL+"/health"); err != nil {
			return fmt.Errorf("chi/gjson: %w", err)
		}
		if err := probeEcho(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws"); err != nil {
			return fmt.Errorf("websocket: %w", err)
		}

		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		if got := rdb.Options().Addr; got != redisAddr {
			return fmt.Errorf("redis client addr %q, want %q", got, redisAddr)
		}
		return nil
	}
}

func newProbeRouter() http.Handler {
	upgrader := websocket.Upgrader{}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok","libraries":["chi","gorilla/websocket","go-redis"]}`)
	})
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(mt, msg)
	})
	return r
}

func probeHealth(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return fmt.Errorf("invalid JSON body %q", body)
	}
	if status := gjson.GetBytes(body, "status").String(); status != "ok" {
		return fmt.Errorf("status %q, want %q", status, "ok")
	}
	if n := gjson.GetBytes(body, "libraries.#").Int(); n != 3 {
		return fmt.Errorf("libraries has %d entries, want 3", n)
	}
	return nil
}

func probeEcho(ctx context.Context, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: probeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(probeTimeout)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if string(msg) != "ping" {
		return errors.New("echo mismatch: got " + string(msg))
	}
	return nil
}
