package popup

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/pkg/browser"

	"github.com/yolodolo42/ledgers/internal/logging"
)

// CallbackPath is where popup pages post their terminal message.
const CallbackPath = "/oh-popup"

// BrowserSurface opens popup pages in the system browser. Pages report back to
// a local callback server, passed to them as the "callback" query parameter.
type BrowserSurface struct {
	deliver func(Message)
	logger  logging.Logger

	// Open launches a URL; defaults to the system browser.
	Open func(url string) error

	mu       sync.Mutex
	server   *http.Server
	callback string
}

func NewBrowserSurface(deliver func(Message), logger logging.Logger) *BrowserSurface {
	return &BrowserSurface{
		deliver: deliver,
		logger:  logging.OrNoop(logger),
		Open:    browser.OpenURL,
	}
}

// Start listens on addr ("127.0.0.1:0" picks a free port).
func (b *BrowserSurface) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, b.handleCallback)

	server := &http.Server{Handler: mux}

	b.mu.Lock()
	b.server = server
	b.callback = "http://" + listener.Addr().String() + CallbackPath
	b.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			b.logger.Error("popup callback server stopped", map[string]any{"error": err.Error()})
		}
	}()
	return nil
}

// CallbackURL is the address pages should post to; empty before Start.
func (b *BrowserSurface) CallbackURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.callback
}

func (b *BrowserSurface) Close() error {
	b.mu.Lock()
	server := b.server
	b.server = nil
	b.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Close()
}

func (b *BrowserSurface) Show(_ context.Context, pageURL string, width, height int) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("invalid popup url: %w", err)
	}
	if callback := b.CallbackURL(); callback != "" {
		q := u.Query()
		q.Set("callback", callback)
		u.RawQuery = q.Encode()
	}

	target := u.String()
	b.logger.Info("opening popup in browser", map[string]any{"url": target, "width": width, "height": height})
	if err := b.Open(target); err != nil {
		b.logger.Warn("could not open browser, visit the url manually", map[string]any{"url": target})
	}
	return nil
}

// Hide is a no-op; browser tabs are closed by the page itself.
func (b *BrowserSurface) Hide() {}

func (b *BrowserSurface) handleCallback(w http.ResponseWriter, r *http.Request) {
	var msg Message

	switch r.Method {
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(htmlResult(false, "Malformed popup message")))
			return
		}
	case http.MethodGet:
		q := r.URL.Query()
		msg = Message{
			Kind:      Kind(q.Get("event")),
			Detail:    q.Get("detail"),
			Signature: q.Get("signature"),
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !msg.IsTerminal() {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(htmlResult(false, "Unknown popup event")))
		return
	}

	b.deliver(msg)

	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(htmlResult(msg.Kind != KindError && msg.Kind != KindClose, "You can close this window and return to the terminal.")))
}

func htmlResult(ok bool, message string) string {
	color, icon, title := "#4ade80", "✓", "Done"
	if !ok {
		color, icon, title = "#f87171", "✗", "Cancelled"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>%[3]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; justify-content: center; align-items: center; height: 100vh;
               margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; padding: 40px; }
        .icon { font-size: 64px; margin-bottom: 20px; }
        h1 { color: %[1]s; margin-bottom: 10px; }
        p { color: #888; }
    </style>
</head>
<body>
    <div class="container">
        <div class="icon">%[2]s</div>
        <h1>%[3]s</h1>
        <p>%[4]s</p>
    </div>
</body>
</html>`, color, icon, title, message)
}
