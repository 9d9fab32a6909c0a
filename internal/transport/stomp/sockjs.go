package stomp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/segmentio/encoding/json"
)

var ErrWebSocketDisabled = errors.New("sockjs: websocket transport disabled by server")

type sockJSInfo struct {
	WebSocket    bool `json:"websocket"`
	CookieNeeded bool `json:"cookie_needed"`
}

// resolveEndpoint asks the SockJS info endpoint under base+endpoint which
// websocket URL to dial. Servers without SockJS (404 on /info) are dialed
// as plain STOMP websocket endpoints.
func resolveEndpoint(ctx context.Context, client *http.Client, base, endpoint string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + strings.Trim(endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "ws" || u.Scheme == "wss" {
		return u.String(), nil
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String()+"/info", nil)
	if err != nil {
		return "", fmt.Errorf("sockjs info request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sockjs info: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return websocketURL(*u)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("sockjs info: unexpected status %d", resp.StatusCode)
	}

	var info sockJSInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("sockjs info decode: %w", err)
	}
	if !info.WebSocket {
		return "", ErrWebSocketDisabled
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/websocket"
	return websocketURL(*u)
}

func websocketURL(u url.URL) (string, error) {
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}
