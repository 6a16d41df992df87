package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/archivist-labs/pagefill/internal/logger"
)

// proxyErrorBody is returned verbatim for every proxy failure so the
// upstream key and error detail never reach the caller.
const proxyErrorBody = `{"error":"Failed to proxy chat request"}`

// ChatProxy forwards chat requests to the upstream workspace API,
// attaching the workspace key server-side.
type ChatProxy struct {
	upstream  string
	workspace string
	client    *http.Client
}

// ProxyConfig holds chat proxy settings.
type ProxyConfig struct {
	// UpstreamURL is the workspace API base URL.
	UpstreamURL string

	// Workspace is the workspace slug to route chats to.
	Workspace string

	// APIKey authenticates against the upstream API.
	APIKey string

	// Timeout bounds one upstream round trip. Defaults to 120s; chat
	// completions are slow.
	Timeout time.Duration
}

// NewChatProxy creates a chat proxy.
func NewChatProxy(cfg ProxyConfig) *ChatProxy {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	token := &oauth2.Token{AccessToken: cfg.APIKey}
	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(token))
	client.Timeout = timeout

	return &ChatProxy{
		upstream:  strings.TrimSuffix(cfg.UpstreamURL, "/"),
		workspace: cfg.Workspace,
		client:    client,
	}
}

// ServeHTTP forwards the request body to the upstream chat endpoint
// and relays the response verbatim. Every failure collapses to a 500
// with a generic error body.
func (p *ChatProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	url := fmt.Sprintf("%s/api/v1/workspace/%s/chat", p.upstream, p.workspace)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, url, r.Body)
	if err != nil {
		p.fail(w, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.fail(w, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.fail(w, fmt.Errorf("upstream status %d", resp.StatusCode))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Error("Relaying chat response: %v", err)
	}
}

func (p *ChatProxy) fail(w http.ResponseWriter, err error) {
	logger.Error("Chat proxy: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprint(w, proxyErrorBody)
}
