// Package httpapi exposes the archive over HTTP: a search endpoint
// backed by the hybrid search service and a chat proxy that forwards
// reader questions to the upstream workspace without exposing its key.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driving"
	"github.com/archivist-labs/pagefill/internal/logger"
)

// Server serves the public API on a local port.
type Server struct {
	mu       sync.Mutex
	port     int
	searcher driving.SearchService
	proxy    *ChatProxy
	server   *http.Server
	listener net.Listener
}

// NewServer creates an API server. The proxy may be nil, in which case
// the chat endpoint responds 404.
func NewServer(port int, searcher driving.SearchService, proxy *ChatProxy) *Server {
	return &Server{
		port:     port,
		searcher: searcher,
		proxy:    proxy,
	}
}

// Start begins listening on the configured port.
// If port is 0, a random available port will be chosen.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("API server: %v", err)
		}
	}()

	logger.Info("API server listening on port %d", s.port)
	return nil
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/search", s.handleSearch)
	if s.proxy != nil {
		mux.HandleFunc("/api/chat", s.proxy.ServeHTTP)
	}
	return mux
}

// Stop shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// searchResponse is the wire shape of one search hit.
type searchResponse struct {
	ID             string  `json:"id"`
	ParentRecordID string  `json:"parent_record_id"`
	PageNumber     string  `json:"page_number"`
	Content        string  `json:"content"`
	Similarity     float64 `json:"similarity"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query := r.URL.Query().Get("q")
	opts := domain.SearchOptions{MatchCount: domain.DefaultMatchCount}
	if raw := r.URL.Query().Get("match_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match_count"})
			return
		}
		opts.MatchCount = n
	}

	results, err := s.searcher.Search(r.Context(), query, opts)
	if err != nil {
		logger.Error("Search request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
		return
	}

	out := make([]searchResponse, len(results))
	for i, res := range results {
		out[i] = searchResponse{
			ID:             res.ID,
			ParentRecordID: res.ParentRecordID,
			PageNumber:     res.PageNumber,
			Content:        res.Content,
			Similarity:     res.Similarity,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Writing response: %v", err)
	}
}
