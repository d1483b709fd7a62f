package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vitor-labes/catalogue-scraper/internal/domain"
	"github.com/vitor-labes/catalogue-scraper/internal/job"
	"github.com/vitor-labes/catalogue-scraper/internal/metrics"
)

type Runner interface {
	Run(ctx context.Context, req job.Request) (job.Response, error)
}

type Server struct {
	runner Runner
	token  string
}

func NewServer(runner Runner, token string) *Server {
	return &Server{runner: runner, token: token}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /scrape", s.requireToken(http.HandlerFunc(s.handleScrape)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

type scrapeResponse struct {
	Message         string `json:"message,omitempty"`
	Error           string `json:"error,omitempty"`
	ProductsScraped int    `json:"products_scraped"`
	StopReason      string `json:"stop_reason,omitempty"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	baseURL := r.URL.Query().Get("base_url")
	if baseURL == "" {
		writeJSON(w, http.StatusBadRequest, scrapeResponse{Error: "base_url query parameter is required"})
		return
	}

	var settings domain.CrawlSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, scrapeResponse{Error: "invalid settings: " + err.Error()})
		return
	}
	if settings.MaxPages < 0 {
		writeJSON(w, http.StatusBadRequest, scrapeResponse{Error: "max_pages must be positive"})
		return
	}

	slog.Info("scrape requested",
		"base_url", baseURL,
		"max_pages", settings.MaxPages,
		"proxy", settings.Proxy != "",
	)

	resp, err := s.runner.Run(r.Context(), job.Request{BaseURL: baseURL, Settings: settings})
	if err != nil {
		slog.Error("scrape failed", "base_url", baseURL, "error", err)
		writeJSON(w, http.StatusBadGateway, scrapeResponse{
			Error:           err.Error(),
			ProductsScraped: resp.ProductsScraped,
			StopReason:      string(resp.StopReason),
		})
		return
	}

	writeJSON(w, http.StatusOK, scrapeResponse{
		Message:         "Scraping completed successfully.",
		ProductsScraped: resp.ProductsScraped,
		StopReason:      string(resp.StopReason),
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || s.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			writeJSON(w, http.StatusForbidden, scrapeResponse{Error: "Invalid or missing authentication token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
