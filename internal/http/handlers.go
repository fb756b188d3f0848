package http

import (
	"context"
	"net/http"
	"time"

	"farmledger/internal/core"
	"farmledger/internal/report"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Field("status", "ok").
		Message("Server is running smoothly").
		Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "Store unavailable").
				Field("status", "unavailable").
				Write(w)
			return
		}
	}
	NewJSONResponse().Field("status", "ready").Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.Categories()
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryView{Value: string(c), Label: report.CategoryLabel(c)})
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Failed to send message")
		return
	}
	if err := s.contact.Submit(r.Context(), req.form()); err != nil {
		writeError(w, r, err, "Failed to send message")
		return
	}
	NewJSONResponse().Message("Message sent successfully").Write(w)
}
