package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hyperjump/sentembed/internal/models"
	"github.com/hyperjump/sentembed/internal/service"
	"go.uber.org/zap"
)

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	var req models.EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusBadRequest, "request body too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vectors, err := s.service.Embed(r.Context(), req.Texts)
	if err != nil {
		status := service.StatusCode(err)
		var providerErr *service.ProviderError
		if status >= http.StatusInternalServerError && !errors.As(err, &providerErr) {
			// Provider failures are already logged by the service.
			s.logger.Error("embed request failed", zap.Error(err), zap.String("request_id", requestIDFrom(r.Context())))
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.EmbedResponse{Vectors: vectors})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Model:     s.service.Model(),
		Dimension: s.service.Dimensions(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Detail: message})
}
