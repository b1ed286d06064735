package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"saave-bot/internal/storage"
)

const eventDocumentReady = "document_ready"

type crmEvent struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type documentReady struct {
	Reference   string `json:"referencia"`
	DocumentURL string `json:"document_url"`
}

func (s *Server) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.webhookToken)) == 1
}

// handleCRMEvent accepts callbacks from the CRM. Unknown event types are
// acknowledged and ignored so the CRM does not retry them.
func (s *Server) handleCRMEvent(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var ev crmEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	switch ev.EventType {
	case eventDocumentReady:
		var data documentReady
		if err := json.Unmarshal(ev.Data, &data); err != nil || data.Reference == "" || data.DocumentURL == "" {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "referencia and document_url are required"})
			return
		}
		s.documentReady(r.Context(), w, data)
	default:
		s.logger.Info("Ignoring CRM event", zap.String("event_type", ev.EventType))
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *Server) documentReady(ctx context.Context, w http.ResponseWriter, data documentReady) {
	lead, err := s.store.GetLeadByReference(ctx, data.Reference)
	if errors.Is(err, storage.ErrLeadNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quotation not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to load quotation for CRM event",
			zap.String("reference", data.Reference),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	if err := s.store.UpdateCRMStatus(ctx, lead.Reference, storage.CRMDocumentReady); err != nil {
		s.logger.Error("Failed to update CRM status",
			zap.String("reference", lead.Reference),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	if lead.ChatID != 0 && s.notifier != nil {
		nctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyDocument(nctx, lead.ChatID, lead.Reference, data.DocumentURL); err != nil {
			s.logger.Warn("Failed to notify client about document",
				zap.String("reference", lead.Reference),
				zap.Int64("chat_id", lead.ChatID),
				zap.Error(err))
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
