// Package handlers implements the kiosk's HTTP endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odclabs/kiosk/internal/api"
	"github.com/odclabs/kiosk/internal/domain"
	"github.com/odclabs/kiosk/internal/service"
	"github.com/odclabs/kiosk/internal/telemetry"
)

type AskHandler struct {
	sessions    *service.SessionManager
	defaultLang string
}

func NewAskHandler(sessions *service.SessionManager, defaultLang string) *AskHandler {
	if defaultLang == "" {
		defaultLang = domain.DefaultLanguageCode
	}
	return &AskHandler{sessions: sessions, defaultLang: defaultLang}
}

type AskRequest struct {
	Question  string `json:"question"`
	Language  string `json:"language,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type AskResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	Language  string   `json:"language"`
	SessionID string   `json:"session_id"`
}

// Ask answers one visitor question. An unknown or missing session ID
// starts a new conversation; an unsupported language code is rejected
// so the front end can fall back to its language picker.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	langCode := req.Language
	if langCode == "" {
		langCode = h.defaultLang
	}
	lang, err := domain.LanguageByCode(langCode)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	session := h.sessions.GetOrCreate(req.SessionID, lang)
	if req.Language != "" {
		// The picker's choice wins for the rest of the session.
		session.SetLanguage(lang)
	}

	ctx, span := telemetry.StartSpan(r.Context(), "pipeline.ask", telemetry.SpanAttributes{
		SessionID: session.ID,
		Language:  session.CurrentLanguage().Code,
	})
	defer span.End()

	resp := session.Pipeline.Ask(ctx, req.Question, session.CurrentLanguage())

	sources := resp.Sources
	if sources == nil {
		sources = []string{}
	}

	api.Success(w, http.StatusOK, AskResponse{
		Answer:    resp.AnswerText,
		Sources:   sources,
		Language:  resp.Language,
		SessionID: session.ID,
	})
}

// ClearSession wipes one session's conversation memory.
func (h *AskHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Clear(id); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "cleared"})
}
