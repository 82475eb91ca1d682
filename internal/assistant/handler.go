package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinsight/clinic-analytics/pkg/logging"
)

const maxUploadBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Handler serves the scan-analysis and chat endpoints.
type Handler struct {
	sessions *SessionStore
	analyzer ScanAnalyzer
	chat     ChatClient
	logger   *logging.Logger
}

func NewHandler(sessions *SessionStore, analyzer ScanAnalyzer, chat ChatClient, logger *logging.Logger) *Handler {
	if sessions == nil {
		panic("assistant: session store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{sessions: sessions, analyzer: analyzer, chat: chat, logger: logger}
}

// Routes mounts the assistant API under /api.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/analyze-scan", h.AnalyzeScan)
	r.Post("/api/chat", h.Chat)
	r.Post("/api/simple-chat", h.SimpleChat)
	r.Get("/api/session/{sessionID}", h.SessionInfo)
	r.Get("/api/healthcheck", h.Healthcheck)
}

// AnalyzeScan accepts a multipart image upload, runs it through the vision
// model, and records the result on the session.
func (h *Handler) AnalyzeScan(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		h.writeError(w, http.StatusServiceUnavailable, "scan analysis is not configured")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported image type %q, use JPEG, PNG or WebP", contentType))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		h.writeError(w, http.StatusRequestEntityTooLarge, "image exceeds the 10 MB limit")
		return
	}

	sess, err := h.sessions.GetOrCreate(r.Context(), h.sessionID(r))
	if err != nil {
		h.logger.Error("failed to load session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}

	analysis, err := h.analyzer.AnalyzeScan(r.Context(), contentType, data)
	if err != nil {
		h.logger.Error("scan analysis failed", "error", err, "session_id", sess.ID)
		h.writeError(w, http.StatusBadGateway, "scan analysis failed, please try again")
		return
	}

	record := ScanAnalysis{
		Filename:    header.Filename,
		ContentType: contentType,
		Timestamp:   time.Now().UTC(),
		Analysis:    analysis,
	}
	sess.Analyses = append(sess.Analyses, record)
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to persist session", "error", err, "session_id", sess.ID)
		h.writeError(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"filename":   record.Filename,
		"timestamp":  record.Timestamp.Format(time.RFC3339),
		"analysis":   record.Analysis,
		"image_type": record.ContentType,
	})
}

// defaultChatGreeting opens the conversation when a client posts an
// empty messages list.
const defaultChatGreeting = "Hello, I'd like some general health information."

type chatRequestBody struct {
	Messages  []Message `json:"messages"`
	Message   string    `json:"message"` // single-turn convenience form
	SessionID string    `json:"session_id"`
}

// Chat handles a conversational exchange. The client sends the turns it
// wants answered; the latest scan analysis for the session is injected
// as model context, and the exchange is recorded on the session.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var body chatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	messages := body.Messages
	if len(messages) == 0 {
		if msg := strings.TrimSpace(body.Message); msg != "" {
			messages = []Message{{Role: RoleUser, Content: msg}}
		}
	}
	if body.SessionID == "" {
		body.SessionID = h.sessionID(r)
	}
	h.serveChat(w, r, body.SessionID, messages)
}

// SimpleChat accepts a single form message and runs it through the same
// session-threading path as Chat.
func (h *Handler) SimpleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid form request")
		return
	}
	message := strings.TrimSpace(r.PostFormValue("message"))
	if message == "" {
		h.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	h.serveChat(w, r, r.PostFormValue("session_id"), []Message{{Role: RoleUser, Content: message}})
}

func (h *Handler) serveChat(w http.ResponseWriter, r *http.Request, sessionID string, messages []Message) {
	if h.chat == nil {
		h.writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return
	}

	sess, err := h.sessions.GetOrCreate(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}

	system := []string{chatSystemPrompt}
	if latest := sess.LatestAnalysis(); latest != nil {
		system = append(system, fmt.Sprintf(
			"The user has uploaded a medical scan (%s) with the following analysis: %s",
			latest.Filename, latest.Analysis))
	}

	if len(messages) == 0 {
		messages = []Message{{Role: RoleUser, Content: defaultChatGreeting}}
	}

	reply, err := h.chat.Complete(r.Context(), ChatRequest{
		System:      system,
		Messages:    messages,
		MaxTokens:   800,
		Temperature: 0.5,
		TopP:        0.95,
	})
	if err != nil {
		h.logger.Error("chat completion failed", "error", err, "session_id", sess.ID)
		h.writeError(w, http.StatusBadGateway, "the assistant is unavailable, please try again")
		return
	}

	for _, msg := range messages {
		if msg.Role == RoleUser {
			sess.History = append(sess.History, Message{Role: RoleUser, Content: msg.Content})
		}
	}
	sess.History = append(sess.History, Message{Role: RoleAssistant, Content: reply})
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to persist session", "error", err, "session_id", sess.ID)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"reply":      reply,
		"session_id": sess.ID,
	})
}

// SessionInfo reports summary state for a session.
func (h *Handler) SessionInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("failed to load session", "error", err, "session_id", id)
		h.writeError(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}

	resp := map[string]any{
		"session_id":     sess.ID,
		"created_at":     sess.CreatedAt.Format(time.RFC3339),
		"analysis_count": len(sess.Analyses),
		"chat_count":     len(sess.History) / 2,
	}
	if latest := sess.LatestAnalysis(); latest != nil {
		resp["latest_analysis"] = map[string]any{
			"filename":  latest.Filename,
			"timestamp": latest.Timestamp.Format(time.RFC3339),
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Healthcheck reports service liveness.
func (h *Handler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *Handler) sessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-Id"); id != "" {
		return id
	}
	return r.FormValue("session_id")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, map[string]string{"detail": detail})
}
