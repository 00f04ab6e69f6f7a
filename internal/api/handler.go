package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/activity"
	"github.com/austinbrady/Assist-sub001/internal/engine"
	"github.com/austinbrady/Assist-sub001/internal/gateway"
	"github.com/austinbrady/Assist-sub001/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine *engine.Engine
	gw     *gateway.Gateway
	rest   *gateway.RESTAdapter
	logger *zap.Logger
}

// NewHandler creates a new API handler. gw and rest may be nil when no
// chat platform adapters are configured.
func NewHandler(e *engine.Engine, gw *gateway.Gateway, rest *gateway.RESTAdapter, logger *zap.Logger) *Handler {
	return &Handler{engine: e, gw: gw, rest: rest, logger: logger}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Post("/chat", h.chat)
		r.Get("/users", h.listUsers)

		r.Route("/users/{username}", func(r chi.Router) {
			r.Get("/suggestions", h.getSuggestions)
			r.Get("/behavior", h.getBehavior)
			r.Get("/traits", h.getTraits)
			r.Get("/prompt", h.getPrompt)
			r.Get("/values", h.getValues)
			r.Get("/character", h.getCharacter)
			r.Get("/conversations", h.listConversations)
			r.Get("/conversations/{conversationID}", h.getConversation)
			r.Post("/activity", h.postActivity)
			r.Get("/activity", h.getActivity)
		})

		r.Get("/gateway/status", h.gatewayStatus)
		if h.rest != nil {
			r.Mount("/gateway/rest", h.rest.Routes())
		}
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var in engine.ChatInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if in.Username == "" || in.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and message are required"})
		return
	}

	result, err := h.engine.Chat(r.Context(), &in)
	if err != nil {
		h.logger.Error("chat failed", zap.String("user", in.Username), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.engine.Users(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) getSuggestions(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	suggestions := h.engine.SuggestionsFor(r.Context(), username)
	writeJSON(w, http.StatusOK, map[string]any{
		"username":    username,
		"suggestions": suggestions,
	})
}

func (h *Handler) getBehavior(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	writeJSON(w, http.StatusOK, h.engine.BehaviorFor(r.Context(), username))
}

func (h *Handler) getTraits(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	writeJSON(w, http.StatusOK, h.engine.TraitsFor(r.Context(), username))
}

func (h *Handler) getPrompt(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	writeJSON(w, http.StatusOK, map[string]string{
		"username": username,
		"prompt":   h.engine.PromptFor(r.Context(), username),
	})
}

func (h *Handler) getValues(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	sys, err := h.engine.ValuesFor(r.Context(), username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sys)
}

func (h *Handler) getCharacter(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	ch, err := h.engine.CharacterFor(r.Context(), username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if ch == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "character not found"})
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	convs, err := h.engine.Conversations(r.Context(), username, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username":      username,
		"conversations": convs,
	})
}

func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	conversationID := chi.URLParam(r, "conversationID")

	rec, err := h.engine.Conversation(r.Context(), username, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "conversation not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) postActivity(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var entry activity.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if entry.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type is required"})
		return
	}

	if err := h.engine.RecordActivity(r.Context(), username, entry); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	log, err := h.engine.ActivityFor(r.Context(), username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	entries := log.Entries
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": username,
		"entries":  entries,
	})
}

func (h *Handler) gatewayStatus(w http.ResponseWriter, r *http.Request) {
	if h.gw == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "gateway not initialized"})
		return
	}
	writeJSON(w, http.StatusOK, h.gw.StatusAll())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
