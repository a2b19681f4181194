package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chat-context-service/internal/auth"
	"chat-context-service/internal/core"
	"chat-context-service/internal/store"
)

type APIHandler struct {
	chatService *core.ChatService
	userStore   *store.SQLiteStore
}

func NewAPIHandler(cs *core.ChatService, users *store.SQLiteStore) *APIHandler {
	return &APIHandler{chatService: cs, userStore: users}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		externalUserID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.userStore.GetUserByExternalID(externalUserID)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %s: %v", externalUserID, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}

		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", user.ID)
		ctx = context.WithValue(ctx, "externalUserID", user.ExternalUserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type SignupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.userStore.CreateUser(req.UserID, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.UserID, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userStore.GetUserByExternalID(req.UserID)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.UserID, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(req.UserID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

type CreateChatResponse struct {
	ChatID string `json:"chat_id"`
}

// CreateChatHandler mints a fresh chat id. No files are created until the
// first message arrives.
func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	resp := CreateChatResponse{ChatID: h.chatService.NewChatID()}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

type PostMessageResponse struct {
	Reply      string `json:"reply"`
	Summarized bool   `json:"summarized"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	reply, summarized, err := h.chatService.PostMessage(r.Context(), chatID, req.Content)
	if err != nil {
		var modelErr *core.ModelError
		if errors.As(err, &modelErr) {
			// The user message is already stored; only the reply failed.
			log.Printf("Model call failed for chat %s: %v", chatID, err)
			http.Error(w, "The assistant is temporarily unavailable, please try again later", http.StatusBadGateway)
			return
		}
		log.Printf("Error posting message for chat %s: %v", chatID, err)
		http.Error(w, "Failed to post message", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(PostMessageResponse{Reply: reply, Summarized: summarized})
}

func (h *APIHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	messages, err := h.chatService.History(chatID)
	if err != nil {
		log.Printf("Error reading history for chat %s: %v", chatID, err)
		http.Error(w, "Failed to read history", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}
	json.NewEncoder(w).Encode(messages)
}

type GetSummaryResponse struct {
	Summary *string `json:"summary"`
}

func (h *APIHandler) GetSummaryHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var resp GetSummaryResponse
	if summary, ok := h.chatService.Summary(chatID); ok {
		resp.Summary = &summary
	}
	json.NewEncoder(w).Encode(resp)
}

func (h *APIHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	json.NewEncoder(w).Encode(h.chatService.Status(chatID))
}

func (h *APIHandler) ResetChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	h.chatService.Reset(chatID)
	w.WriteHeader(http.StatusNoContent)
}
