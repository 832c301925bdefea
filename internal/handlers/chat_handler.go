package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/coindeck/coindeck/internal/auth"
	"github.com/coindeck/coindeck/internal/chat"
	"github.com/coindeck/coindeck/internal/contract"
	"github.com/coindeck/coindeck/internal/models"
	"github.com/coindeck/coindeck/internal/storage"
)

// ChatHandler serves the analyst conversation endpoints
type ChatHandler struct {
	store     storage.Storage
	responder *chat.Responder
	log       *zap.SugaredLogger
}

// NewChatHandler creates a chat handler
func NewChatHandler(store storage.Storage, responder *chat.Responder, log *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{store: store, responder: responder, log: log}
}

// RegisterRoutes mounts the conversation endpoints on an authenticated router
func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(routePath(contract.API.ConversationsCreate), h.CreateConversation).Methods(contract.API.ConversationsCreate.Method)
	router.HandleFunc(routePath(contract.API.MessagesList), h.ListMessages).Methods(contract.API.MessagesList.Method)
	router.HandleFunc(routePath(contract.API.MessagesCreate), h.PostMessage).Methods(contract.API.MessagesCreate.Method)
}

// CreateConversation opens a conversation seeded with the analyst greeting
func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	// An empty body is fine; the title is optional.
	json.NewDecoder(r.Body).Decode(&req)
	if req.Title == "" {
		req.Title = "Market analysis"
	}

	conversation, err := h.store.CreateConversation(r.Context(), principal.Subject, req.Title)
	if err != nil {
		h.log.Errorw("failed to create conversation", "user", principal.Subject, "err", err)
		writeError(w, err)
		return
	}

	greeting := &models.ChatMessage{
		ConversationID: conversation.ID,
		Role:           "assistant",
		Content:        chat.Greeting,
	}
	if err := h.store.CreateMessage(r.Context(), greeting); err != nil {
		h.log.Errorw("failed to seed conversation", "conversation", conversation.ID, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, conversation)
}

// ListMessages returns a conversation's messages, oldest first. Only the
// conversation owner may read it.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	_, conversation, ok := h.ownedConversation(w, r)
	if !ok {
		return
	}

	messages, err := h.store.GetMessages(r.Context(), conversation.ID)
	if err != nil {
		h.log.Errorw("failed to list messages", "conversation", conversation.ID, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// PostMessage stores a user message and synthesizes the analyst reply
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	_, conversation, ok := h.ownedConversation(w, r)
	if !ok {
		return
	}

	var input contract.InsertMessage
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, &contract.ValidationError{Field: "body", Message: "Invalid request body"})
		return
	}
	if err := contract.Validate(input); err != nil {
		writeError(w, err)
		return
	}

	userMessage := &models.ChatMessage{
		ConversationID: conversation.ID,
		Role:           "user",
		Content:        input.Content,
	}
	if err := h.store.CreateMessage(r.Context(), userMessage); err != nil {
		h.log.Errorw("failed to store message", "conversation", conversation.ID, "err", err)
		writeError(w, err)
		return
	}

	reply, err := h.responder.Reply(r.Context(), input.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	assistantMessage := &models.ChatMessage{
		ConversationID: conversation.ID,
		Role:           "assistant",
		Content:        reply,
	}
	if err := h.store.CreateMessage(r.Context(), assistantMessage); err != nil {
		h.log.Errorw("failed to store reply", "conversation", conversation.ID, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, assistantMessage)
}

// ownedConversation loads the conversation in the URL and checks it belongs
// to the requesting principal. Foreign or missing conversations both read as
// 404 so ids cannot be probed.
func (h *ChatHandler) ownedConversation(w http.ResponseWriter, r *http.Request) (auth.Principal, *models.Conversation, bool) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return auth.Principal{}, nil, false
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, &contract.ValidationError{Field: "id", Message: "Invalid id"})
		return auth.Principal{}, nil, false
	}

	conversation, err := h.store.GetConversation(r.Context(), uint(id))
	if err != nil || conversation.UserID != principal.Subject {
		writeJSON(w, http.StatusNotFound, contract.ErrorResponse{Message: "Conversation not found"})
		return auth.Principal{}, nil, false
	}
	return principal, conversation, true
}
