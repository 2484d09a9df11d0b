package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aitelhq/supportbot/internal/knowledge"
	"github.com/aitelhq/supportbot/internal/store"
	"github.com/aitelhq/supportbot/provider"
)

// Answer routes reported in ChatResponse.Route.
const (
	RouteKB               = "kb"
	RouteLLMFallback      = "llm_fallback"
	RouteContactSuggested = "contact_suggested"
	RouteEnglishOnly      = "english_only"
)

// EnglishOnlyReply is returned verbatim for messages containing Tamil script.
const EnglishOnlyReply = "I can only assist in English at the moment. Please type your question in English."

// ChatHandler serves the public widget endpoints: the chat pipeline itself
// and conversation history retrieval.
type ChatHandler struct {
	Store  *store.Store
	Engine *knowledge.Engine
	LLM    provider.Provider
	// Threshold is the acceptance floor on the winning match's confidence,
	// applied after the engine's own ranking gates.
	Threshold float64
	// TopK bounds the corpus chunks handed to the generative fallback.
	TopK int
	// LLMTimeout bounds a single fallback completion; zero means the
	// provider's own client timeout applies.
	LLMTimeout time.Duration
	Logger     *log.Logger
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
	g.GET("/messages/:conversationId", h.messages)
}

// Chat
//
//	@Summary		Send a chat message
//	@Description	Runs the retrieval pipeline and falls back to the LLM when the corpus has no confident answer
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ChatRequest	true	"Chat payload"
//	@Success		200		{object}	ChatResponse
//	@Failure		400		{object}	HTTPError
//	@Failure		500		{object}	HTTPError
//	@Router			/api/chat [post]
func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	// Non-English input is answered before any storage is touched, so a
	// rejected message leaves no conversation behind.
	if containsTamil(message) {
		chatRequests.WithLabelValues(RouteEnglishOnly).Inc()
		return c.JSON(http.StatusOK, ChatResponse{
			Answer:         EnglishOnlyReply,
			Confidence:     1.0,
			Route:          RouteEnglishOnly,
			Intent:         string(knowledge.IntentGeneral),
			ConversationID: strings.TrimSpace(req.ConversationID),
		})
	}

	ctx := c.Request().Context()
	conv, err := h.resolveConversation(c, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	userMsg, err := h.Store.SaveMessage(ctx, conv.ID, store.SenderUser, message, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	answer, confidence, route := h.answer(c, message)

	botMsg, err := h.Store.SaveMessage(ctx, conv.ID, store.SenderBot, answer, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	chatRequests.WithLabelValues(route).Inc()
	return c.JSON(http.StatusOK, ChatResponse{
		Answer:          answer,
		Confidence:      confidence,
		Route:           route,
		Intent:          string(knowledge.ClassifyIntent(message)),
		ShowContactCard: route == RouteContactSuggested,
		ConversationID:  conv.ID,
		UserMessageID:   userMsg.ID,
		BotMessageID:    botMsg.ID,
	})
}

// answer picks the reply text for a message. With a loaded corpus the reply
// is the corpus answer or the fixed no-information sentence; the generative
// fallback runs only in degraded mode, when the corpus is empty. The bot
// never serves generated content in place of a missing corpus answer.
func (h *ChatHandler) answer(c echo.Context, message string) (text string, confidence float64, route string) {
	if best, ok := h.Engine.BestAnswer(message); ok && best.Confidence >= h.Threshold {
		return best.Answer, best.Confidence, RouteKB
	}

	if h.LLM != nil && h.Engine.Count() == 0 {
		ctx := c.Request().Context()
		if h.LLMTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.LLMTimeout)
			defer cancel()
		}
		// A reload can land between the count check and here; any entries it
		// brought in still ground the prompt.
		chunks := h.Engine.TopK(message, h.TopK)
		reply, err := h.LLM.Complete(ctx, provider.BuildSystemPrompt(chunks), message)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Printf("llm fallback failed: %v", err)
			}
		} else if reply = strings.TrimSpace(reply); reply != "" {
			if isRefusal(reply) {
				return reply, 0, RouteContactSuggested
			}
			return reply, 0.85, RouteLLMFallback
		}
	}

	return provider.NoInformationReply, 0, RouteContactSuggested
}

// resolveConversation reuses the caller's conversation when the id is a
// valid UUID that exists; anything else silently starts a fresh one.
func (h *ChatHandler) resolveConversation(c echo.Context, req ChatRequest) (store.Conversation, error) {
	ctx := c.Request().Context()
	if id := strings.TrimSpace(req.ConversationID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			if conv, err := h.Store.GetConversation(ctx, id); err == nil {
				return conv, nil
			}
		}
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = "anonymous"
	}
	return h.Store.CreateConversation(ctx, userID)
}

// Messages
//
//	@Summary	Conversation history
//	@Tags		chat
//	@Produce	json
//	@Param		conversationId	path		string	true	"Conversation ID"
//	@Success	200				{object}	map[string]interface{}
//	@Failure	400				{object}	HTTPError
//	@Router		/api/messages/{conversationId} [get]
func (h *ChatHandler) messages(c echo.Context) error {
	id := c.Param("conversationId")
	// An unknown or malformed id is an empty history, not an error; the
	// widget calls this before its first conversation exists.
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"conversation_id": id,
			"messages":        []store.Message{},
		})
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	msgs, err := h.Store.GetMessages(c.Request().Context(), id, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversation_id": id,
		"messages":        msgs,
	})
}

// containsTamil reports whether any rune falls in the Tamil Unicode block.
func containsTamil(s string) bool {
	for _, r := range s {
		if r >= 0x0B80 && r <= 0x0BFF {
			return true
		}
	}
	return false
}

// isRefusal detects the model declining to answer so the widget can surface
// the contact card instead of a dead-end reply.
func isRefusal(reply string) bool {
	lower := strings.ToLower(reply)
	return strings.Contains(lower, "don't have information") ||
		strings.Contains(lower, "do not have information") ||
		strings.Contains(lower, "contact our support team")
}
