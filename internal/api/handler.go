package api

import (
	"context"
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-agent/internal/history"
	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/bobby-s-dev/weather-agent/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const chatNameLength = 40

var validate = validator.New()

type Answerer interface {
	Answer(ctx context.Context, query string) services.Result
	GetStats() map[string]interface{}
}

// Responder produces the chat reply, through the agent when one is configured.
type Responder interface {
	Respond(ctx context.Context, message string) string
}

type ChatStore interface {
	SaveChat(ctx context.Context, chatID, name string, messages []models.ChatMessage) error
	Chat(ctx context.Context, chatID string) (*models.Chat, error)
	AllChats(ctx context.Context) ([]models.Chat, error)
	Recent(ctx context.Context, location string, limit int) ([]models.QueryRecord, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Handler struct {
	weather   Answerer
	responder Responder
	chats     ChatStore
	speaker   Synthesizer
	locks     *chatLocks
	logger    *zap.Logger
	startTime time.Time
}

func NewHandler(weather Answerer, responder Responder, chats ChatStore, speaker Synthesizer, logger *zap.Logger) *Handler {
	return &Handler{
		weather:   weather,
		responder: responder,
		chats:     chats,
		speaker:   speaker,
		locks:     newChatLocks(),
		logger:    logger,
		startTime: time.Now(),
	}
}

type chatRequest struct {
	ChatID  string `json:"chat_id" validate:"omitempty,uuid"`
	Message string `json:"message" validate:"required,max=2000"`
}

type speakRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// GetWeather handles GET /api/v1/weather?q=
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "q parameter is required")
	}

	h.logger.Info("Answering weather query", zap.String("query", query))

	result := h.weather.Answer(c.UserContext(), query)
	return c.JSON(fiber.Map{
		"query":    result.Query,
		"location": result.Location,
		"date":     result.Date.String(),
		"response": result.Text,
	})
}

// PostChat handles POST /api/v1/chat
func (h *Handler) PostChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// Turns on one chat run one at a time so none overwrites another.
	if req.ChatID != "" {
		unlock := h.locks.Lock(req.ChatID)
		defer unlock()
	}

	ctx := c.UserContext()
	chat, err := h.loadOrCreateChat(ctx, req)
	if err != nil {
		h.logger.Error("Failed to load chat", zap.String("chat_id", req.ChatID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load chat")
	}

	chat.Messages = append(chat.Messages, models.ChatMessage{
		Role:      "user",
		Content:   req.Message,
		Timestamp: time.Now(),
	})

	reply := h.responder.Respond(ctx, req.Message)

	chat.Messages = append(chat.Messages, models.ChatMessage{
		Role:      "assistant",
		Content:   reply,
		Timestamp: time.Now(),
	})

	if h.chats != nil {
		if err := h.chats.SaveChat(ctx, chat.ID, chat.Name, chat.Messages); err != nil {
			h.logger.Warn("Failed to save chat", zap.String("chat_id", chat.ID), zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"chat_id":  chat.ID,
		"name":     chat.Name,
		"reply":    reply,
		"messages": chat.Messages,
	})
}

func (h *Handler) loadOrCreateChat(ctx context.Context, req chatRequest) (*models.Chat, error) {
	if req.ChatID != "" && h.chats != nil {
		chat, err := h.chats.Chat(ctx, req.ChatID)
		if err == nil {
			return chat, nil
		}
		if !errors.Is(err, history.ErrChatNotFound) {
			return nil, err
		}
	}

	id := req.ChatID
	if id == "" {
		id = uuid.NewString()
	}
	return &models.Chat{ID: id, Name: chatName(req.Message)}, nil
}

func chatName(message string) string {
	runes := []rune(message)
	if len(runes) <= chatNameLength {
		return message
	}
	return string(runes[:chatNameLength]) + "..."
}

// GetChats handles GET /api/v1/chats
func (h *Handler) GetChats(c *fiber.Ctx) error {
	if h.chats == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "chat history is disabled")
	}

	chats, err := h.chats.AllChats(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to list chats", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list chats")
	}
	if chats == nil {
		chats = []models.Chat{}
	}

	return c.JSON(fiber.Map{"chats": chats})
}

// GetChat handles GET /api/v1/chats/:id
func (h *Handler) GetChat(c *fiber.Ctx) error {
	if h.chats == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "chat history is disabled")
	}

	chat, err := h.chats.Chat(c.UserContext(), c.Params("id"))
	if errors.Is(err, history.ErrChatNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "chat not found")
	}
	if err != nil {
		h.logger.Error("Failed to load chat", zap.String("chat_id", c.Params("id")), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load chat")
	}

	return c.JSON(chat)
}

// GetHistory handles GET /api/v1/history?location=&limit=
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	if h.chats == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "query history is disabled")
	}

	limit := c.QueryInt("limit", 5)
	if limit < 1 || limit > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 100")
	}

	records, err := h.chats.Recent(c.UserContext(), c.Query("location"), limit)
	if err != nil {
		h.logger.Error("Failed to load history", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load history")
	}
	if records == nil {
		records = []models.QueryRecord{}
	}

	return c.JSON(fiber.Map{"queries": records})
}

// PostSpeak handles POST /api/v1/speak
func (h *Handler) PostSpeak(c *fiber.Ctx) error {
	var req speakRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if h.speaker == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "text-to-speech is disabled")
	}

	audio, err := h.speaker.Synthesize(c.UserContext(), req.Text)
	if err != nil {
		h.logger.Warn("Speech synthesis failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "speech synthesis failed")
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(audio)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
		"stats":     h.weather.GetStats(),
	})
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"metrics":   h.weather.GetStats(),
		"timestamp": time.Now(),
	})
}
