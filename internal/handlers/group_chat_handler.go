package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Kumampet/itanavi-chat/internal/models"
	"github.com/Kumampet/itanavi-chat/internal/services"
	chatws "github.com/Kumampet/itanavi-chat/internal/websocket"
	"github.com/Kumampet/itanavi-chat/pkg/utils"
)

type groupChatApplicationService interface {
	GetGroup(ctx context.Context, actorID int64, groupID int64) (*models.GroupDetail, error)
	ListMessages(ctx context.Context, actorID int64, groupID int64) ([]models.GroupMessage, error)
	SendMessage(ctx context.Context, actorID int64, groupID int64, content string, isAnnouncement bool) (*services.ChatDelivery, error)
	MarkRead(ctx context.Context, actorID int64, groupID int64, messageID int64) error
	ToggleReaction(ctx context.Context, actorID int64, groupID int64, messageID int64, emoji string) (bool, error)
	UnreadMap(ctx context.Context, actorID int64) (map[int64]bool, error)
}

type GroupChatHandler struct {
	service   groupChatApplicationService
	hub       *chatws.Hub
	jwtSecret string
}

type sendMessageRequest struct {
	Content        string `json:"content"`
	IsAnnouncement bool   `json:"isAnnouncement"`
}

type toggleReactionRequest struct {
	Emoji string `json:"emoji"`
}

func NewGroupChatHandler(service groupChatApplicationService, hub *chatws.Hub, jwtSecret string) *GroupChatHandler {
	return &GroupChatHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

func (h *GroupChatHandler) GetGroup(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	groupID, err := parseGroupID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	detail, err := h.service.GetGroup(c.Context(), userID, groupID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"group": detail})
}

func (h *GroupChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	groupID, err := parseGroupID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	messages, err := h.service.ListMessages(c.Context(), userID, groupID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *GroupChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	groupID, err := parseGroupID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	delivery, err := h.service.SendMessage(c.Context(), userID, groupID, req.Content, req.IsAnnouncement)
	if err != nil {
		return mapChatError(c, err)
	}

	h.hub.BroadcastNewMessage(groupID, delivery.Message)
	h.hub.BroadcastReadUpdated(groupID, userID, delivery.Message.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": delivery.Message})
}

func (h *GroupChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	groupID, err := parseGroupID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	messageID, err := strconv.ParseInt(c.Params("messageId"), 10, 64)
	if err != nil || messageID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	if err := h.service.MarkRead(c.Context(), userID, groupID, messageID); err != nil {
		return mapChatError(c, err)
	}

	h.hub.BroadcastReadUpdated(groupID, userID, messageID)

	return c.JSON(fiber.Map{"ok": true})
}

func (h *GroupChatHandler) ToggleReaction(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	groupID, err := parseGroupID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	messageID, err := strconv.ParseInt(c.Params("messageId"), 10, 64)
	if err != nil || messageID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	var req toggleReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	added, err := h.service.ToggleReaction(c.Context(), userID, groupID, messageID, req.Emoji)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"ok": true, "added": added})
}

func (h *GroupChatHandler) GetUnreadMap(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	unread, err := h.service.UnreadMap(c.Context(), userID)
	if err != nil {
		return mapChatError(c, err)
	}

	// JSON object keys are strings; the client parses them back to ids.
	result := make(map[string]bool, len(unread))
	for groupID, hasUnread := range unread {
		result[strconv.FormatInt(groupID, 10)] = hasUnread
	}

	return c.JSON(fiber.Map{"unread": result})
}

// WebSocketAuth authenticates the upgrade request. The token travels in the
// query string because browser WebSocket clients cannot set headers.
func (h *GroupChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	groupID, err := strconv.ParseInt(c.Query("group"), 10, 64)
	if err != nil || groupID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	// Only members may attach to a group channel.
	if _, err := h.service.GetGroup(c.Context(), userID, groupID); err != nil {
		return mapChatError(c, err)
	}

	c.Locals("user_id", userID)
	c.Locals("group_id", groupID)
	return c.Next()
}

func (h *GroupChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(int64)
	groupID, _ := conn.Locals("group_id").(int64)
	client := chatws.NewClient(h.hub, conn, userID, groupID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func (h *GroupChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func parseActorID(c *fiber.Ctx) (int64, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, errors.New("missing user id")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.New("invalid user id")
	}
	return userID, nil
}

func parseGroupID(c *fiber.Ctx) (int64, error) {
	groupID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || groupID <= 0 {
		return 0, errors.New("invalid group id")
	}
	return groupID, nil
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrContentTooLong):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is too long"})
	case errors.Is(err, services.ErrGroupNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	case errors.Is(err, services.ErrMessageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Message not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
