package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Kumampet/itanavi-chat/internal/models"
	"github.com/Kumampet/itanavi-chat/internal/services"
	chatws "github.com/Kumampet/itanavi-chat/internal/websocket"
)

type stubGroupChatService struct {
	groupResult    *models.GroupDetail
	groupErr       error
	messagesResult []models.GroupMessage
	messagesErr    error
	sendResult     *services.ChatDelivery
	sendErr        error
	markReadErr    error
	toggleAdded    bool
	toggleErr      error
	unreadResult   map[int64]bool
	unreadErr      error

	lastActorID        int64
	lastGroupID        int64
	lastMessageID      int64
	lastContent        string
	lastIsAnnouncement bool
	lastEmoji          string
}

func (s *stubGroupChatService) GetGroup(_ context.Context, actorID int64, groupID int64) (*models.GroupDetail, error) {
	s.lastActorID = actorID
	s.lastGroupID = groupID
	return s.groupResult, s.groupErr
}

func (s *stubGroupChatService) ListMessages(_ context.Context, actorID int64, groupID int64) ([]models.GroupMessage, error) {
	s.lastActorID = actorID
	s.lastGroupID = groupID
	return s.messagesResult, s.messagesErr
}

func (s *stubGroupChatService) SendMessage(_ context.Context, actorID int64, groupID int64, content string, isAnnouncement bool) (*services.ChatDelivery, error) {
	s.lastActorID = actorID
	s.lastGroupID = groupID
	s.lastContent = content
	s.lastIsAnnouncement = isAnnouncement
	return s.sendResult, s.sendErr
}

func (s *stubGroupChatService) MarkRead(_ context.Context, actorID int64, groupID int64, messageID int64) error {
	s.lastActorID = actorID
	s.lastGroupID = groupID
	s.lastMessageID = messageID
	return s.markReadErr
}

func (s *stubGroupChatService) ToggleReaction(_ context.Context, actorID int64, groupID int64, messageID int64, emoji string) (bool, error) {
	s.lastActorID = actorID
	s.lastGroupID = groupID
	s.lastMessageID = messageID
	s.lastEmoji = emoji
	return s.toggleAdded, s.toggleErr
}

func (s *stubGroupChatService) UnreadMap(_ context.Context, actorID int64) (map[int64]bool, error) {
	s.lastActorID = actorID
	return s.unreadResult, s.unreadErr
}

func newChatTestApp(service *stubGroupChatService) *fiber.App {
	handler := NewGroupChatHandler(service, chatws.NewHub(nil), "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "42")
		c.Locals("role", "user")
		return c.Next()
	})

	groups := app.Group("/api/groups")
	groups.Get("/unread-count", handler.GetUnreadMap)
	groups.Get("/:id", handler.GetGroup)
	groups.Get("/:id/messages", handler.GetMessages)
	groups.Post("/:id/messages", handler.SendMessage)
	groups.Post("/:id/messages/:messageId/read", handler.MarkRead)
	groups.Post("/:id/messages/:messageId/reactions", handler.ToggleReaction)

	return app
}

func TestGetGroupReturnsDetailWithLeaderFlag(t *testing.T) {
	displayName := "ねこ"
	service := &stubGroupChatService{
		groupResult: &models.GroupDetail{
			Group: models.Group{ID: 7, EventID: 3, Name: "夜の併せ", LeaderID: 42},
			Members: []models.GroupMember{
				{GroupID: 7, UserID: 42, DisplayName: &displayName, AccountName: "neko", IsLeader: true},
				{GroupID: 7, UserID: 43, AccountName: "tora"},
			},
			IsLeader: true,
		},
	}
	app := newChatTestApp(service)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/groups/7", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastGroupID != 7 {
		t.Fatalf("expected actor 42 group 7, got %d %d", service.lastActorID, service.lastGroupID)
	}

	var body struct {
		Group models.GroupDetail `json:"group"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Group.IsLeader || len(body.Group.Members) != 2 {
		t.Fatalf("unexpected group payload: %+v", body.Group)
	}
}

func TestGetMessagesReturnsSnapshot(t *testing.T) {
	service := &stubGroupChatService{
		messagesResult: []models.GroupMessage{
			{ID: 1, GroupID: 7, SenderID: 42, Content: "集合は10時", CreatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)},
			{ID: 2, GroupID: 7, SenderID: 43, Content: "りょうかい", CreatedAt: time.Date(2026, 4, 1, 9, 1, 0, 0, time.UTC)},
		},
	}
	app := newChatTestApp(service)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/groups/7/messages", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Messages []models.GroupMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Messages) != 2 || body.Messages[0].ID != 1 || body.Messages[1].ID != 2 {
		t.Fatalf("unexpected messages payload: %+v", body.Messages)
	}
}

func TestSendMessageCreatesAndReturnsMessage(t *testing.T) {
	service := &stubGroupChatService{
		sendResult: &services.ChatDelivery{
			Group:   &models.Group{ID: 7},
			Message: &models.GroupMessage{ID: 9, GroupID: 7, SenderID: 42, Content: "hello"},
		},
	}
	app := newChatTestApp(service)

	req := httptest.NewRequest("POST", "/api/groups/7/messages",
		strings.NewReader(`{"content":"hello","isAnnouncement":true}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastContent != "hello" || !service.lastIsAnnouncement {
		t.Fatalf("expected content and announcement flag forwarded, got %q %v",
			service.lastContent, service.lastIsAnnouncement)
	}

	var body struct {
		Message models.GroupMessage `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message.ID != 9 {
		t.Fatalf("expected server-assigned id 9, got %d", body.Message.ID)
	}
}

func TestSendMessageMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"forbidden", services.ErrForbidden, fiber.StatusForbidden},
		{"invalid", services.ErrInvalidInput, fiber.StatusBadRequest},
		{"too long", services.ErrContentTooLong, fiber.StatusBadRequest},
		{"group missing", services.ErrGroupNotFound, fiber.StatusNotFound},
	}

	for _, c := range cases {
		service := &stubGroupChatService{sendErr: c.err}
		app := newChatTestApp(service)

		req := httptest.NewRequest("POST", "/api/groups/7/messages",
			strings.NewReader(`{"content":"x"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: app.Test: %v", c.name, err)
		}
		if resp.StatusCode != c.status {
			t.Fatalf("%s: expected %d, got %d", c.name, c.status, resp.StatusCode)
		}
	}
}

func TestMarkReadForwardsIDs(t *testing.T) {
	service := &stubGroupChatService{}
	app := newChatTestApp(service)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/groups/7/messages/12/read", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastGroupID != 7 || service.lastMessageID != 12 {
		t.Fatalf("expected group 7 message 12, got %d %d", service.lastGroupID, service.lastMessageID)
	}
}

func TestMarkReadRejectsInvalidMessageID(t *testing.T) {
	app := newChatTestApp(&stubGroupChatService{})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/groups/7/messages/zero/read", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestToggleReactionReturnsAdded(t *testing.T) {
	service := &stubGroupChatService{toggleAdded: true}
	app := newChatTestApp(service)

	req := httptest.NewRequest("POST", "/api/groups/7/messages/12/reactions",
		strings.NewReader(`{"emoji":"🔥"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastEmoji != "🔥" {
		t.Fatalf("expected emoji forwarded, got %q", service.lastEmoji)
	}

	var body struct {
		OK    bool `json:"ok"`
		Added bool `json:"added"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.OK || !body.Added {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetUnreadMapStringifiesKeys(t *testing.T) {
	service := &stubGroupChatService{
		unreadResult: map[int64]bool{7: true, 8: false},
	}
	app := newChatTestApp(service)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/groups/unread-count", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Unread map[string]bool `json:"unread"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Unread["7"] || body.Unread["8"] {
		t.Fatalf("unexpected unread map: %+v", body.Unread)
	}
}
