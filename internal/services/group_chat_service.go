package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kumampet/itanavi-chat/internal/models"
	"github.com/Kumampet/itanavi-chat/internal/repository"
	"github.com/Kumampet/itanavi-chat/pkg/utils"
)

// MaxMessageLength is the message size cap in full-width-equivalent
// characters. The composer clips input to this bound on the client; the
// server rejects anything that slips past it.
const MaxMessageLength = 1000

// presenceReader reports which members are connected to a group's realtime
// channel.
type presenceReader interface {
	Members(ctx context.Context, groupID int64) ([]int64, error)
}

type GroupChatService struct {
	db           *pgxpool.Pool
	groupRepo    *repository.GroupRepository
	messageRepo  *repository.MessageRepository
	reactionRepo *repository.ReactionRepository
	readRepo     *repository.ReadMarkerRepository
	presence     presenceReader
}

// ChatDelivery is what the handler hands to the hub after a successful send.
type ChatDelivery struct {
	Group   *models.Group
	Message *models.GroupMessage
}

func NewGroupChatService(
	db *pgxpool.Pool,
	groupRepo *repository.GroupRepository,
	messageRepo *repository.MessageRepository,
	reactionRepo *repository.ReactionRepository,
	readRepo *repository.ReadMarkerRepository,
	presence presenceReader,
) *GroupChatService {
	return &GroupChatService{
		db:           db,
		groupRepo:    groupRepo,
		messageRepo:  messageRepo,
		reactionRepo: reactionRepo,
		readRepo:     readRepo,
		presence:     presence,
	}
}

func (s *GroupChatService) GetGroup(
	ctx context.Context,
	actorID int64,
	groupID int64,
) (*models.GroupDetail, error) {
	if groupID <= 0 {
		return nil, ErrInvalidInput
	}

	group, err := s.groupRepo.GetByIDForMember(ctx, groupID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.notFoundOrForbidden(ctx, groupID)
		}
		return nil, err
	}

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	marker, err := s.readRepo.Get(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}

	detail := &models.GroupDetail{
		Group:      *group,
		Members:    members,
		IsLeader:   group.LeaderID == actorID,
		ReadMarker: marker,
	}

	if s.presence != nil {
		// Presence is best-effort; a registry outage must not break the view.
		if online, err := s.presence.Members(ctx, groupID); err == nil {
			detail.OnlineUserIDs = online
		}
	}

	return detail, nil
}

// ListMessages returns the group's full message history, oldest first, with
// reaction summaries attached. The client merges each response as a complete
// snapshot.
func (s *GroupChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	groupID int64,
) ([]models.GroupMessage, error) {
	if groupID <= 0 {
		return nil, ErrInvalidInput
	}

	if _, err := s.groupRepo.GetByIDForMember(ctx, groupID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.notFoundOrForbidden(ctx, groupID)
		}
		return nil, err
	}

	messages, err := s.messageRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.reactionRepo.SummariesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].Reactions = summaries[messages[i].ID]
	}

	return messages, nil
}

func (s *GroupChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	groupID int64,
	content string,
	isAnnouncement bool,
) (*ChatDelivery, error) {
	if groupID <= 0 {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	if utils.ExceedsFullWidth(trimmed, MaxMessageLength) {
		return nil, ErrContentTooLong
	}

	member, err := s.groupRepo.GetMember(ctx, groupID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.notFoundOrForbidden(ctx, groupID)
		}
		return nil, err
	}
	if isAnnouncement && !member.IsLeader {
		return nil, ErrForbidden
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txGroupRepo := repository.NewGroupRepository(tx)
	txReadRepo := repository.NewReadMarkerRepository(tx)

	message, err := txMessageRepo.Create(ctx, groupID, actorID, trimmed, isAnnouncement)
	if err != nil {
		return nil, err
	}

	if err := txGroupRepo.Touch(ctx, groupID); err != nil {
		return nil, err
	}

	// A self-sent message is trivially read by its author.
	if err := txReadRepo.MarkRead(ctx, groupID, actorID, message.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	message.SenderName = member.Name()
	return &ChatDelivery{
		Group:   group,
		Message: message,
	}, nil
}

// MarkRead advances the actor's read watermark to messageID. Idempotent:
// marking an already-read or older message changes nothing.
func (s *GroupChatService) MarkRead(
	ctx context.Context,
	actorID int64,
	groupID int64,
	messageID int64,
) error {
	if groupID <= 0 || messageID <= 0 {
		return ErrInvalidInput
	}

	if _, err := s.groupRepo.GetByIDForMember(ctx, groupID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.notFoundOrForbidden(ctx, groupID)
		}
		return err
	}

	if _, err := s.messageRepo.GetByID(ctx, groupID, messageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMessageNotFound
		}
		return err
	}

	return s.readRepo.MarkRead(ctx, groupID, actorID, messageID)
}

// ToggleReaction flips the actor's reaction: absent becomes present, present
// becomes absent. Returns true when the reaction was added.
func (s *GroupChatService) ToggleReaction(
	ctx context.Context,
	actorID int64,
	groupID int64,
	messageID int64,
	emoji string,
) (bool, error) {
	if groupID <= 0 || messageID <= 0 || strings.TrimSpace(emoji) == "" {
		return false, ErrInvalidInput
	}

	if _, err := s.groupRepo.GetByIDForMember(ctx, groupID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, s.notFoundOrForbidden(ctx, groupID)
		}
		return false, err
	}

	if _, err := s.messageRepo.GetByID(ctx, groupID, messageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrMessageNotFound
		}
		return false, err
	}

	return s.reactionRepo.Toggle(ctx, messageID, actorID, emoji)
}

// UnreadMap returns group id → has-unread for every group the actor belongs
// to. Backs the client's fallback poller.
func (s *GroupChatService) UnreadMap(
	ctx context.Context,
	actorID int64,
) (map[int64]bool, error) {
	return s.readRepo.UnreadMap(ctx, actorID)
}

// notFoundOrForbidden distinguishes "group does not exist" from "actor is
// not a member" so handlers can return 404 vs 403.
func (s *GroupChatService) notFoundOrForbidden(ctx context.Context, groupID int64) error {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrGroupNotFound
		}
		return err
	}
	return ErrForbidden
}
