package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/repo"
)

// InboxService serves the locally stored chats and the agent actions on
// them (lead status, PIC assignment).
type InboxService struct {
	DB *gorm.DB
}

// ListPage returns a page of chats matching f and the total count.
// Invalid page/pageSize fall back to 1 and 20.
func (s *InboxService) ListPage(ctx context.Context, f repo.ChatFilter, page, pageSize int) ([]domain.Chat, int64, error) {
	ctx, span := otel.Tracer("services/InboxService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("filter.status", f.Status),
			attribute.String("filter.channel", f.Channel),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	page, pageSize = clampPage(page, pageSize)
	total, err := repo.CountChats(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Chat{}, 0, nil
	}
	items, err := repo.ListChatsPage(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Messages returns a page of a chat's messages, oldest first.
func (s *InboxService) Messages(ctx context.Context, chatID string, page, pageSize int) ([]domain.Message, int64, error) {
	ctx, span := otel.Tracer("services/InboxService").Start(ctx, "Messages",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if _, err := s.chat(ctx, chatID); err != nil {
		return nil, 0, err
	}
	page, pageSize = clampPage(page, pageSize)
	total, err := repo.CountMessages(ctx, s.DB, chatID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := repo.ListMessagesPage(ctx, s.DB, chatID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// SetStatus changes a chat's lead status.
func (s *InboxService) SetStatus(ctx context.Context, chatID, status string) (*domain.Chat, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !domain.IsLeadStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.patch(ctx, chatID, map[string]any{"status": status})
}

// AssignPIC sets the chat owner. A blank pic clears the assignment.
func (s *InboxService) AssignPIC(ctx context.Context, chatID, pic string) (*domain.Chat, error) {
	var v *string
	if p := strings.TrimSpace(pic); p != "" {
		v = &p
	}
	return s.patch(ctx, chatID, map[string]any{"assigned_pic": v})
}

func (s *InboxService) patch(ctx context.Context, chatID string, fields map[string]any) (*domain.Chat, error) {
	if err := repo.UpdateChat(ctx, s.DB, chatID, fields); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return s.chat(ctx, chatID)
}

func (s *InboxService) chat(ctx context.Context, chatID string) (*domain.Chat, error) {
	c, err := repo.GetChat(ctx, s.DB, chatID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	return c, err
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}
