package notification

import (
	"context"
	"fmt"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// Inbox はゲストが保存済みの通知を参照するためのサービスです
type Inbox struct {
	repo repository.NotificationRepository
}

// NewInbox は新しいInboxを作成します
func NewInbox(repo repository.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

// ListUnread はユーザーの未読通知を新しい順に返します
func (i *Inbox) ListUnread(ctx context.Context, userID int64) ([]model.NotificationRecord, error) {
	records, err := i.repo.GetUnreadByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	return records, nil
}

// MarkRead は通知を既読にします
func (i *Inbox) MarkRead(ctx context.Context, id int64) error {
	if err := i.repo.UpdateIsRead(ctx, id, true); err != nil {
		return fmt.Errorf("failed to mark notification %d as read: %w", id, err)
	}
	return nil
}
