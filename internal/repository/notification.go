package repository

import (
	"context"
	"fmt"

	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// NotificationRepositoryImpl は通知の永続化を担当します
type NotificationRepositoryImpl struct {
	db *database.DB
}

// NewNotificationRepository は新しいNotificationRepositoryを作成します
func NewNotificationRepository(db *database.DB) *NotificationRepositoryImpl {
	return &NotificationRepositoryImpl{
		db: db,
	}
}

// Create は通知レコードを作成します
func (r *NotificationRepositoryImpl) Create(ctx context.Context, record *model.NotificationRecord) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "NotificationRepository.Create")
	defer func() { end(err) }()

	query := `
		INSERT INTO notifications (
			user_id,
			message,
			type,
			is_read,
			created_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err = r.db.QueryRowxContext(ctx, query,
		record.UserID,
		record.Message,
		string(record.Type),
		record.IsRead,
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// GetUnreadByUserID はユーザーの未読通知を新しい順に取得します
func (r *NotificationRepositoryImpl) GetUnreadByUserID(ctx context.Context, userID int64) (records []model.NotificationRecord, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "NotificationRepository.GetUnreadByUserID")
	defer func() { end(err) }()

	query := `
		SELECT
			id,
			user_id,
			message,
			type,
			is_read,
			created_at
		FROM notifications
		WHERE user_id = $1
			AND is_read = false
		ORDER BY created_at DESC, id DESC`

	if err = r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	return records, nil
}

// UpdateIsRead は通知の既読状態を更新します
func (r *NotificationRepositoryImpl) UpdateIsRead(ctx context.Context, id int64, isRead bool) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "NotificationRepository.UpdateIsRead")
	defer func() { end(err) }()

	query := `
		UPDATE notifications
		SET is_read = $1
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, isRead, id)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotificationNotFound
	}
	return nil
}
