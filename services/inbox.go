package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"gorm.io/gorm"
)

// InboxService reads and maintains a user's notifications
type InboxService struct {
	db  *gorm.DB
	hub Publisher
	log *logrus.Entry
}

func NewInboxService(db *gorm.DB, hub Publisher, log *logrus.Entry) *InboxService {
	return &InboxService{db: db, hub: hub, log: log}
}

// List returns actor's notifications, newest first
func (s *InboxService) List(ctx context.Context, actor *models.User) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Preload("Team").
		Preload("TeamMember").
		Preload("TeamMember.User").
		Preload("TeamMember.Team").
		Preload("Task").
		Where("user_id = ?", actor.ID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	return notifications, err
}

func (s *InboxService) UnreadCount(ctx context.Context, actor *models.User) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", actor.ID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flags one of actor's notifications as read
func (s *InboxService) MarkRead(ctx context.Context, actor *models.User, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, actor.ID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// the row may exist and already be read
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, actor.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return notFound("notification not found")
		}
	}
	s.pushUnread(ctx, actor)
	return nil
}

// MarkAllRead flags every notification of actor as read and returns how
// many changed
func (s *InboxService) MarkAllRead(ctx context.Context, actor *models.User) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", actor.ID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", res.Error)
	}
	s.pushUnread(ctx, actor)
	return res.RowsAffected, nil
}

// Delete removes one of actor's notifications
func (s *InboxService) Delete(ctx context.Context, actor *models.User, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, actor.ID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return fmt.Errorf("delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("notification not found")
	}
	s.pushUnread(ctx, actor)
	return nil
}

// pushUnread tells actor's live connections about the new unread count
func (s *InboxService) pushUnread(ctx context.Context, actor *models.User) {
	if s.hub == nil {
		return
	}
	count, err := s.UnreadCount(ctx, actor)
	if err != nil {
		s.log.WithError(err).WithField("user_id", actor.ID).Warn("failed to count unread notifications")
		return
	}
	s.hub.Publish(actor.ID, Event{Type: EventUnreadCount, UnreadCount: &count})
}
