package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"gorm.io/gorm"
)

// Publisher delivers events to a user's live connections
type Publisher interface {
	Publish(userID uint, event Event)
}

// Refs are the optional rows a notification points at
type Refs struct {
	TeamID       *uint
	TeamMemberID *uint
	TaskID       *uint
}

// Notifier writes notification rows inside the caller's transaction and
// pushes them to live clients once that transaction has committed.
type Notifier struct {
	hub Publisher
	log *logrus.Entry
}

func NewNotifier(hub Publisher, log *logrus.Entry) *Notifier {
	return &Notifier{hub: hub, log: log}
}

// Emission collects the notifications created during one transaction
type Emission struct {
	tx      *gorm.DB
	created []models.Notification
}

// With binds an emission to tx. Every row written through it commits or
// rolls back together with tx.
func (n *Notifier) With(tx *gorm.DB) *Emission {
	return &Emission{tx: tx}
}

// Emit creates exactly one notification row
func (e *Emission) Emit(recipient uint, kind models.NotificationType, refs Refs, message string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown notification type %q", kind)
	}
	n := models.Notification{
		UserID:           recipient,
		NotificationType: kind,
		TeamID:           refs.TeamID,
		TeamMemberID:     refs.TeamMemberID,
		TaskID:           refs.TaskID,
		Message:          message,
	}
	if err := e.tx.Create(&n).Error; err != nil {
		return fmt.Errorf("create %s notification: %w", kind, err)
	}
	e.created = append(e.created, n)
	return nil
}

// Retract deletes every notification of kind for recipient about teamID,
// narrowed to one membership when memberID is set. Zero matches is fine.
func (e *Emission) Retract(recipient uint, kind models.NotificationType, teamID uint, memberID *uint) (int64, error) {
	q := e.tx.Where("user_id = ? AND notification_type = ? AND team_id = ?", recipient, kind, teamID)
	if memberID != nil {
		q = q.Where("team_member_id = ?", *memberID)
	}
	res := q.Delete(&models.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("retract %s notifications: %w", kind, res.Error)
	}
	return res.RowsAffected, nil
}

// Created returns the rows emitted so far
func (e *Emission) Created() []models.Notification {
	return e.created
}

// Publish pushes the emitted notifications to their recipients. Call it
// only after the transaction committed. Delivery is best effort.
func (n *Notifier) Publish(e *Emission) {
	if n.hub == nil || e == nil {
		return
	}
	for i := range e.created {
		view := e.created[i].View()
		n.hub.Publish(e.created[i].UserID, Event{
			Type:         EventNotificationCreated,
			Notification: &view,
		})
	}
	if len(e.created) > 0 {
		n.log.WithField("count", len(e.created)).Debug("published notifications")
	}
}

// transition runs fn in a single transaction and publishes the
// notifications it emitted once the transaction has committed
func transition(ctx context.Context, db *gorm.DB, n *Notifier, fn func(tx *gorm.DB, em *Emission) error) error {
	var em *Emission
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		em = n.With(tx)
		return fn(tx, em)
	})
	if err != nil {
		return err
	}
	n.Publish(em)
	return nil
}
