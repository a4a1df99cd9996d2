package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"github.com/xtayzy/uniCrew/services"
	"github.com/xtayzy/uniCrew/utils"
)

type NotificationController struct {
	Inbox  *services.InboxService
	Hub    *services.Hub
	Logger *logrus.Entry
}

func NewNotificationController(inbox *services.InboxService, hub *services.Hub, logger *logrus.Entry) *NotificationController {
	return &NotificationController{
		Inbox:  inbox,
		Hub:    hub,
		Logger: logger,
	}
}

func notificationID(c *fiber.Ctx) (uint, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid notification ID")
	}
	return id, nil
}

func (nc *NotificationController) List(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	rows, err := nc.Inbox.List(c.UserContext(), user)
	if err != nil {
		return utils.HandleServiceError(c, "list_notifications", err)
	}
	views := make([]models.NotificationView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].View())
	}
	return c.JSON(utils.SuccessResponse(views))
}

func (nc *NotificationController) UnreadCount(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	count, err := nc.Inbox.UnreadCount(c.UserContext(), user)
	if err != nil {
		return utils.HandleServiceError(c, "unread_count", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"unread_count": count}))
}

func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := notificationID(c)
	if err != nil {
		return err
	}
	if err := nc.Inbox.MarkRead(c.UserContext(), user, id); err != nil {
		return utils.HandleServiceError(c, "mark_notification_read", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Notification marked as read"}))
}

func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	n, err := nc.Inbox.MarkAllRead(c.UserContext(), user)
	if err != nil {
		return utils.HandleServiceError(c, "mark_all_notifications_read", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "All notifications marked as read",
		"updated": n,
	}))
}

func (nc *NotificationController) Delete(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := notificationID(c)
	if err != nil {
		return err
	}
	if err := nc.Inbox.Delete(c.UserContext(), user, id); err != nil {
		return utils.HandleServiceError(c, "delete_notification", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpgradeStream lets only authenticated websocket upgrades through and
// hands the user to the websocket handler
func (nc *NotificationController) UpgradeStream(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// Stream pushes inbox events to the connected user until the client goes
// away. Incoming frames are only read to notice the close.
func (nc *NotificationController) Stream(conn *websocket.Conn) {
	defer conn.Close()

	user, ok := conn.Locals("user").(*models.User)
	if !ok {
		return
	}
	log := nc.Logger.WithField("user_id", user.ID)

	unregister := nc.Hub.Register(user.ID, conn)
	defer unregister()
	log.Debug("inbox stream connected")

	if count, err := nc.Inbox.UnreadCount(context.Background(), user); err == nil {
		if err := nc.Hub.Send(user.ID, conn, services.Event{Type: services.EventUnreadCount, UnreadCount: &count}); err != nil {
			return
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.WithError(err).Debug("inbox stream closed")
			return
		}
	}
}
