package models

import "time"

type NotificationType string

const (
	NotifyTeamInvitation         NotificationType = "TEAM_INVITATION"
	NotifyTeamRequest            NotificationType = "TEAM_REQUEST"
	NotifyTeamRequestApproved    NotificationType = "TEAM_REQUEST_APPROVED"
	NotifyTeamRequestRejected    NotificationType = "TEAM_REQUEST_REJECTED"
	NotifyTeamInvitationAccepted NotificationType = "TEAM_INVITATION_ACCEPTED"
	NotifyTeamInvitationRejected NotificationType = "TEAM_INVITATION_REJECTED"
	NotifyTaskAssigned           NotificationType = "TASK_ASSIGNED"
	NotifyTaskUpdated            NotificationType = "TASK_UPDATED"
)

func (t NotificationType) Valid() bool {
	return t.Display() != ""
}

func (t NotificationType) Display() string {
	switch t {
	case NotifyTeamInvitation:
		return "Team invitation"
	case NotifyTeamRequest:
		return "Join request"
	case NotifyTeamRequestApproved:
		return "Request approved"
	case NotifyTeamRequestRejected:
		return "Request rejected"
	case NotifyTeamInvitationAccepted:
		return "Invitation accepted"
	case NotifyTeamInvitationRejected:
		return "Invitation rejected"
	case NotifyTaskAssigned:
		return "Task assigned"
	case NotifyTaskUpdated:
		return "Task updated"
	}
	return ""
}

// Notification is an inbox entry produced as a side effect of a team or
// task transition
type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	NotificationType NotificationType `gorm:"size:30;not null;index" json:"notification_type"`
	TeamID           *uint            `gorm:"index" json:"team_id"`
	TeamMemberID     *uint            `gorm:"index" json:"team_member_id"`
	TaskID           *uint            `gorm:"index" json:"task_id"`
	Message          string           `json:"message"`
	IsRead           bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`

	// Relations
	User       *User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Team       *Team       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TeamMember *TeamMember `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Task       *Task       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// NotificationView is the inbox representation of a notification
type NotificationView struct {
	ID                      uint             `json:"id"`
	NotificationType        NotificationType `json:"notification_type"`
	NotificationTypeDisplay string           `json:"notification_type_display"`
	TeamID                  *uint            `json:"team"`
	TeamTitle               string           `json:"team_title,omitempty"`
	TeamMember              *MemberView      `json:"team_member"`
	TaskID                  *uint            `json:"task"`
	Message                 string           `json:"message"`
	IsRead                  bool             `json:"is_read"`
	CreatedAt               time.Time        `json:"created_at"`
}

func (n *Notification) View() NotificationView {
	v := NotificationView{
		ID:                      n.ID,
		NotificationType:        n.NotificationType,
		NotificationTypeDisplay: n.NotificationType.Display(),
		TeamID:                  n.TeamID,
		TaskID:                  n.TaskID,
		Message:                 n.Message,
		IsRead:                  n.IsRead,
		CreatedAt:               n.CreatedAt,
	}
	if n.Team != nil {
		v.TeamTitle = n.Team.Title
	}
	if n.TeamMember != nil {
		mv := n.TeamMember.View()
		v.TeamMember = &mv
	}
	return v
}
