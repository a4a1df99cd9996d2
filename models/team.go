package models

import "time"

type TeamStatus string

const (
	TeamOpen       TeamStatus = "OPEN"
	TeamClosed     TeamStatus = "CLOSED"
	TeamInProgress TeamStatus = "IN_PROGRESS"
	TeamDone       TeamStatus = "DONE"
)

func (s TeamStatus) Valid() bool {
	switch s {
	case TeamOpen, TeamClosed, TeamInProgress, TeamDone:
		return true
	}
	return false
}

// MemberStatus is the state of a user's relationship with a team. The
// absence of a TeamMember row means there is no relation at all.
type MemberStatus string

const (
	MemberPending  MemberStatus = "PENDING"
	MemberInvited  MemberStatus = "INVITED"
	MemberApproved MemberStatus = "APPROVED"
	MemberRejected MemberStatus = "REJECTED"
)

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberPending, MemberInvited, MemberApproved, MemberRejected:
		return true
	}
	return false
}

// Team represents a student project looking for members
type Team struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"not null" json:"description"`
	CreatorID   uint       `gorm:"not null;index" json:"creator_id"`
	CategoryID  uint       `gorm:"not null;index" json:"category_id"`
	Status      TeamStatus `gorm:"size:20;not null;default:'OPEN'" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`

	WhatsappLink *string `json:"whatsapp_link,omitempty"`
	TelegramLink *string `json:"telegram_link,omitempty"`

	// Relations
	Creator           User              `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Category          ProjectCategory   `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
	RequiredSkills    []Skill           `gorm:"many2many:team_required_skills" json:"-"`
	RequiredQualities []PersonalQuality `gorm:"many2many:team_required_qualities" json:"-"`
	Members           []TeamMember      `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"-"`
}

// TeamMember is the membership row of one user in one team. There is at
// most one row per (team, user) pair.
type TeamMember struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	TeamID    uint         `gorm:"not null;uniqueIndex:idx_team_member_pair" json:"team_id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_team_member_pair;index" json:"user_id"`
	Status    MemberStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Relations
	Team *Team `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TeamView is the public representation of a team with its members
type TeamView struct {
	ID                uint         `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Creator           string       `json:"creator"`
	CreatorID         uint         `json:"creator_id"`
	Category          string       `json:"category"`
	Status            TeamStatus   `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	RequiredSkills    []string     `json:"required_skills"`
	RequiredQualities []string     `json:"required_qualities"`
	Members           []MemberView `json:"members"`
	WhatsappLink      *string      `json:"whatsapp_link,omitempty"`
	TelegramLink      *string      `json:"telegram_link,omitempty"`
}

// MemberView is a membership row as shown to clients
type MemberView struct {
	ID        uint         `json:"id"`
	User      string       `json:"user"`
	UserID    uint         `json:"user_id"`
	TeamID    uint         `json:"team"`
	TeamTitle string       `json:"team_title"`
	Status    MemberStatus `json:"status"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// View expects Creator, Category, RequiredSkills, RequiredQualities and
// Members.User to be preloaded.
func (t *Team) View() TeamView {
	v := TeamView{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		Creator:           t.Creator.Username,
		CreatorID:         t.CreatorID,
		Category:          t.Category.Name,
		Status:            t.Status,
		CreatedAt:         t.CreatedAt,
		RequiredSkills:    make([]string, 0, len(t.RequiredSkills)),
		RequiredQualities: make([]string, 0, len(t.RequiredQualities)),
		Members:           make([]MemberView, 0, len(t.Members)),
		WhatsappLink:      t.WhatsappLink,
		TelegramLink:      t.TelegramLink,
	}
	for _, s := range t.RequiredSkills {
		v.RequiredSkills = append(v.RequiredSkills, s.Name)
	}
	for _, q := range t.RequiredQualities {
		v.RequiredQualities = append(v.RequiredQualities, q.Name)
	}
	for i := range t.Members {
		m := t.Members[i]
		m.Team = t
		v.Members = append(v.Members, m.View())
	}
	return v
}

func (m *TeamMember) View() MemberView {
	v := MemberView{
		ID:        m.ID,
		UserID:    m.UserID,
		TeamID:    m.TeamID,
		Status:    m.Status,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.User != nil {
		v.User = m.User.Username
	}
	if m.Team != nil {
		v.TeamTitle = m.Team.Title
	}
	return v
}
