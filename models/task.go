package models

import "time"

type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
	TaskCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone, TaskCancelled:
		return true
	}
	return false
}

func (s TaskStatus) Display() string {
	switch s {
	case TaskTodo:
		return "To do"
	case TaskInProgress:
		return "In progress"
	case TaskDone:
		return "Done"
	case TaskCancelled:
		return "Cancelled"
	}
	return string(s)
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (p TaskPriority) Display() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	}
	return string(p)
}

// Task is a unit of work inside a team. The creator is always the team's
// creator.
type Task struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Title        string       `gorm:"size:200;not null" json:"title"`
	Description  string       `json:"description"`
	TeamID       uint         `gorm:"not null;index" json:"team_id"`
	CreatorID    uint         `gorm:"not null;index" json:"creator_id"`
	AssignedToID *uint        `gorm:"index" json:"assigned_to_id"`
	Status       TaskStatus   `gorm:"size:20;not null;default:'TODO'" json:"status"`
	Priority     TaskPriority `gorm:"size:10;not null;default:'MEDIUM'" json:"priority"`
	DueDate      *time.Time   `json:"due_date"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Relations
	Team       *Team `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Creator    *User `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID;constraint:OnDelete:CASCADE" json:"-"`
}

// TaskView is the client representation of a task
type TaskView struct {
	ID              uint         `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	TeamID          uint         `json:"team"`
	TeamTitle       string       `json:"team_title"`
	Creator         string       `json:"creator"`
	AssignedTo      *string      `json:"assigned_to"`
	AssignedToID    *uint        `json:"assigned_to_id"`
	Status          TaskStatus   `json:"status"`
	StatusDisplay   string       `json:"status_display"`
	Priority        TaskPriority `json:"priority"`
	PriorityDisplay string       `json:"priority_display"`
	DueDate         *time.Time   `json:"due_date"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (t *Task) View() TaskView {
	v := TaskView{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		TeamID:          t.TeamID,
		AssignedToID:    t.AssignedToID,
		Status:          t.Status,
		StatusDisplay:   t.Status.Display(),
		Priority:        t.Priority,
		PriorityDisplay: t.Priority.Display(),
		DueDate:         t.DueDate,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.Team != nil {
		v.TeamTitle = t.Team.Title
	}
	if t.Creator != nil {
		v.Creator = t.Creator.Username
	}
	if t.AssignedTo != nil {
		name := t.AssignedTo.Username
		v.AssignedTo = &name
	}
	return v
}
