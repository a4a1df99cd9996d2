package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"gorm.io/gorm"
)

// TaskService tracks tasks inside teams. Only the team creator plans work;
// assignees report progress through the status field.
type TaskService struct {
	db       *gorm.DB
	notifier *Notifier
	log      *logrus.Entry
}

func NewTaskService(db *gorm.DB, notifier *Notifier, log *logrus.Entry) *TaskService {
	return &TaskService{
		db:       db,
		notifier: notifier,
		log:      log,
	}
}

// TaskInput is the payload of a task create. The assignee is given either
// by id or by username.
type TaskInput struct {
	Title              string               `json:"title" validate:"required,max=200"`
	Description        string               `json:"description"`
	AssignedToID       *uint                `json:"assigned_to"`
	AssignedToUsername *string              `json:"assigned_to_username"`
	Priority           *models.TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate            *time.Time           `json:"due_date"`
}

// TaskPatch holds the fields of a task update. Nil fields are left alone;
// an empty AssignedToUsername clears the assignee.
type TaskPatch struct {
	Title              *string              `json:"title" validate:"omitempty,max=200"`
	Description        *string              `json:"description"`
	AssignedToID       *uint                `json:"assigned_to"`
	AssignedToUsername *string              `json:"assigned_to_username"`
	Priority           *models.TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate            *time.Time           `json:"due_date"`
	Status             *models.TaskStatus   `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE CANCELLED"`
}

// onlyStatus reports whether the patch touches the status and nothing else
func (p TaskPatch) onlyStatus() bool {
	return p.Status != nil &&
		p.Title == nil &&
		p.Description == nil &&
		p.AssignedToID == nil &&
		p.AssignedToUsername == nil &&
		p.Priority == nil &&
		p.DueDate == nil
}

// resolveAssignee finds the user a task should go to. It returns nil when
// neither id nor username is set. The user must be an approved member of
// the team.
func resolveAssignee(tx *gorm.DB, teamID uint, id *uint, username *string) (*models.User, error) {
	var user models.User
	switch {
	case id != nil:
		if err := tx.First(&user, *id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validation("assignee does not exist")
			}
			return nil, err
		}
	case username != nil && *username != "":
		if err := tx.Where("username = ?", *username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validation(fmt.Sprintf("user %q does not exist", *username))
			}
			return nil, err
		}
	default:
		return nil, nil
	}

	var count int64
	err := tx.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND status = ?", teamID, user.ID, models.MemberApproved).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, validation(fmt.Sprintf("user %s is not a member of this team", user.Username))
	}
	return &user, nil
}

func assignedMessage(task *models.Task, team *models.Team) string {
	return fmt.Sprintf("You have been assigned the task '%s' in team '%s'", task.Title, team.Title)
}

// Create adds a task to a team. Only the team creator may do so.
func (s *TaskService) Create(ctx context.Context, actor *models.User, teamID uint, in TaskInput) (*models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, validation("title is required")
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, validation(fmt.Sprintf("unknown priority %q", *in.Priority))
	}

	var taskID uint
	err := transition(ctx, s.db, s.notifier, func(tx *gorm.DB, em *Emission) error {
		team, err := findTeam(tx, teamID)
		if err != nil {
			return err
		}
		if err := requireCreator(team, actor, "only the team creator can create tasks"); err != nil {
			return err
		}
		assignee, err := resolveAssignee(tx, team.ID, in.AssignedToID, in.AssignedToUsername)
		if err != nil {
			return err
		}

		task := models.Task{
			Title:       in.Title,
			Description: in.Description,
			TeamID:      team.ID,
			CreatorID:   actor.ID,
			Status:      models.TaskTodo,
			Priority:    models.PriorityMedium,
			DueDate:     in.DueDate,
		}
		if in.Priority != nil {
			task.Priority = *in.Priority
		}
		if assignee != nil {
			task.AssignedToID = &assignee.ID
		}
		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		taskID = task.ID

		if assignee == nil {
			return nil
		}
		return em.Emit(assignee.ID, models.NotifyTaskAssigned,
			Refs{TeamID: &team.ID, TaskID: &task.ID},
			assignedMessage(&task, team))
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"team_id": teamID, "task_id": taskID}).Info("task created")
	return s.load(ctx, taskID)
}

// Update applies patch to a task. The team creator may change anything;
// the assignee may only move the status.
func (s *TaskService) Update(ctx context.Context, actor *models.User, teamID, taskID uint, patch TaskPatch) (*models.Task, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, validation(fmt.Sprintf("unknown task status %q", *patch.Status))
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, validation(fmt.Sprintf("unknown priority %q", *patch.Priority))
	}

	err := transition(ctx, s.db, s.notifier, func(tx *gorm.DB, em *Emission) error {
		team, err := findTeam(tx, teamID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := tx.Where("id = ? AND team_id = ?", taskID, team.ID).First(&task).Error; err != nil {
			return lookupErr(err, "task not found")
		}

		isCreator := team.CreatorID == actor.ID
		isAssignee := task.AssignedToID != nil && *task.AssignedToID == actor.ID
		switch {
		case isCreator:
			return s.applyCreatorPatch(tx, em, team, &task, patch)
		case isAssignee:
			if !patch.onlyStatus() {
				return forbidden("assignees can only change the task status")
			}
			return s.applyStatus(tx, em, team, &task, *patch.Status, actor)
		}
		return forbidden("you cannot edit this task")
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, taskID)
}

func (s *TaskService) applyCreatorPatch(tx *gorm.DB, em *Emission, team *models.Team, task *models.Task, patch TaskPatch) error {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return validation("title cannot be empty")
		}
		updates["title"] = *patch.Title
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Priority != nil {
		updates["priority"] = *patch.Priority
	}
	if patch.DueDate != nil {
		updates["due_date"] = *patch.DueDate
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	var reassigned *models.User
	clearing := patch.AssignedToID == nil && patch.AssignedToUsername != nil && *patch.AssignedToUsername == ""
	if clearing {
		updates["assigned_to_id"] = nil
	} else {
		assignee, err := resolveAssignee(tx, team.ID, patch.AssignedToID, patch.AssignedToUsername)
		if err != nil {
			return err
		}
		if assignee != nil {
			updates["assigned_to_id"] = assignee.ID
			if task.AssignedToID == nil || *task.AssignedToID != assignee.ID {
				reassigned = assignee
			}
		}
	}

	if len(updates) > 0 {
		if err := tx.Model(task).Updates(updates).Error; err != nil {
			return fmt.Errorf("update task: %w", err)
		}
	}
	if reassigned == nil {
		return nil
	}
	return em.Emit(reassigned.ID, models.NotifyTaskAssigned,
		Refs{TeamID: &team.ID, TaskID: &task.ID},
		assignedMessage(task, team))
}

func (s *TaskService) applyStatus(tx *gorm.DB, em *Emission, team *models.Team, task *models.Task, status models.TaskStatus, actor *models.User) error {
	if err := tx.Model(task).Update("status", status).Error; err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return em.Emit(team.CreatorID, models.NotifyTaskUpdated,
		Refs{TeamID: &team.ID, TaskID: &task.ID},
		fmt.Sprintf("User %s changed the status of task '%s' to '%s'", actor.Username, task.Title, status.Display()))
}

// Delete removes a task. Only the team creator may do so.
func (s *TaskService) Delete(ctx context.Context, actor *models.User, teamID, taskID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := findTeam(tx, teamID)
		if err != nil {
			return err
		}
		if err := requireCreator(team, actor, "only the team creator can delete tasks"); err != nil {
			return err
		}
		res := tx.Where("id = ? AND team_id = ?", taskID, team.ID).Delete(&models.Task{})
		if res.Error != nil {
			return fmt.Errorf("delete task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("task not found")
		}
		return nil
	})
}

// visibleTasks scopes a query to the tasks actor may see in a team: all of
// them for the creator, only their own otherwise. An unknown team yields
// an empty scope.
func visibleTasks(db *gorm.DB, actor *models.User, teamID uint) *gorm.DB {
	creatorTeams := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Team{}).
		Select("id").
		Where("id = ? AND creator_id = ?", teamID, actor.ID)
	return db.Where("team_id = ?", teamID).
		Where(db.Session(&gorm.Session{NewDB: true}).
			Where("team_id IN (?)", creatorTeams).
			Or("assigned_to_id = ?", actor.ID))
}

func withTaskDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Team").Preload("Creator").Preload("AssignedTo")
}

// List returns the tasks of a team visible to actor, newest first
func (s *TaskService) List(ctx context.Context, actor *models.User, teamID uint) ([]models.Task, error) {
	db := s.db.WithContext(ctx)
	var tasks []models.Task
	err := withTaskDetails(visibleTasks(db, actor, teamID)).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error
	return tasks, err
}

// Get returns a single task visible to actor
func (s *TaskService) Get(ctx context.Context, actor *models.User, teamID, taskID uint) (*models.Task, error) {
	db := s.db.WithContext(ctx)
	var task models.Task
	err := withTaskDetails(visibleTasks(db, actor, teamID)).
		Where("id = ?", taskID).
		First(&task).Error
	if err != nil {
		return nil, lookupErr(err, "task not found")
	}
	return &task, nil
}

func (s *TaskService) load(ctx context.Context, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := withTaskDetails(s.db.WithContext(ctx)).First(&task, taskID).Error; err != nil {
		return nil, lookupErr(err, "task not found")
	}
	return &task, nil
}
