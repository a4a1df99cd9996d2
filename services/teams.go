package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"gorm.io/gorm"
)

type TeamService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewTeamService(db *gorm.DB, log *logrus.Entry) *TeamService {
	return &TeamService{db: db, log: log}
}

// TeamInput is the payload of a team create
type TeamInput struct {
	Title             string            `json:"title" validate:"required,max=200"`
	Description       string            `json:"description" validate:"required"`
	Category          string            `json:"category" validate:"required"`
	Status            models.TeamStatus `json:"status" validate:"omitempty,oneof=OPEN CLOSED IN_PROGRESS DONE"`
	RequiredSkills    []string          `json:"required_skills"`
	RequiredQualities []string          `json:"required_qualities"`
	WhatsappLink      *string           `json:"whatsapp_link" validate:"omitempty,url"`
	TelegramLink      *string           `json:"telegram_link" validate:"omitempty,url"`
}

// TeamPatch holds the fields of a team update. Nil fields are left alone.
type TeamPatch struct {
	Title             *string            `json:"title" validate:"omitempty,max=200"`
	Description       *string            `json:"description"`
	Category          *string            `json:"category"`
	Status            *models.TeamStatus `json:"status" validate:"omitempty,oneof=OPEN CLOSED IN_PROGRESS DONE"`
	RequiredSkills    *[]string          `json:"required_skills"`
	RequiredQualities *[]string          `json:"required_qualities"`
	WhatsappLink      *string            `json:"whatsapp_link" validate:"omitempty,url"`
	TelegramLink      *string            `json:"telegram_link" validate:"omitempty,url"`
}

func findCategory(tx *gorm.DB, name string) (*models.ProjectCategory, error) {
	var category models.ProjectCategory
	if err := tx.Where("name = ?", name).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validation(fmt.Sprintf("unknown project category %q", name))
		}
		return nil, err
	}
	return &category, nil
}

// catalogRows resolves names against a catalog table. Every name must
// exist.
func catalogRows[T any](tx *gorm.DB, names []string, what string) ([]T, error) {
	rows := make([]T, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		var row T
		if err := tx.Where("name = ?", name).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validation(fmt.Sprintf("unknown %s %q", what, name))
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Create stores a new team and makes actor its approved first member
func (s *TeamService) Create(ctx context.Context, actor *models.User, in TeamInput) (*models.Team, error) {
	if in.Status == "" {
		in.Status = models.TeamOpen
	}
	if !in.Status.Valid() {
		return nil, validation(fmt.Sprintf("unknown team status %q", in.Status))
	}

	var teamID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, in.Category)
		if err != nil {
			return err
		}
		skills, err := catalogRows[models.Skill](tx, in.RequiredSkills, "skill")
		if err != nil {
			return err
		}
		qualities, err := catalogRows[models.PersonalQuality](tx, in.RequiredQualities, "personal quality")
		if err != nil {
			return err
		}

		team := models.Team{
			Title:             in.Title,
			Description:       in.Description,
			CreatorID:         actor.ID,
			CategoryID:        category.ID,
			Status:            in.Status,
			WhatsappLink:      in.WhatsappLink,
			TelegramLink:      in.TelegramLink,
			RequiredSkills:    skills,
			RequiredQualities: qualities,
		}
		if err := tx.Omit("Creator", "Category", "RequiredSkills.*", "RequiredQualities.*").Create(&team).Error; err != nil {
			return fmt.Errorf("create team: %w", err)
		}

		creator := models.TeamMember{
			TeamID: team.ID,
			UserID: actor.ID,
			Status: models.MemberApproved,
		}
		if err := tx.Create(&creator).Error; err != nil {
			return fmt.Errorf("add creator membership: %w", err)
		}
		teamID = team.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"team_id": teamID, "creator_id": actor.ID}).Info("team created")
	return s.Get(ctx, teamID)
}

// Update applies patch to a team owned by actor
func (s *TeamService) Update(ctx context.Context, actor *models.User, teamID uint, patch TeamPatch) (*models.Team, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := findTeam(tx, teamID)
		if err != nil {
			return err
		}
		if err := requireCreator(team, actor, "only the team creator can edit the team"); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if patch.Title != nil {
			if strings.TrimSpace(*patch.Title) == "" {
				return validation("title cannot be empty")
			}
			updates["title"] = *patch.Title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.Category != nil {
			category, err := findCategory(tx, *patch.Category)
			if err != nil {
				return err
			}
			updates["category_id"] = category.ID
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return validation(fmt.Sprintf("unknown team status %q", *patch.Status))
			}
			updates["status"] = *patch.Status
		}
		if patch.WhatsappLink != nil {
			updates["whatsapp_link"] = nullable(*patch.WhatsappLink)
		}
		if patch.TelegramLink != nil {
			updates["telegram_link"] = nullable(*patch.TelegramLink)
		}
		if len(updates) > 0 {
			if err := tx.Model(team).Updates(updates).Error; err != nil {
				return fmt.Errorf("update team: %w", err)
			}
		}

		if patch.RequiredSkills != nil {
			skills, err := catalogRows[models.Skill](tx, *patch.RequiredSkills, "skill")
			if err != nil {
				return err
			}
			if err := tx.Model(team).Association("RequiredSkills").Replace(skills); err != nil {
				return fmt.Errorf("replace required skills: %w", err)
			}
		}
		if patch.RequiredQualities != nil {
			qualities, err := catalogRows[models.PersonalQuality](tx, *patch.RequiredQualities, "personal quality")
			if err != nil {
				return err
			}
			if err := tx.Model(team).Association("RequiredQualities").Replace(qualities); err != nil {
				return fmt.Errorf("replace required qualities: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, teamID)
}

// nullable maps an empty link to NULL
func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// Delete removes a team. Members, tasks and notifications follow through
// foreign key cascades.
func (s *TeamService) Delete(ctx context.Context, actor *models.User, teamID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := findTeam(tx, teamID)
		if err != nil {
			return err
		}
		if err := requireCreator(team, actor, "only the team creator can delete the team"); err != nil {
			return err
		}
		if err := tx.Model(team).Association("RequiredSkills").Clear(); err != nil {
			return fmt.Errorf("clear required skills: %w", err)
		}
		if err := tx.Model(team).Association("RequiredQualities").Clear(); err != nil {
			return fmt.Errorf("clear required qualities: %w", err)
		}
		if err := tx.Delete(team).Error; err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithField("team_id", teamID).Info("team deleted")
	return nil
}

func withTeamDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Creator").
		Preload("Category").
		Preload("RequiredSkills").
		Preload("RequiredQualities").
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at, id")
		}).
		Preload("Members.User")
}

// Get loads a team with everything TeamView needs
func (s *TeamService) Get(ctx context.Context, teamID uint) (*models.Team, error) {
	var team models.Team
	if err := withTeamDetails(s.db.WithContext(ctx)).First(&team, teamID).Error; err != nil {
		return nil, lookupErr(err, "team not found")
	}
	return &team, nil
}

// List returns one page of teams, newest first, with the total count
func (s *TeamService) List(ctx context.Context, page, limit int) ([]models.Team, int64, error) {
	page, limit = normalizePage(page, limit)
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Team{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var teams []models.Team
	err := withTeamDetails(db).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&teams).Error
	return teams, total, err
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
