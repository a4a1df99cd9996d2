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

// ProfileService reads and edits user profiles
type ProfileService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewProfileService(db *gorm.DB, log *logrus.Entry) *ProfileService {
	return &ProfileService{db: db, log: log}
}

// ProfileInput is a partial profile update. Skills and PersonalQualities
// replace the whole list when present.
type ProfileInput struct {
	FirstName         *string                `json:"first_name" validate:"omitempty,max=150"`
	LastName          *string                `json:"last_name" validate:"omitempty,max=150"`
	Email             *string                `json:"email" validate:"omitempty,email"`
	FacultyID         *uint                  `json:"faculty"`
	Course            *int                   `json:"course" validate:"omitempty,min=1,max=6"`
	EducationLevel    *models.EducationLevel `json:"education_level" validate:"omitempty,oneof=BACHELOR MASTER PHD OTHER"`
	Position          *string                `json:"position" validate:"omitempty,max=100"`
	AboutMyself       *string                `json:"about_myself"`
	Skills            *[]string              `json:"skills"`
	PersonalQualities *[]string              `json:"personal_qualities"`
}

func withProfileDetails(db *gorm.DB) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id") }
	return db.Preload("Faculty").
		Preload("Faculty.School").
		Preload("Skills", byID).
		Preload("PersonalQualities", byID).
		Preload("CustomSkills", byID).
		Preload("CustomPersonalQualities", byID)
}

// Get loads a user with everything Profile needs
func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := withProfileDetails(s.db.WithContext(ctx)).First(&user, userID).Error; err != nil {
		return nil, lookupErr(err, "user not found")
	}
	return &user, nil
}

// List returns one page of active users with the total count
func (s *ProfileService) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	page, limit = normalizePage(page, limit)
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := withProfileDetails(db).
		Where("is_active = ?", true).
		Order("id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

// Update applies in to actor's own profile
func (s *ProfileService) Update(ctx context.Context, actor *models.User, in ProfileInput) (*models.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if in.FirstName != nil {
			updates["first_name"] = *in.FirstName
		}
		if in.LastName != nil {
			updates["last_name"] = *in.LastName
		}
		if in.Email != nil && *in.Email != actor.Email {
			var taken int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", *in.Email, actor.ID).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return conflict("email is already in use")
			}
			updates["email"] = *in.Email
		}
		if in.FacultyID != nil {
			if *in.FacultyID == 0 {
				updates["faculty_id"] = nil
			} else {
				var faculty models.Faculty
				if err := tx.First(&faculty, *in.FacultyID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return validation("faculty does not exist")
					}
					return err
				}
				updates["faculty_id"] = faculty.ID
			}
		}
		if in.Course != nil {
			updates["course"] = *in.Course
		}
		if in.EducationLevel != nil {
			if !in.EducationLevel.Valid() {
				return validation(fmt.Sprintf("unknown education level %q", *in.EducationLevel))
			}
			updates["education_level"] = *in.EducationLevel
		}
		if in.Position != nil {
			updates["position"] = *in.Position
		}
		if in.AboutMyself != nil {
			updates["about_myself"] = *in.AboutMyself
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.User{ID: actor.ID}).Updates(updates).Error; err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
		}

		if in.Skills != nil {
			if err := syncSkills(tx, actor.ID, *in.Skills); err != nil {
				return err
			}
		}
		if in.PersonalQualities != nil {
			if err := syncQualities(tx, actor.ID, *in.PersonalQualities); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", actor.ID).Info("profile updated")
	return s.Get(ctx, actor.ID)
}

// cleanNames trims names and drops blanks and case-insensitive duplicates
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// syncSkills makes the user's skills equal names. Names known to the
// global catalog link the catalog row; the rest become custom skills.
func syncSkills(tx *gorm.DB, userID uint, names []string) error {
	names = cleanNames(names)
	global := make([]models.Skill, 0, len(names))
	custom := make([]string, 0, len(names))
	for _, name := range names {
		var skill models.Skill
		err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&skill).Error
		switch {
		case err == nil:
			global = append(global, skill)
		case errors.Is(err, gorm.ErrRecordNotFound):
			custom = append(custom, name)
		default:
			return err
		}
	}

	user := &models.User{ID: userID}
	if err := tx.Model(user).Association("Skills").Replace(global); err != nil {
		return fmt.Errorf("replace skills: %w", err)
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.CustomSkill{}).Error; err != nil {
		return fmt.Errorf("clear custom skills: %w", err)
	}
	for _, name := range custom {
		if err := tx.Create(&models.CustomSkill{Name: name, UserID: userID}).Error; err != nil {
			return fmt.Errorf("add custom skill: %w", err)
		}
	}
	return nil
}

// syncQualities is syncSkills for personal qualities
func syncQualities(tx *gorm.DB, userID uint, names []string) error {
	names = cleanNames(names)
	global := make([]models.PersonalQuality, 0, len(names))
	custom := make([]string, 0, len(names))
	for _, name := range names {
		var quality models.PersonalQuality
		err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&quality).Error
		switch {
		case err == nil:
			global = append(global, quality)
		case errors.Is(err, gorm.ErrRecordNotFound):
			custom = append(custom, name)
		default:
			return err
		}
	}

	user := &models.User{ID: userID}
	if err := tx.Model(user).Association("PersonalQualities").Replace(global); err != nil {
		return fmt.Errorf("replace personal qualities: %w", err)
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.CustomPersonalQuality{}).Error; err != nil {
		return fmt.Errorf("clear custom qualities: %w", err)
	}
	for _, name := range custom {
		if err := tx.Create(&models.CustomPersonalQuality{Name: name, UserID: userID}).Error; err != nil {
			return fmt.Errorf("add custom quality: %w", err)
		}
	}
	return nil
}
