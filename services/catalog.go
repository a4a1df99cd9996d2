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

// CatalogService manages the shared lookup tables (skills, personal
// qualities, project categories, schools, faculties) and a user's own
// custom skills and qualities.
type CatalogService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewCatalogService(db *gorm.DB, log *logrus.Entry) *CatalogService {
	return &CatalogService{db: db, log: log}
}

// Named is implemented by every catalog row identified by a unique name
type Named interface {
	models.Skill | models.PersonalQuality | models.ProjectCategory | models.School
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validation("name is required")
	}
	return name, nil
}

func writeErr(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict(fmt.Sprintf("%s with this name already exists", what))
	}
	return err
}

// ListNamed returns every row of a name-only catalog table ordered by name
func ListNamed[T Named](ctx context.Context, s *CatalogService) ([]T, error) {
	var rows []T
	err := s.db.WithContext(ctx).Order("name").Find(&rows).Error
	return rows, err
}

// CreateNamed inserts a catalog row with the given name
func CreateNamed[T Named](ctx context.Context, s *CatalogService, name, what string) (*T, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	row := new(T)
	if err := s.db.WithContext(ctx).Model(row).Create(map[string]interface{}{"name": name}).Error; err != nil {
		return nil, writeErr(err, what)
	}
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// RenameNamed changes the name of a catalog row
func RenameNamed[T Named](ctx context.Context, s *CatalogService, id uint, name, what string) (*T, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	row := new(T)
	if err := db.First(row, id).Error; err != nil {
		return nil, lookupErr(err, what+" not found")
	}
	if err := db.Model(row).Update("name", name).Error; err != nil {
		return nil, writeErr(err, what)
	}
	if err := db.First(row, id).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// DeleteNamed removes a catalog row
func DeleteNamed[T Named](ctx context.Context, s *CatalogService, id uint, what string) error {
	res := s.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return conflict(fmt.Sprintf("%s is still in use", what))
		}
		return fmt.Errorf("delete %s: %w", what, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(what + " not found")
	}
	return nil
}

// Schools returns every school with its faculties
func (s *CatalogService) Schools(ctx context.Context) ([]models.School, error) {
	var schools []models.School
	err := s.db.WithContext(ctx).
		Preload("Faculties", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Order("name").
		Find(&schools).Error
	return schools, err
}

// Faculties returns every faculty, optionally narrowed to one school
func (s *CatalogService) Faculties(ctx context.Context, schoolID *uint) ([]models.Faculty, error) {
	q := s.db.WithContext(ctx).Preload("School").Order("name")
	if schoolID != nil {
		q = q.Where("school_id = ?", *schoolID)
	}
	var faculties []models.Faculty
	err := q.Find(&faculties).Error
	return faculties, err
}

// FacultyInput is the payload of a faculty create or update
type FacultyInput struct {
	Name     string `json:"name" validate:"required,max=150"`
	SchoolID *uint  `json:"school"`
}

func (s *CatalogService) checkSchool(tx *gorm.DB, schoolID *uint) error {
	if schoolID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.School{}).Where("id = ?", *schoolID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return validation("school does not exist")
	}
	return nil
}

func (s *CatalogService) CreateFaculty(ctx context.Context, in FacultyInput) (*models.Faculty, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := s.checkSchool(db, in.SchoolID); err != nil {
		return nil, err
	}
	faculty := models.Faculty{Name: name, SchoolID: in.SchoolID}
	if err := db.Create(&faculty).Error; err != nil {
		return nil, writeErr(err, "faculty")
	}
	return &faculty, nil
}

func (s *CatalogService) UpdateFaculty(ctx context.Context, id uint, in FacultyInput) (*models.Faculty, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var faculty models.Faculty
	if err := db.First(&faculty, id).Error; err != nil {
		return nil, lookupErr(err, "faculty not found")
	}
	if err := s.checkSchool(db, in.SchoolID); err != nil {
		return nil, err
	}
	err = db.Model(&faculty).Updates(map[string]interface{}{
		"name":      name,
		"school_id": in.SchoolID,
	}).Error
	if err != nil {
		return nil, writeErr(err, "faculty")
	}
	faculty.Name = name
	faculty.SchoolID = in.SchoolID
	return &faculty, nil
}

func (s *CatalogService) DeleteFaculty(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Faculty{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete faculty: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("faculty not found")
	}
	return nil
}

// CustomSkills lists the custom skills of actor
func (s *CatalogService) CustomSkills(ctx context.Context, actor *models.User) ([]models.CustomSkill, error) {
	var rows []models.CustomSkill
	err := s.db.WithContext(ctx).Where("user_id = ?", actor.ID).Order("name").Find(&rows).Error
	return rows, err
}

func (s *CatalogService) AddCustomSkill(ctx context.Context, actor *models.User, name string) (*models.CustomSkill, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	row := models.CustomSkill{Name: name, UserID: actor.ID}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, writeErr(err, "custom skill")
	}
	return &row, nil
}

func (s *CatalogService) RenameCustomSkill(ctx context.Context, actor *models.User, id uint, name string) (*models.CustomSkill, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var row models.CustomSkill
	if err := db.Where("id = ? AND user_id = ?", id, actor.ID).First(&row).Error; err != nil {
		return nil, lookupErr(err, "custom skill not found")
	}
	if err := db.Model(&row).Update("name", name).Error; err != nil {
		return nil, writeErr(err, "custom skill")
	}
	row.Name = name
	return &row, nil
}

func (s *CatalogService) DeleteCustomSkill(ctx context.Context, actor *models.User, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, actor.ID).Delete(&models.CustomSkill{})
	if res.Error != nil {
		return fmt.Errorf("delete custom skill: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("custom skill not found")
	}
	return nil
}

// CustomQualities lists the custom personal qualities of actor
func (s *CatalogService) CustomQualities(ctx context.Context, actor *models.User) ([]models.CustomPersonalQuality, error) {
	var rows []models.CustomPersonalQuality
	err := s.db.WithContext(ctx).Where("user_id = ?", actor.ID).Order("name").Find(&rows).Error
	return rows, err
}

func (s *CatalogService) AddCustomQuality(ctx context.Context, actor *models.User, name string) (*models.CustomPersonalQuality, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	row := models.CustomPersonalQuality{Name: name, UserID: actor.ID}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, writeErr(err, "custom personal quality")
	}
	return &row, nil
}

func (s *CatalogService) RenameCustomQuality(ctx context.Context, actor *models.User, id uint, name string) (*models.CustomPersonalQuality, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var row models.CustomPersonalQuality
	if err := db.Where("id = ? AND user_id = ?", id, actor.ID).First(&row).Error; err != nil {
		return nil, lookupErr(err, "custom personal quality not found")
	}
	if err := db.Model(&row).Update("name", name).Error; err != nil {
		return nil, writeErr(err, "custom personal quality")
	}
	row.Name = name
	return &row, nil
}

func (s *CatalogService) DeleteCustomQuality(ctx context.Context, actor *models.User, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, actor.ID).Delete(&models.CustomPersonalQuality{})
	if res.Error != nil {
		return fmt.Errorf("delete custom personal quality: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("custom personal quality not found")
	}
	return nil
}
