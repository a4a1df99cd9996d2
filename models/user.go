package models

import (
	"time"
)

// EducationLevel is the degree programme a student is enrolled in
type EducationLevel string

const (
	EducationBachelor EducationLevel = "BACHELOR"
	EducationMaster   EducationLevel = "MASTER"
	EducationPhD      EducationLevel = "PHD"
	EducationOther    EducationLevel = "OTHER"
)

func (e EducationLevel) Valid() bool {
	switch e {
	case EducationBachelor, EducationMaster, EducationPhD, EducationOther:
		return true
	}
	return false
}

// Display returns the human readable label shown next to the code
func (e EducationLevel) Display() string {
	switch e {
	case EducationBachelor:
		return "Bachelor"
	case EducationMaster:
		return "Master"
	case EducationPhD:
		return "PhD"
	case EducationOther:
		return "Other"
	}
	return ""
}

// User represents a student account in the system
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Authentication fields
	Username      string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`
	TokenVersion  int    `gorm:"default:0" json:"-"`

	// Profile information
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	FacultyID      *uint           `gorm:"index" json:"faculty_id,omitempty"`
	Course         *int            `json:"course,omitempty"`
	EducationLevel *EducationLevel `gorm:"size:20;default:'BACHELOR'" json:"education_level,omitempty"`
	Position       string          `gorm:"size:100" json:"position"`
	AboutMyself    string          `json:"about_myself"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`
	IsAdmin  bool `gorm:"default:false" json:"is_admin"`

	// Relations
	Faculty                 *Faculty                `gorm:"constraint:OnDelete:SET NULL" json:"faculty,omitempty"`
	Skills                  []Skill                 `gorm:"many2many:user_skills" json:"-"`
	PersonalQualities       []PersonalQuality       `gorm:"many2many:user_personal_qualities" json:"-"`
	CustomSkills            []CustomSkill           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CustomPersonalQualities []CustomPersonalQuality `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// SkillNames merges global and custom skills, global first
func (u *User) SkillNames() []string {
	names := make([]string, 0, len(u.Skills)+len(u.CustomSkills))
	for _, s := range u.Skills {
		names = append(names, s.Name)
	}
	for _, s := range u.CustomSkills {
		names = append(names, s.Name)
	}
	return names
}

// QualityNames merges global and custom personal qualities, global first
func (u *User) QualityNames() []string {
	names := make([]string, 0, len(u.PersonalQualities)+len(u.CustomPersonalQualities))
	for _, q := range u.PersonalQualities {
		names = append(names, q.Name)
	}
	for _, q := range u.CustomPersonalQualities {
		names = append(names, q.Name)
	}
	return names
}

// Profile is the public representation of a user
type Profile struct {
	ID                    uint           `json:"id"`
	Username              string         `json:"username"`
	Email                 string         `json:"email,omitempty"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	Faculty               *Faculty       `json:"faculty,omitempty"`
	Course                *int           `json:"course,omitempty"`
	EducationLevel        EducationLevel `json:"education_level,omitempty"`
	EducationLevelDisplay string         `json:"education_level_display,omitempty"`
	Position              string         `json:"position"`
	AboutMyself           string         `json:"about_myself"`
	SkillsList            []string       `json:"skills_list"`
	QualitiesList         []string       `json:"personal_qualities_list"`
}

// ToProfile flattens a user with preloaded skills and qualities. Email is
// only included when withEmail is set (own profile).
func (u *User) ToProfile(withEmail bool) Profile {
	p := Profile{
		ID:            u.ID,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Faculty:       u.Faculty,
		Course:        u.Course,
		Position:      u.Position,
		AboutMyself:   u.AboutMyself,
		SkillsList:    u.SkillNames(),
		QualitiesList: u.QualityNames(),
	}
	if withEmail {
		p.Email = u.Email
	}
	if u.EducationLevel != nil {
		p.EducationLevel = *u.EducationLevel
		p.EducationLevelDisplay = u.EducationLevel.Display()
	}
	return p
}
