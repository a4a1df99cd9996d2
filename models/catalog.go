package models

// Skill is a globally known skill students can pick from
type Skill struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}

// PersonalQuality is a globally known soft skill
type PersonalQuality struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}

// CustomSkill is a skill a user typed in that is not in the global list
type CustomSkill struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:100;not null;uniqueIndex:idx_custom_skill_user" json:"name"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_custom_skill_user" json:"-"`
}

// CustomPersonalQuality is the personal quality counterpart of CustomSkill
type CustomPersonalQuality struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:100;not null;uniqueIndex:idx_custom_quality_user" json:"name"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_custom_quality_user" json:"-"`
}

type School struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:150;not null" json:"name"`

	Faculties []Faculty `gorm:"foreignKey:SchoolID;constraint:OnDelete:SET NULL" json:"faculties,omitempty"`
}

type Faculty struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:150;not null;uniqueIndex:idx_faculty_school" json:"name"`
	SchoolID *uint  `gorm:"uniqueIndex:idx_faculty_school" json:"school_id,omitempty"`

	School *School `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// SchoolName is empty for faculties not attached to a school
func (f *Faculty) SchoolName() string {
	if f.School == nil {
		return ""
	}
	return f.School.Name
}

// ProjectCategory classifies teams (hackathon, research, startup...)
type ProjectCategory struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}
