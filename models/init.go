package models

import "gorm.io/gorm"

// Migrate creates or updates every table of the schema. Parents are
// listed before children so foreign keys resolve on a fresh database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&School{},
		&Faculty{},
		&Skill{},
		&PersonalQuality{},
		&ProjectCategory{},
		&User{},
		&CustomSkill{},
		&CustomPersonalQuality{},
		&Team{},
		&TeamMember{},
		&Task{},
		&Notification{},
	)
}
