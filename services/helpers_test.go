package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

// newTestDB opens a private in-memory database with the full schema and
// foreign keys enforced
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// recordingHub remembers every published event
type recordingHub struct {
	mu     sync.Mutex
	events map[uint][]Event
}

func newRecordingHub() *recordingHub {
	return &recordingHub{events: make(map[uint][]Event)}
}

func (h *recordingHub) Publish(userID uint, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[userID] = append(h.events[userID], event)
}

func (h *recordingHub) For(userID uint) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events[userID]...)
}

type fixture struct {
	ctx         context.Context
	db          *gorm.DB
	hub         *recordingHub
	notifier    *Notifier
	memberships *MembershipService
	teams       *TeamService
	tasks       *TaskService
	inbox       *InboxService
	profiles    *ProfileService
	accounts    *AccountService
	catalog     *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	hub := newRecordingHub()
	log := quietLog()
	notifier := NewNotifier(hub, log)

	if err := db.Create(&models.ProjectCategory{Name: "Hackathon"}).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	for _, name := range []string{"Go", "SQL"} {
		if err := db.Create(&models.Skill{Name: name}).Error; err != nil {
			t.Fatalf("seed skill: %v", err)
		}
	}
	if err := db.Create(&models.PersonalQuality{Name: "Teamwork"}).Error; err != nil {
		t.Fatalf("seed quality: %v", err)
	}

	return &fixture{
		ctx:         context.Background(),
		db:          db,
		hub:         hub,
		notifier:    notifier,
		memberships: NewMembershipService(db, notifier, log),
		teams:       NewTeamService(db, log),
		tasks:       NewTaskService(db, notifier, log),
		inbox:       NewInboxService(db, hub, log),
		profiles:    NewProfileService(db, log),
		accounts:    NewAccountService(db, log),
		catalog:     NewCatalogService(db, log),
	}
}

const testPassword = "s3cret-pass"

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := models.User{
		Username:     username,
		Email:        username + "@uni.test",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := f.db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return &u
}

func (f *fixture) team(t *testing.T, creator *models.User, title string) *models.Team {
	t.Helper()
	team, err := f.teams.Create(f.ctx, creator, TeamInput{
		Title:       title,
		Description: "a test team",
		Category:    "Hackathon",
	})
	if err != nil {
		t.Fatalf("create team %s: %v", title, err)
	}
	return team
}

// notifications returns userID's notifications of kind, oldest first
func (f *fixture) notifications(t *testing.T, userID uint, kind models.NotificationType) []models.Notification {
	t.Helper()
	var rows []models.Notification
	err := f.db.Where("user_id = ? AND notification_type = ?", userID, kind).Order("id").Find(&rows).Error
	if err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	return rows
}

func (f *fixture) membership(t *testing.T, teamID, userID uint) *models.TeamMember {
	t.Helper()
	m, err := findMembership(f.db, teamID, userID)
	if err != nil {
		t.Fatalf("load membership: %v", err)
	}
	return m
}

// isKind fails the test unless err is a service error of kind
func isKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v error, got %v", kind, err)
	}
}

func ptr[T any](v T) *T { return &v }
