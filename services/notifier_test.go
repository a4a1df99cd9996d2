package services

import (
	"testing"

	"github.com/matryer/is"
	"github.com/xtayzy/uniCrew/models"
	"gorm.io/gorm"
)

func TestTransitionRollsBackOnEmitFailure(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner := f.user(t, "owner")
	alice := f.user(t, "alice")
	team := f.team(t, owner, "Rocket")

	err := transition(f.ctx, f.db, f.notifier, func(tx *gorm.DB, em *Emission) error {
		member := models.TeamMember{TeamID: team.ID, UserID: alice.ID, Status: models.MemberPending}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		if err := em.Emit(owner.ID, models.NotifyTeamRequest, Refs{TeamID: &team.ID, TeamMemberID: &member.ID}, "ok"); err != nil {
			return err
		}
		return em.Emit(owner.ID, "NOT_A_KIND", Refs{}, "boom")
	})
	is.True(err != nil)

	is.True(f.membership(t, team.ID, alice.ID) == nil)
	is.Equal(len(f.notifications(t, owner.ID, models.NotifyTeamRequest)), 0)
	// nothing reaches live clients for a rolled back transition
	is.Equal(len(f.hub.For(owner.ID)), 0)
}

func TestRetract(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner := f.user(t, "owner")
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	team := f.team(t, owner, "Rocket")

	a, err := f.memberships.RequestJoin(f.ctx, alice, team.ID, "")
	is.NoErr(err)
	_, err = f.memberships.RequestJoin(f.ctx, bob, team.ID, "")
	is.NoErr(err)

	var narrowed, wide, none int64
	err = transition(f.ctx, f.db, f.notifier, func(tx *gorm.DB, em *Emission) error {
		var err error
		if narrowed, err = em.Retract(owner.ID, models.NotifyTeamRequest, team.ID, &a.ID); err != nil {
			return err
		}
		if none, err = em.Retract(owner.ID, models.NotifyTeamInvitation, team.ID, nil); err != nil {
			return err
		}
		wide, err = em.Retract(owner.ID, models.NotifyTeamRequest, team.ID, nil)
		return err
	})
	is.NoErr(err)
	is.Equal(narrowed, int64(1))
	is.Equal(none, int64(0))
	is.Equal(wide, int64(1))
}

func TestPublishHappensAfterCommit(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner := f.user(t, "owner")
	alice := f.user(t, "alice")
	team := f.team(t, owner, "Rocket")

	member, err := f.memberships.RequestJoin(f.ctx, alice, team.ID, "hello")
	is.NoErr(err)

	events := f.hub.For(owner.ID)
	is.Equal(len(events), 1)
	n := events[0].Notification
	is.True(n.ID != 0)
	is.Equal(*n.TeamID, team.ID)
	is.Equal(n.IsRead, false)
	is.Equal(n.NotificationTypeDisplay, "Join request")

	var stored models.Notification
	is.NoErr(f.db.First(&stored, n.ID).Error)
	is.Equal(*stored.TeamMemberID, member.ID)
}
