package services

import (
	"testing"

	"github.com/matryer/is"
	"github.com/xtayzy/uniCrew/models"
)

func TestInbox(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner := f.user(t, "owner")
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	rocket := f.team(t, owner, "Rocket")
	comet := f.team(t, owner, "Comet")

	_, err := f.memberships.RequestJoin(f.ctx, alice, rocket.ID, "")
	is.NoErr(err)
	_, err = f.memberships.RequestJoin(f.ctx, bob, comet.ID, "")
	is.NoErr(err)

	list, err := f.inbox.List(f.ctx, owner)
	is.NoErr(err)
	is.Equal(len(list), 2)
	is.Equal(list[0].Team.Title, "Comet") // newest first
	is.Equal(list[0].TeamMember.User.Username, "bob")

	view := list[1].View()
	is.Equal(view.NotificationTypeDisplay, "Join request")
	is.Equal(view.TeamTitle, "Rocket")
	is.Equal(view.TeamMember.User, "alice")

	unread, err := f.inbox.UnreadCount(f.ctx, owner)
	is.NoErr(err)
	is.Equal(unread, int64(2))

	// somebody else's notification is invisible
	isKind(t, f.inbox.MarkRead(f.ctx, alice, list[0].ID), ErrNotFound)
	isKind(t, f.inbox.Delete(f.ctx, alice, list[0].ID), ErrNotFound)

	is.NoErr(f.inbox.MarkRead(f.ctx, owner, list[0].ID))
	is.NoErr(f.inbox.MarkRead(f.ctx, owner, list[0].ID)) // already read is fine
	unread, err = f.inbox.UnreadCount(f.ctx, owner)
	is.NoErr(err)
	is.Equal(unread, int64(1))

	events := f.hub.For(owner.ID)
	last := events[len(events)-1]
	is.Equal(last.Type, EventUnreadCount)
	is.Equal(*last.UnreadCount, int64(1))

	n, err := f.inbox.MarkAllRead(f.ctx, owner)
	is.NoErr(err)
	is.Equal(n, int64(1))
	unread, err = f.inbox.UnreadCount(f.ctx, owner)
	is.NoErr(err)
	is.Equal(unread, int64(0))

	is.NoErr(f.inbox.Delete(f.ctx, owner, list[1].ID))
	list, err = f.inbox.List(f.ctx, owner)
	is.NoErr(err)
	is.Equal(len(list), 1)
	is.Equal(list[0].NotificationType, models.NotifyTeamRequest)
}
