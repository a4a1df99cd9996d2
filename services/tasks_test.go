package services

import (
	"testing"

	"github.com/matryer/is"
	"github.com/xtayzy/uniCrew/models"
)

// taskTeam builds a team owned by "owner" with alice and bob approved
func taskTeam(t *testing.T, f *fixture) (owner, alice, bob *models.User, team *models.Team) {
	t.Helper()
	owner = f.user(t, "owner")
	alice = f.user(t, "alice")
	bob = f.user(t, "bob")
	team = f.team(t, owner, "Rocket")
	for _, u := range []*models.User{alice, bob} {
		req, err := f.memberships.RequestJoin(f.ctx, u, team.ID, "")
		if err != nil {
			t.Fatalf("join: %v", err)
		}
		if _, err := f.memberships.Approve(f.ctx, owner, team.ID, req.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}
	return owner, alice, bob, team
}

func TestCreateTaskAssignsAndNotifies(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner, alice, _, team := taskTeam(t, f)

	task, err := f.tasks.Create(f.ctx, owner, team.ID, TaskInput{
		Title:              "Write the pitch",
		AssignedToUsername: ptr("alice"),
		Priority:           ptr(models.PriorityHigh),
	})
	is.NoErr(err)
	is.Equal(task.Status, models.TaskTodo)
	is.Equal(task.Priority, models.PriorityHigh)
	is.Equal(*task.AssignedToID, alice.ID)
	is.Equal(task.AssignedTo.Username, "alice")
	is.Equal(task.Creator.Username, "owner")

	assigned := f.notifications(t, alice.ID, models.NotifyTaskAssigned)
	is.Equal(len(assigned), 1)
	is.Equal(*assigned[0].TaskID, task.ID)
	is.Equal(assigned[0].Message, "You have been assigned the task 'Write the pitch' in team 'Rocket'")
}

func TestCreateTaskRules(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner, alice, _, team := taskTeam(t, f)
	outsider := f.user(t, "outsider")

	_, err := f.tasks.Create(f.ctx, alice, team.ID, TaskInput{Title: "Sneaky"})
	isKind(t, err, ErrForbidden)

	_, err = f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "Outside", AssignedToID: &outsider.ID})
	isKind(t, err, ErrValidation)

	_, err = f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "Ghost", AssignedToUsername: ptr("ghost")})
	isKind(t, err, ErrValidation)

	_, err = f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "  "})
	isKind(t, err, ErrValidation)

	_, err = f.tasks.Create(f.ctx, owner, 777, TaskInput{Title: "Nowhere"})
	isKind(t, err, ErrNotFound)

	// unassigned tasks notify nobody
	_, err = f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "Later"})
	is.NoErr(err)
	var count int64
	is.NoErr(f.db.Model(&models.Notification{}).Where("notification_type = ?", models.NotifyTaskAssigned).Count(&count).Error)
	is.Equal(count, int64(0))
}

func TestAssigneeCanOnlyChangeStatus(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner, alice, bob, team := taskTeam(t, f)

	task, err := f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "Slides", AssignedToID: &alice.ID})
	is.NoErr(err)

	_, err = f.tasks.Update(f.ctx, alice, team.ID, task.ID, TaskPatch{Title: ptr("Mine now")})
	isKind(t, err, ErrForbidden)

	_, err = f.tasks.Update(f.ctx, alice, team.ID, task.ID, TaskPatch{
		Status: ptr(models.TaskDone),
		Title:  ptr("Done and renamed"),
	})
	isKind(t, err, ErrForbidden)

	_, err = f.tasks.Update(f.ctx, bob, team.ID, task.ID, TaskPatch{Status: ptr(models.TaskDone)})
	isKind(t, err, ErrForbidden)

	updated, err := f.tasks.Update(f.ctx, alice, team.ID, task.ID, TaskPatch{Status: ptr(models.TaskInProgress)})
	is.NoErr(err)
	is.Equal(updated.Status, models.TaskInProgress)
	is.Equal(updated.Title, "Slides")

	changes := f.notifications(t, owner.ID, models.NotifyTaskUpdated)
	is.Equal(len(changes), 1)
	is.Equal(changes[0].Message, "User alice changed the status of task 'Slides' to 'In progress'")
}

func TestCreatorReassignNotifiesNewAssignee(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner, alice, bob, team := taskTeam(t, f)

	task, err := f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "Demo", AssignedToID: &alice.ID})
	is.NoErr(err)

	// same assignee again: no new notification
	_, err = f.tasks.Update(f.ctx, owner, team.ID, task.ID, TaskPatch{AssignedToID: &alice.ID, Title: ptr("Demo day")})
	is.NoErr(err)
	is.Equal(len(f.notifications(t, alice.ID, models.NotifyTaskAssigned)), 1)

	updated, err := f.tasks.Update(f.ctx, owner, team.ID, task.ID, TaskPatch{AssignedToUsername: ptr("bob")})
	is.NoErr(err)
	is.Equal(*updated.AssignedToID, bob.ID)
	is.Equal(updated.Title, "Demo day")
	bobs := f.notifications(t, bob.ID, models.NotifyTaskAssigned)
	is.Equal(len(bobs), 1)
	is.Equal(bobs[0].Message, "You have been assigned the task 'Demo day' in team 'Rocket'")

	cleared, err := f.tasks.Update(f.ctx, owner, team.ID, task.ID, TaskPatch{AssignedToUsername: ptr("")})
	is.NoErr(err)
	is.True(cleared.AssignedToID == nil)

	// the creator changing the status is not reported back to the creator
	_, err = f.tasks.Update(f.ctx, owner, team.ID, task.ID, TaskPatch{Status: ptr(models.TaskCancelled)})
	is.NoErr(err)
	is.Equal(len(f.notifications(t, owner.ID, models.NotifyTaskUpdated)), 0)
}

func TestTaskVisibility(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner, alice, bob, team := taskTeam(t, f)

	a, err := f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "For alice", AssignedToID: &alice.ID})
	is.NoErr(err)
	b, err := f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "For bob", AssignedToID: &bob.ID})
	is.NoErr(err)
	_, err = f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "Open"})
	is.NoErr(err)

	all, err := f.tasks.List(f.ctx, owner, team.ID)
	is.NoErr(err)
	is.Equal(len(all), 3)
	is.Equal(all[0].Title, "Open") // newest first

	mine, err := f.tasks.List(f.ctx, alice, team.ID)
	is.NoErr(err)
	is.Equal(len(mine), 1)
	is.Equal(mine[0].ID, a.ID)

	got, err := f.tasks.Get(f.ctx, alice, team.ID, a.ID)
	is.NoErr(err)
	is.Equal(got.Team.Title, "Rocket")

	_, err = f.tasks.Get(f.ctx, alice, team.ID, b.ID)
	isKind(t, err, ErrNotFound)

	none, err := f.tasks.List(f.ctx, owner, 555)
	is.NoErr(err)
	is.Equal(len(none), 0)
}

func TestDeleteTask(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner, alice, _, team := taskTeam(t, f)

	task, err := f.tasks.Create(f.ctx, owner, team.ID, TaskInput{Title: "Temp", AssignedToID: &alice.ID})
	is.NoErr(err)

	isKind(t, f.tasks.Delete(f.ctx, alice, team.ID, task.ID), ErrForbidden)
	is.NoErr(f.tasks.Delete(f.ctx, owner, team.ID, task.ID))
	isKind(t, f.tasks.Delete(f.ctx, owner, team.ID, task.ID), ErrNotFound)

	// the assignment notification pointed at the task
	is.Equal(len(f.notifications(t, alice.ID, models.NotifyTaskAssigned)), 0)
}
