package services

import (
	"testing"

	"github.com/matryer/is"
	"github.com/xtayzy/uniCrew/models"
)

func TestCreateTeamResolvesCatalogNames(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner := f.user(t, "owner")

	team, err := f.teams.Create(f.ctx, owner, TeamInput{
		Title:             "Rocket",
		Description:       "to the moon",
		Category:          "Hackathon",
		RequiredSkills:    []string{"Go", "SQL", "Go"},
		RequiredQualities: []string{"Teamwork"},
		TelegramLink:      ptr("https://t.me/rocket"),
	})
	is.NoErr(err)

	view := team.View()
	is.Equal(view.Status, models.TeamOpen)
	is.Equal(view.Creator, "owner")
	is.Equal(view.Category, "Hackathon")
	is.Equal(len(view.RequiredSkills), 2)
	is.Equal(view.RequiredQualities, []string{"Teamwork"})
	is.Equal(*view.TelegramLink, "https://t.me/rocket")
	is.Equal(len(view.Members), 1)
	is.Equal(view.Members[0].User, "owner")
	is.Equal(view.Members[0].TeamTitle, "Rocket")

	_, err = f.teams.Create(f.ctx, owner, TeamInput{Title: "X", Description: "d", Category: "Unknown"})
	isKind(t, err, ErrValidation)
	_, err = f.teams.Create(f.ctx, owner, TeamInput{Title: "X", Description: "d", Category: "Hackathon", RequiredSkills: []string{"Cobol"}})
	isKind(t, err, ErrValidation)

	var count int64
	is.NoErr(f.db.Model(&models.Team{}).Count(&count).Error)
	is.Equal(count, int64(1))
}

func TestUpdateTeam(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner := f.user(t, "owner")
	alice := f.user(t, "alice")
	team, err := f.teams.Create(f.ctx, owner, TeamInput{
		Title:          "Rocket",
		Description:    "d",
		Category:       "Hackathon",
		RequiredSkills: []string{"Go"},
		WhatsappLink:   ptr("https://wa.me/1"),
	})
	is.NoErr(err)

	_, err = f.teams.Update(f.ctx, alice, team.ID, TeamPatch{Title: ptr("Mine")})
	isKind(t, err, ErrForbidden)

	_, err = f.teams.Update(f.ctx, owner, team.ID, TeamPatch{Status: ptr(models.TeamStatus("LOST"))})
	isKind(t, err, ErrValidation)

	skills := []string{"SQL"}
	updated, err := f.teams.Update(f.ctx, owner, team.ID, TeamPatch{
		Title:          ptr("Rocket 2"),
		Status:         ptr(models.TeamInProgress),
		RequiredSkills: &skills,
		WhatsappLink:   ptr(""),
	})
	is.NoErr(err)
	is.Equal(updated.Title, "Rocket 2")
	is.Equal(updated.Status, models.TeamInProgress)
	is.Equal(updated.View().RequiredSkills, []string{"SQL"})
	is.True(updated.WhatsappLink == nil)

	_, err = f.teams.Update(f.ctx, owner, 4040, TeamPatch{})
	isKind(t, err, ErrNotFound)
}

func TestListTeamsPages(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	owner := f.user(t, "owner")
	for _, title := range []string{"A", "B", "C"} {
		f.team(t, owner, title)
	}

	teams, total, err := f.teams.List(f.ctx, 1, 2)
	is.NoErr(err)
	is.Equal(total, int64(3))
	is.Equal(len(teams), 2)
	is.Equal(teams[0].Title, "C")

	teams, _, err = f.teams.List(f.ctx, 2, 2)
	is.NoErr(err)
	is.Equal(len(teams), 1)
	is.Equal(teams[0].Title, "A")
}

func TestNormalizePage(t *testing.T) {
	is := is.New(t)
	page, limit := normalizePage(0, 0)
	is.Equal(page, 1)
	is.Equal(limit, defaultPageSize)
	_, limit = normalizePage(3, 1000)
	is.Equal(limit, maxPageSize)
}
