package services

import (
	"testing"

	"github.com/matryer/is"
	"github.com/xtayzy/uniCrew/models"
)

func TestNamedCatalog(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)

	row, err := CreateNamed[models.Skill](f.ctx, f.catalog, "  Python ", "skill")
	is.NoErr(err)
	is.Equal(row.Name, "Python")
	is.True(row.ID != 0)

	_, err = CreateNamed[models.Skill](f.ctx, f.catalog, "Go", "skill")
	isKind(t, err, ErrConflict)
	_, err = CreateNamed[models.Skill](f.ctx, f.catalog, " ", "skill")
	isKind(t, err, ErrValidation)

	skills, err := ListNamed[models.Skill](f.ctx, f.catalog)
	is.NoErr(err)
	is.Equal(len(skills), 3)
	is.Equal(skills[0].Name, "Go")

	renamed, err := RenameNamed[models.Skill](f.ctx, f.catalog, row.ID, "Python 3", "skill")
	is.NoErr(err)
	is.Equal(renamed.Name, "Python 3")
	_, err = RenameNamed[models.Skill](f.ctx, f.catalog, 999, "x", "skill")
	isKind(t, err, ErrNotFound)

	is.NoErr(DeleteNamed[models.Skill](f.ctx, f.catalog, row.ID, "skill"))
	isKind(t, DeleteNamed[models.Skill](f.ctx, f.catalog, row.ID, "skill"), ErrNotFound)

	cat, err := CreateNamed[models.ProjectCategory](f.ctx, f.catalog, "Research", "project category")
	is.NoErr(err)
	is.Equal(cat.Name, "Research")
}

func TestFaculties(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)

	school, err := CreateNamed[models.School](f.ctx, f.catalog, "Engineering", "school")
	is.NoErr(err)

	_, err = f.catalog.CreateFaculty(f.ctx, FacultyInput{Name: "Physics", SchoolID: ptr(uint(42))})
	isKind(t, err, ErrValidation)

	cs, err := f.catalog.CreateFaculty(f.ctx, FacultyInput{Name: "Computer Science", SchoolID: &school.ID})
	is.NoErr(err)
	_, err = f.catalog.CreateFaculty(f.ctx, FacultyInput{Name: "Loose"})
	is.NoErr(err)

	all, err := f.catalog.Faculties(f.ctx, nil)
	is.NoErr(err)
	is.Equal(len(all), 2)
	narrowed, err := f.catalog.Faculties(f.ctx, &school.ID)
	is.NoErr(err)
	is.Equal(len(narrowed), 1)
	is.Equal(narrowed[0].SchoolName(), "Engineering")

	schools, err := f.catalog.Schools(f.ctx)
	is.NoErr(err)
	is.Equal(len(schools), 1)
	is.Equal(len(schools[0].Faculties), 1)

	updated, err := f.catalog.UpdateFaculty(f.ctx, cs.ID, FacultyInput{Name: "Informatics"})
	is.NoErr(err)
	is.Equal(updated.Name, "Informatics")
	is.True(updated.SchoolID == nil)

	is.NoErr(f.catalog.DeleteFaculty(f.ctx, cs.ID))
	isKind(t, f.catalog.DeleteFaculty(f.ctx, cs.ID), ErrNotFound)
}

func TestCustomSkillsAreOwned(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	row, err := f.catalog.AddCustomSkill(f.ctx, alice, "Juggling")
	is.NoErr(err)
	_, err = f.catalog.AddCustomSkill(f.ctx, alice, "Juggling")
	isKind(t, err, ErrConflict)
	// the same name is fine for somebody else
	_, err = f.catalog.AddCustomSkill(f.ctx, bob, "Juggling")
	is.NoErr(err)

	_, err = f.catalog.RenameCustomSkill(f.ctx, bob, row.ID, "Mine")
	isKind(t, err, ErrNotFound)
	isKind(t, f.catalog.DeleteCustomSkill(f.ctx, bob, row.ID), ErrNotFound)

	renamed, err := f.catalog.RenameCustomSkill(f.ctx, alice, row.ID, "Fire juggling")
	is.NoErr(err)
	is.Equal(renamed.Name, "Fire juggling")

	rows, err := f.catalog.CustomSkills(f.ctx, alice)
	is.NoErr(err)
	is.Equal(len(rows), 1)

	q, err := f.catalog.AddCustomQuality(f.ctx, alice, "Calm")
	is.NoErr(err)
	is.NoErr(f.catalog.DeleteCustomQuality(f.ctx, alice, q.ID))
	qs, err := f.catalog.CustomQualities(f.ctx, alice)
	is.NoErr(err)
	is.Equal(len(qs), 0)
}
