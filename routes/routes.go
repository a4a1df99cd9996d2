package routes

import (
	"time"

	controller "github.com/xtayzy/uniCrew/controllers"
	"github.com/xtayzy/uniCrew/middleware"
	"github.com/xtayzy/uniCrew/models"
	"github.com/xtayzy/uniCrew/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps carries everything the routes need
type Deps struct {
	DB            *gorm.DB
	Auth          *controller.AuthController
	Users         *controller.UserController
	Catalog       *controller.CatalogController
	Teams         *controller.TeamController
	Tasks         *controller.TaskController
	Notifications *controller.NotificationController
	// RateLimitStorage is nil for the limiter's in-memory store
	RateLimitStorage fiber.Storage
	JoinLimit        int
	ResetLimit       int
}

func SetupRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "running",
			"time":   time.Now().UTC(),
		})
	})

	api := app.Group("/api/v1", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	protected := middleware.Protected(deps.DB)
	admin := middleware.AdminOnly()

	joinLimiter := middleware.RateLimit("membership", deps.JoinLimit, time.Minute, deps.RateLimitStorage)
	resetLimiter := middleware.RateLimit("password_reset", deps.ResetLimit, time.Hour, deps.RateLimitStorage)

	setupAuthRoutes(api, deps, protected, resetLimiter)
	setupCatalogRoutes(api, deps, protected, admin)
	setupUserRoutes(api, deps, protected)
	setupTeamRoutes(api, deps, protected, joinLimiter)
	setupNotificationRoutes(api, deps, protected)

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Endpoint not found", nil)
	})

	logrus.WithField("component", "routes").Info("Routes initialized successfully")
}

func setupAuthRoutes(api fiber.Router, deps Deps, protected, resetLimiter fiber.Handler) {
	auth := api.Group("/auth")
	auth.Post("/login", deps.Auth.Login)
	auth.Post("/refresh", deps.Auth.RefreshToken)
	auth.Post("/password-reset", resetLimiter, deps.Auth.PasswordReset)

	protectedAuth := auth.Group("", protected)
	protectedAuth.Post("/logout", deps.Auth.Logout)
	protectedAuth.Post("/change-password", deps.Auth.ChangePassword)
	protectedAuth.Get("/me", deps.Auth.GetCurrentUser)
}

func setupCatalogRoutes(api fiber.Router, deps Deps, protected, admin fiber.Handler) {
	named := func(path string, h controller.NamedHandlers) {
		group := api.Group(path)
		group.Get("/", h.List)
		group.Post("/", protected, admin, h.Create)
		group.Put("/:id", protected, admin, h.Update)
		group.Delete("/:id", protected, admin, h.Delete)
	}
	named("/skills", controller.Named[models.Skill](deps.Catalog, "skill"))
	named("/personal-qualities", controller.Named[models.PersonalQuality](deps.Catalog, "personal quality"))
	named("/project-categories", controller.Named[models.ProjectCategory](deps.Catalog, "project category"))

	schools := controller.Named[models.School](deps.Catalog, "school")
	api.Get("/schools", deps.Catalog.ListSchools)
	api.Post("/schools", protected, admin, schools.Create)
	api.Put("/schools/:id", protected, admin, schools.Update)
	api.Delete("/schools/:id", protected, admin, schools.Delete)

	api.Get("/faculties", deps.Catalog.ListFaculties)
	api.Post("/faculties", protected, admin, deps.Catalog.CreateFaculty)
	api.Put("/faculties/:id", protected, admin, deps.Catalog.UpdateFaculty)
	api.Delete("/faculties/:id", protected, admin, deps.Catalog.DeleteFaculty)

	customSkills := api.Group("/custom-skills", protected)
	customSkills.Get("/", deps.Catalog.ListCustomSkills)
	customSkills.Post("/", deps.Catalog.CreateCustomSkill)
	customSkills.Put("/:id", deps.Catalog.UpdateCustomSkill)
	customSkills.Delete("/:id", deps.Catalog.DeleteCustomSkill)

	customQualities := api.Group("/custom-personal-qualities", protected)
	customQualities.Get("/", deps.Catalog.ListCustomQualities)
	customQualities.Post("/", deps.Catalog.CreateCustomQuality)
	customQualities.Put("/:id", deps.Catalog.UpdateCustomQuality)
	customQualities.Delete("/:id", deps.Catalog.DeleteCustomQuality)
}

func setupUserRoutes(api fiber.Router, deps Deps, protected fiber.Handler) {
	api.Get("/profile", protected, deps.Users.GetProfile)
	api.Put("/profile", protected, deps.Users.UpdateProfile)
	api.Patch("/profile", protected, deps.Users.UpdateProfile)

	// registered before /users/:id so "me" is not taken for an id
	me := api.Group("/users/me", protected)
	me.Get("/requests", deps.Users.MyRequests)
	me.Post("/requests/cancel", deps.Users.CancelRequest)
	me.Get("/invitations", deps.Users.MyInvitations)
	me.Post("/invitations/accept", deps.Users.AcceptInvitation)
	me.Post("/invitations/reject", deps.Users.RejectInvitation)

	api.Get("/users", deps.Users.ListUsers)
	api.Get("/users/:id", deps.Users.GetUser)
}

func setupTeamRoutes(api fiber.Router, deps Deps, protected, joinLimiter fiber.Handler) {
	teams := api.Group("/teams")
	teams.Get("/", deps.Teams.ListTeams)
	teams.Get("/:id", deps.Teams.GetTeam)

	teams.Post("/", protected, deps.Teams.CreateTeam)
	teams.Put("/:id", protected, deps.Teams.UpdateTeam)
	teams.Patch("/:id", protected, deps.Teams.UpdateTeam)
	teams.Delete("/:id", protected, deps.Teams.DeleteTeam)

	teams.Post("/:id/join", protected, joinLimiter, deps.Teams.Join)
	teams.Post("/:id/invite", protected, joinLimiter, deps.Teams.Invite)
	teams.Post("/:id/approve", protected, deps.Teams.Approve)
	teams.Post("/:id/reject", protected, deps.Teams.Reject)
	teams.Get("/:id/requests", protected, deps.Teams.Requests)
	teams.Get("/:id/members", protected, deps.Teams.Members)
	teams.Put("/:id/members/:memberID", protected, deps.Teams.UpdateMemberStatus)
	teams.Delete("/:id/members/:userID", protected, deps.Teams.RemoveMember)

	tasks := teams.Group("/:id/tasks", protected)
	tasks.Get("/", deps.Tasks.ListTasks)
	tasks.Post("/", deps.Tasks.CreateTask)
	tasks.Get("/:taskID", deps.Tasks.GetTask)
	tasks.Put("/:taskID", deps.Tasks.UpdateTask)
	tasks.Patch("/:taskID", deps.Tasks.UpdateTask)
	tasks.Delete("/:taskID", deps.Tasks.DeleteTask)
}

func setupNotificationRoutes(api fiber.Router, deps Deps, protected fiber.Handler) {
	notifications := api.Group("/notifications", protected)
	notifications.Get("/", deps.Notifications.List)
	notifications.Get("/unread-count", deps.Notifications.UnreadCount)
	notifications.Post("/read-all", deps.Notifications.MarkAllRead)
	notifications.Post("/:id/read", deps.Notifications.MarkRead)
	notifications.Delete("/:id", deps.Notifications.Delete)
	notifications.Get("/stream", deps.Notifications.UpgradeStream, websocket.New(deps.Notifications.Stream))
}
