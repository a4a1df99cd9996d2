package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/config"
	controller "github.com/xtayzy/uniCrew/controllers"
	"github.com/xtayzy/uniCrew/middleware"
	"github.com/xtayzy/uniCrew/routes"
	"github.com/xtayzy/uniCrew/services"
	"github.com/xtayzy/uniCrew/utils"
	"github.com/xtayzy/uniCrew/worker"
)

func main() {
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	config.InitLogger()

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logrus.WithError(err).Warn("Sentry initialization failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := config.ConnectDB(); err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	component := func(name string) *logrus.Entry {
		return logrus.WithField("component", name)
	}

	smtp := config.AppConfig.SMTP
	mailer := worker.NewMailDispatcher(
		worker.NewSMTPSender(smtp.Host, smtp.Port, smtp.Username, smtp.Password),
		config.AppConfig.MailQueueSize,
		component("mail"),
	)
	go mailer.Start(ctx)

	hub := services.NewHub(component("hub"))
	notifier := services.NewNotifier(hub, component("notifier"))

	accounts := services.NewAccountService(config.DB, component("accounts"))
	profiles := services.NewProfileService(config.DB, component("profiles"))
	catalog := services.NewCatalogService(config.DB, component("catalog"))
	teams := services.NewTeamService(config.DB, component("teams"))
	memberships := services.NewMembershipService(config.DB, notifier, component("memberships"))
	tasks := services.NewTaskService(config.DB, notifier, component("tasks"))
	inbox := services.NewInboxService(config.DB, hub, component("inbox"))

	app := fiber.New(fiber.Config{
		AppName:      "UniCrew",
		ErrorHandler: utils.FiberErrorHandler,
	})
	app.Use(recover.New())
	app.Use(middleware.CORS(middleware.CORSFromOrigins(config.AppConfig.AllowedOrigins)))

	routes.SetupRoutes(app, routes.Deps{
		DB:               config.DB,
		Auth:             controller.NewAuthController(accounts, profiles, mailer, component("auth")),
		Users:            controller.NewUserController(profiles, memberships, component("users")),
		Catalog:          controller.NewCatalogController(catalog, component("catalog")),
		Teams:            controller.NewTeamController(teams, memberships, component("teams")),
		Tasks:            controller.NewTaskController(tasks, component("tasks")),
		Notifications:    controller.NewNotificationController(inbox, hub, component("notifications")),
		RateLimitStorage: middleware.NewRateLimitStorage(config.AppConfig.Redis),
		JoinLimit:        config.AppConfig.RateLimitJoin,
		ResetLimit:       config.AppConfig.RateLimitReset,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logrus.Info("Shutting down server...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Error("Server shutdown failed")
		}
	}()

	logrus.Infof("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
