package controller

import (
	"errors"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/config"
	"github.com/xtayzy/uniCrew/models"
	"github.com/xtayzy/uniCrew/services"
	"github.com/xtayzy/uniCrew/utils"
	"gopkg.in/gomail.v2"
)

// MailQueue hands a message to the background mail worker
type MailQueue interface {
	Dispatch(m *gomail.Message) error
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type AuthResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         *models.Profile `json:"user,omitempty"`
}

type AuthController struct {
	Accounts *services.AccountService
	Profiles *services.ProfileService
	Mail     MailQueue
	Logger   *logrus.Entry
}

func NewAuthController(accounts *services.AccountService, profiles *services.ProfileService, mail MailQueue, logger *logrus.Entry) *AuthController {
	return &AuthController{
		Accounts: accounts,
		Profiles: profiles,
		Mail:     mail,
		Logger:   logger,
	}
}

func setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	secure := config.AppConfig.Environment == "production"
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  time.Now().Add(utils.AccessTokenTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(utils.RefreshTokenTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	user, err := ac.Accounts.Authenticate(c.UserContext(), req.Username, req.Password)
	if errors.Is(err, services.ErrBadCredentials) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid username or password", nil)
	}
	if err != nil {
		return utils.HandleServiceError(c, "login", err)
	}

	accessToken, refreshToken, err := utils.GenerateJWTToken(user)
	if err != nil {
		utils.LogError("token_generation", err, map[string]interface{}{"user_id": user.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate tokens", nil)
	}
	setAuthCookies(c, accessToken, refreshToken)

	profile := user.ToProfile(true)
	return c.JSON(utils.SuccessResponse(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &profile,
	}))
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.ClearCookie("access_token", "refresh_token")
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Logged out"}))
}

// RefreshToken accepts the refresh token from the body or the
// refresh_token cookie
func (ac *AuthController) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	_ = c.BodyParser(&req)
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies("refresh_token")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	claims, err := utils.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired refresh token", nil)
	}
	user, err := ac.Accounts.Refresh(c.UserContext(), claims.UserID, claims.TokenVersion)
	if errors.Is(err, services.ErrBadCredentials) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired refresh token", nil)
	}
	if err != nil {
		return utils.HandleServiceError(c, "refresh_token", err)
	}

	accessToken, refreshToken, err := utils.GenerateJWTToken(user)
	if err != nil {
		utils.LogError("token_generation", err, map[string]interface{}{"user_id": user.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate tokens", nil)
	}
	setAuthCookies(c, accessToken, refreshToken)

	return c.JSON(utils.SuccessResponse(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}))
}

func (ac *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	full, err := ac.Profiles.Get(c.UserContext(), user.ID)
	if err != nil {
		return utils.HandleServiceError(c, "current_user", err)
	}
	return c.JSON(utils.SuccessResponse(full.ToProfile(true)))
}

func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req services.ChangePasswordInput
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if err := ac.Accounts.ChangePassword(c.UserContext(), user, req); err != nil {
		return utils.HandleServiceError(c, "change_password", err)
	}

	// the old pair carries a stale token version
	accessToken, refreshToken, err := utils.GenerateJWTToken(user)
	if err != nil {
		utils.LogError("token_generation", err, map[string]interface{}{"user_id": user.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate tokens", nil)
	}
	setAuthCookies(c, accessToken, refreshToken)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message":       "Password changed successfully",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	}))
}

// PasswordReset issues a new password and mails it with the username.
// Delivery happens in the background.
func (ac *AuthController) PasswordReset(c *fiber.Ctx) error {
	var req PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email format", err)
	}

	user, password, err := ac.Accounts.ResetPassword(c.UserContext(), req.Email)
	if err != nil {
		return utils.HandleServiceError(c, "password_reset", err)
	}

	msg, err := utils.PasswordResetEmail(config.AppConfig.SMTP.From, user.Email, user.Username, password)
	if err != nil {
		utils.LogError("password_reset_email", err, map[string]interface{}{"user_id": user.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to prepare email", nil)
	}
	if err := ac.Mail.Dispatch(msg); err != nil {
		ac.Logger.WithError(err).WithField("user_id", user.ID).Warn("password reset mail not queued")
	}

	utils.LogEvent("password_reset", map[string]interface{}{"user_id": user.ID})
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Your username and a new password have been sent to your email",
	}))
}
