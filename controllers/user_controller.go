package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"github.com/xtayzy/uniCrew/services"
	"github.com/xtayzy/uniCrew/utils"
)

// MemberRequest identifies one membership row in the body
type MemberRequest struct {
	MemberID uint `json:"member_id" validate:"required"`
}

type UserController struct {
	Profiles    *services.ProfileService
	Memberships *services.MembershipService
	Logger      *logrus.Entry
}

func NewUserController(profiles *services.ProfileService, memberships *services.MembershipService, logger *logrus.Entry) *UserController {
	return &UserController{
		Profiles:    profiles,
		Memberships: memberships,
		Logger:      logger,
	}
}

func pagination(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func profiles(users []models.User) []models.Profile {
	out := make([]models.Profile, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToProfile(false))
	}
	return out
}

func memberViews(members []models.TeamMember) []models.MemberView {
	out := make([]models.MemberView, 0, len(members))
	for i := range members {
		out = append(out, members[i].View())
	}
	return out
}

func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	full, err := uc.Profiles.Get(c.UserContext(), user.ID)
	if err != nil {
		return utils.HandleServiceError(c, "get_profile", err)
	}
	return c.JSON(utils.SuccessResponse(full.ToProfile(true)))
}

func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input services.ProfileInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	updated, err := uc.Profiles.Update(c.UserContext(), user, input)
	if err != nil {
		return utils.HandleServiceError(c, "update_profile", err)
	}
	return c.JSON(utils.SuccessResponse(updated.ToProfile(true)))
}

func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	page, limit := pagination(c)
	users, total, err := uc.Profiles.List(c.UserContext(), page, limit)
	if err != nil {
		return utils.HandleServiceError(c, "list_users", err)
	}
	return c.JSON(utils.SuccessResponse(utils.PaginatedResponse{
		Data:  profiles(users),
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", nil)
	}
	user, err := uc.Profiles.Get(c.UserContext(), id)
	if err != nil {
		return utils.HandleServiceError(c, "get_user", err)
	}
	return c.JSON(utils.SuccessResponse(user.ToProfile(false)))
}

func (uc *UserController) MyRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	rows, err := uc.Memberships.MyRequests(c.UserContext(), user)
	if err != nil {
		return utils.HandleServiceError(c, "my_requests", err)
	}
	return c.JSON(utils.SuccessResponse(memberViews(rows)))
}

func (uc *UserController) MyInvitations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	rows, err := uc.Memberships.MyInvitations(c.UserContext(), user)
	if err != nil {
		return utils.HandleServiceError(c, "my_invitations", err)
	}
	return c.JSON(utils.SuccessResponse(memberViews(rows)))
}

// parseMemberRequest returns a *fiber.Error for a bad body, rendered by
// the app error handler
func parseMemberRequest(c *fiber.Ctx) (uint, error) {
	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req.MemberID, nil
}

func (uc *UserController) AcceptInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	memberID, err := parseMemberRequest(c)
	if err != nil {
		return err
	}
	member, err := uc.Memberships.AcceptInvitation(c.UserContext(), user, memberID)
	if err != nil {
		return utils.HandleServiceError(c, "accept_invitation", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Invitation accepted",
		"member":  member.View(),
	}))
}

func (uc *UserController) RejectInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	memberID, err := parseMemberRequest(c)
	if err != nil {
		return err
	}
	member, err := uc.Memberships.RejectInvitation(c.UserContext(), user, memberID)
	if err != nil {
		return utils.HandleServiceError(c, "reject_invitation", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Invitation rejected",
		"member":  member.View(),
	}))
}

func (uc *UserController) CancelRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	memberID, err := parseMemberRequest(c)
	if err != nil {
		return err
	}
	if err := uc.Memberships.CancelRequest(c.UserContext(), user, memberID); err != nil {
		return utils.HandleServiceError(c, "cancel_request", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Request cancelled"}))
}
