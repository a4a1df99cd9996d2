package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"github.com/xtayzy/uniCrew/services"
	"github.com/xtayzy/uniCrew/utils"
)

type JoinRequest struct {
	Message string `json:"message" validate:"max=1000"`
}

type InviteRequest struct {
	UserID  uint   `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"max=1000"`
}

type MemberStatusRequest struct {
	Status models.MemberStatus `json:"status" validate:"required,oneof=PENDING INVITED APPROVED REJECTED"`
}

type TeamController struct {
	Teams       *services.TeamService
	Memberships *services.MembershipService
	Logger      *logrus.Entry
}

func NewTeamController(teams *services.TeamService, memberships *services.MembershipService, logger *logrus.Entry) *TeamController {
	return &TeamController{
		Teams:       teams,
		Memberships: memberships,
		Logger:      logger,
	}
}

func teamID(c *fiber.Ctx) (uint, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid team ID")
	}
	return id, nil
}

func (tc *TeamController) ListTeams(c *fiber.Ctx) error {
	page, limit := pagination(c)
	teams, total, err := tc.Teams.List(c.UserContext(), page, limit)
	if err != nil {
		return utils.HandleServiceError(c, "list_teams", err)
	}
	views := make([]models.TeamView, 0, len(teams))
	for i := range teams {
		views = append(views, teams[i].View())
	}
	return c.JSON(utils.SuccessResponse(utils.PaginatedResponse{
		Data:  views,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	id, err := teamID(c)
	if err != nil {
		return err
	}
	team, err := tc.Teams.Get(c.UserContext(), id)
	if err != nil {
		return utils.HandleServiceError(c, "get_team", err)
	}
	return c.JSON(utils.SuccessResponse(team.View()))
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input services.TeamInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	team, err := tc.Teams.Create(c.UserContext(), user, input)
	if err != nil {
		return utils.HandleServiceError(c, "create_team", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(team.View()))
}

func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}

	var patch services.TeamPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	team, err := tc.Teams.Update(c.UserContext(), user, id, patch)
	if err != nil {
		return utils.HandleServiceError(c, "update_team", err)
	}
	return c.JSON(utils.SuccessResponse(team.View()))
}

func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}
	if err := tc.Teams.Delete(c.UserContext(), user, id); err != nil {
		return utils.HandleServiceError(c, "delete_team", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (tc *TeamController) Join(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}

	var req JoinRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	member, err := tc.Memberships.RequestJoin(c.UserContext(), user, id, req.Message)
	if err != nil {
		return utils.HandleServiceError(c, "join_team", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"message": "Join request sent",
		"member":  member.View(),
	}))
}

func (tc *TeamController) Invite(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}

	var req InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	member, err := tc.Memberships.Invite(c.UserContext(), user, id, req.UserID, req.Message)
	if err != nil {
		return utils.HandleServiceError(c, "invite_member", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"message": "Invitation sent",
		"member":  member.View(),
	}))
}

func (tc *TeamController) Requests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}
	rows, err := tc.Memberships.ListRequests(c.UserContext(), user, id)
	if err != nil {
		return utils.HandleServiceError(c, "team_requests", err)
	}
	return c.JSON(utils.SuccessResponse(memberViews(rows)))
}

func (tc *TeamController) Members(c *fiber.Ctx) error {
	id, err := teamID(c)
	if err != nil {
		return err
	}
	rows, err := tc.Memberships.ListMembers(c.UserContext(), id)
	if err != nil {
		return utils.HandleServiceError(c, "team_members", err)
	}
	return c.JSON(utils.SuccessResponse(memberViews(rows)))
}

func (tc *TeamController) Approve(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}
	memberID, err := parseMemberRequest(c)
	if err != nil {
		return err
	}
	member, err := tc.Memberships.Approve(c.UserContext(), user, id, memberID)
	if err != nil {
		return utils.HandleServiceError(c, "approve_request", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Request approved",
		"member":  member.View(),
	}))
}

func (tc *TeamController) Reject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}
	memberID, err := parseMemberRequest(c)
	if err != nil {
		return err
	}
	member, err := tc.Memberships.Reject(c.UserContext(), user, id, memberID)
	if err != nil {
		return utils.HandleServiceError(c, "reject_request", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Request rejected",
		"member":  member.View(),
	}))
}

func (tc *TeamController) UpdateMemberStatus(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}
	memberID, err := utils.ParamID(c, "memberID")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid member ID", nil)
	}

	var req MemberStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	member, err := tc.Memberships.UpdateMemberStatus(c.UserContext(), user, id, memberID, req.Status)
	if err != nil {
		return utils.HandleServiceError(c, "update_member_status", err)
	}
	return c.JSON(utils.SuccessResponse(member.View()))
}

func (tc *TeamController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}
	userID, err := utils.ParamID(c, "userID")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", nil)
	}
	if err := tc.Memberships.RemoveMember(c.UserContext(), user, id, userID); err != nil {
		return utils.HandleServiceError(c, "remove_member", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Member removed"}))
}
