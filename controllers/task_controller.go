package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"github.com/xtayzy/uniCrew/services"
	"github.com/xtayzy/uniCrew/utils"
)

type TaskController struct {
	Tasks  *services.TaskService
	Logger *logrus.Entry
}

func NewTaskController(tasks *services.TaskService, logger *logrus.Entry) *TaskController {
	return &TaskController{Tasks: tasks, Logger: logger}
}

func taskViews(tasks []models.Task) []models.TaskView {
	out := make([]models.TaskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, tasks[i].View())
	}
	return out
}

func taskIDs(c *fiber.Ctx) (uint, uint, error) {
	team, err := teamID(c)
	if err != nil {
		return 0, 0, err
	}
	task, err := utils.ParamID(c, "taskID")
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Invalid task ID")
	}
	return team, task, nil
}

// ListTasks shows the creator every task and other users only theirs
func (tc *TaskController) ListTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}
	tasks, err := tc.Tasks.List(c.UserContext(), user, id)
	if err != nil {
		return utils.HandleServiceError(c, "list_tasks", err)
	}
	return c.JSON(utils.SuccessResponse(taskViews(tasks)))
}

func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	team, task, err := taskIDs(c)
	if err != nil {
		return err
	}
	t, err := tc.Tasks.Get(c.UserContext(), user, team, task)
	if err != nil {
		return utils.HandleServiceError(c, "get_task", err)
	}
	return c.JSON(utils.SuccessResponse(t.View()))
}

func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := teamID(c)
	if err != nil {
		return err
	}

	var input services.TaskInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	task, err := tc.Tasks.Create(c.UserContext(), user, id, input)
	if err != nil {
		return utils.HandleServiceError(c, "create_task", err)
	}
	tc.Logger.WithFields(logrus.Fields{
		"operation": "create_task",
		"team_id":   id,
		"task_id":   task.ID,
	}).Debug("task created through API")
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(task.View()))
}

// UpdateTask serves both PUT and PATCH. Only fields present in the body
// are applied.
func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	team, task, err := taskIDs(c)
	if err != nil {
		return err
	}

	var patch services.TaskPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	t, err := tc.Tasks.Update(c.UserContext(), user, team, task, patch)
	if err != nil {
		return utils.HandleServiceError(c, "update_task", err)
	}
	return c.JSON(utils.SuccessResponse(t.View()))
}

func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	team, task, err := taskIDs(c)
	if err != nil {
		return err
	}
	if err := tc.Tasks.Delete(c.UserContext(), user, team, task); err != nil {
		return utils.HandleServiceError(c, "delete_task", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
