package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"github.com/xtayzy/uniCrew/services"
	"github.com/xtayzy/uniCrew/utils"
)

type NameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CatalogController struct {
	Catalog *services.CatalogService
	Logger  *logrus.Entry
}

func NewCatalogController(catalog *services.CatalogService, logger *logrus.Entry) *CatalogController {
	return &CatalogController{Catalog: catalog, Logger: logger}
}

func parseName(c *fiber.Ctx) (string, error) {
	var req NameRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req.Name, nil
}

func itemID(c *fiber.Ctx) (uint, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid ID")
	}
	return id, nil
}

// NamedHandlers are the list/create/update/delete handlers of one
// name-only catalog table
type NamedHandlers struct {
	List   fiber.Handler
	Create fiber.Handler
	Update fiber.Handler
	Delete fiber.Handler
}

// Named builds the handlers for catalog table T. what names the row in
// error messages.
func Named[T services.Named](cc *CatalogController, what string) NamedHandlers {
	return NamedHandlers{
		List: func(c *fiber.Ctx) error {
			rows, err := services.ListNamed[T](c.UserContext(), cc.Catalog)
			if err != nil {
				return utils.HandleServiceError(c, "list_"+what, err)
			}
			return c.JSON(utils.SuccessResponse(rows))
		},
		Create: func(c *fiber.Ctx) error {
			name, err := parseName(c)
			if err != nil {
				return err
			}
			row, err := services.CreateNamed[T](c.UserContext(), cc.Catalog, name, what)
			if err != nil {
				return utils.HandleServiceError(c, "create_"+what, err)
			}
			return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(row))
		},
		Update: func(c *fiber.Ctx) error {
			id, err := itemID(c)
			if err != nil {
				return err
			}
			name, err := parseName(c)
			if err != nil {
				return err
			}
			row, err := services.RenameNamed[T](c.UserContext(), cc.Catalog, id, name, what)
			if err != nil {
				return utils.HandleServiceError(c, "update_"+what, err)
			}
			return c.JSON(utils.SuccessResponse(row))
		},
		Delete: func(c *fiber.Ctx) error {
			id, err := itemID(c)
			if err != nil {
				return err
			}
			if err := services.DeleteNamed[T](c.UserContext(), cc.Catalog, id, what); err != nil {
				return utils.HandleServiceError(c, "delete_"+what, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	}
}

func (cc *CatalogController) ListSchools(c *fiber.Ctx) error {
	schools, err := cc.Catalog.Schools(c.UserContext())
	if err != nil {
		return utils.HandleServiceError(c, "list_schools", err)
	}
	return c.JSON(utils.SuccessResponse(schools))
}

func (cc *CatalogController) ListFaculties(c *fiber.Ctx) error {
	faculties, err := cc.Catalog.Faculties(c.UserContext(), nil)
	if err != nil {
		return utils.HandleServiceError(c, "list_faculties", err)
	}
	return c.JSON(utils.SuccessResponse(faculties))
}

func (cc *CatalogController) CreateFaculty(c *fiber.Ctx) error {
	var input services.FacultyInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	faculty, err := cc.Catalog.CreateFaculty(c.UserContext(), input)
	if err != nil {
		return utils.HandleServiceError(c, "create_faculty", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(faculty))
}

func (cc *CatalogController) UpdateFaculty(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	var input services.FacultyInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	faculty, err := cc.Catalog.UpdateFaculty(c.UserContext(), id, input)
	if err != nil {
		return utils.HandleServiceError(c, "update_faculty", err)
	}
	return c.JSON(utils.SuccessResponse(faculty))
}

func (cc *CatalogController) DeleteFaculty(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	if err := cc.Catalog.DeleteFaculty(c.UserContext(), id); err != nil {
		return utils.HandleServiceError(c, "delete_faculty", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (cc *CatalogController) ListCustomSkills(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	rows, err := cc.Catalog.CustomSkills(c.UserContext(), user)
	if err != nil {
		return utils.HandleServiceError(c, "list_custom_skills", err)
	}
	return c.JSON(utils.SuccessResponse(rows))
}

func (cc *CatalogController) CreateCustomSkill(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	name, err := parseName(c)
	if err != nil {
		return err
	}
	row, err := cc.Catalog.AddCustomSkill(c.UserContext(), user, name)
	if err != nil {
		return utils.HandleServiceError(c, "create_custom_skill", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(row))
}

func (cc *CatalogController) UpdateCustomSkill(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := itemID(c)
	if err != nil {
		return err
	}
	name, err := parseName(c)
	if err != nil {
		return err
	}
	row, err := cc.Catalog.RenameCustomSkill(c.UserContext(), user, id, name)
	if err != nil {
		return utils.HandleServiceError(c, "update_custom_skill", err)
	}
	return c.JSON(utils.SuccessResponse(row))
}

func (cc *CatalogController) DeleteCustomSkill(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := itemID(c)
	if err != nil {
		return err
	}
	if err := cc.Catalog.DeleteCustomSkill(c.UserContext(), user, id); err != nil {
		return utils.HandleServiceError(c, "delete_custom_skill", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (cc *CatalogController) ListCustomQualities(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	rows, err := cc.Catalog.CustomQualities(c.UserContext(), user)
	if err != nil {
		return utils.HandleServiceError(c, "list_custom_qualities", err)
	}
	return c.JSON(utils.SuccessResponse(rows))
}

func (cc *CatalogController) CreateCustomQuality(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	name, err := parseName(c)
	if err != nil {
		return err
	}
	row, err := cc.Catalog.AddCustomQuality(c.UserContext(), user, name)
	if err != nil {
		return utils.HandleServiceError(c, "create_custom_quality", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(row))
}

func (cc *CatalogController) UpdateCustomQuality(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := itemID(c)
	if err != nil {
		return err
	}
	name, err := parseName(c)
	if err != nil {
		return err
	}
	row, err := cc.Catalog.RenameCustomQuality(c.UserContext(), user, id, name)
	if err != nil {
		return utils.HandleServiceError(c, "update_custom_quality", err)
	}
	return c.JSON(utils.SuccessResponse(row))
}

func (cc *CatalogController) DeleteCustomQuality(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := itemID(c)
	if err != nil {
		return err
	}
	if err := cc.Catalog.DeleteCustomQuality(c.UserContext(), user, id); err != nil {
		return utils.HandleServiceError(c, "delete_custom_quality", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
