package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"personapi/internal/apperr"
	"personapi/internal/model"
	"personapi/internal/service"
)

// PersonRequest is the body accepted by create and update. Server-assigned
// fields (id, createdAt, updatedAt) are not part of it and are ignored if sent.
type PersonRequest struct {
	Name  string  `json:"name" example:"Ana"`
	Age   int     `json:"age" example:"30"`
	Email string  `json:"email" example:"ana@x.com"`
	Phone *string `json:"phone,omitempty" example:"+1 555 0100"`
}

func (r PersonRequest) toModel() model.Person {
	return model.Person{Name: r.Name, Age: r.Age, Email: r.Email, Phone: r.Phone}
}

// CreatedResponse is returned by a successful create.
type CreatedResponse struct {
	Message string        `json:"message" example:"Person created"`
	Person  *model.Person `json:"person"`
}

// MessageResponse is returned by a successful delete.
type MessageResponse struct {
	Message string `json:"message" example:"Person deleted"`
}

// CreatePerson godoc
// @Summary Create a person
// @Tags persons
// @Accept json
// @Produce json
// @Param person body PersonRequest true "Person to create"
// @Success 200 {object} CreatedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /person [post]
func CreatePerson(svc service.PersonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseBody(c)
		if err != nil {
			return err
		}
		p, err := svc.CreatePerson(c.UserContext(), req.toModel())
		if err != nil {
			return err
		}
		return c.JSON(CreatedResponse{Message: "Person created", Person: p})
	}
}

// ListPersons godoc
// @Summary List persons
// @Description Returns every person, or only those whose name equals the name query parameter.
// @Tags persons
// @Produce json
// @Param name query string false "Exact name to match"
// @Success 200 {array} model.Person
// @Failure 500 {object} ErrorResponse
// @Router /person [get]
func ListPersons(svc service.PersonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			items []model.Person
			err   error
		)
		if name := c.Query("name"); name != "" {
			items, err = svc.GetPersonsByName(c.UserContext(), name)
		} else {
			items, err = svc.GetAllPersons(c.UserContext())
		}
		if err != nil {
			return err
		}
		if items == nil {
			items = []model.Person{}
		}
		return c.JSON(items)
	}
}

// GetPerson godoc
// @Summary Get a person by id
// @Tags persons
// @Produce json
// @Param id path int true "Person ID"
// @Success 200 {object} model.Person
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /person/{id} [get]
func GetPerson(svc service.PersonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		p, found, err := svc.GetPersonByID(c.UserContext(), id)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NewNotFound(MsgPersonNotFound)
		}
		return c.JSON(p)
	}
}

// UpdatePerson godoc
// @Summary Update a person
// @Tags persons
// @Accept json
// @Produce json
// @Param id path int true "Person ID"
// @Param person body PersonRequest true "New values"
// @Success 200 {object} model.Person
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /person/{id} [put]
func UpdatePerson(svc service.PersonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		req, err := parseBody(c)
		if err != nil {
			return err
		}
		p, found, err := svc.UpdatePerson(c.UserContext(), id, req.toModel())
		if err != nil {
			return err
		}
		if !found {
			return apperr.NewNotFound(MsgPersonNotFound)
		}
		return c.JSON(p)
	}
}

// DeletePerson godoc
// @Summary Delete a person
// @Tags persons
// @Produce json
// @Param id path int true "Person ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /person/{id} [delete]
func DeletePerson(svc service.PersonService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		ok, err := svc.DeletePerson(c.UserContext(), id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NewNotFound(MsgPersonNotFound)
		}
		return c.JSON(MessageResponse{Message: "Person deleted"})
	}
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NewValidation(MsgInvalidID)
	}
	return id, nil
}

// parseBody rejects empty and undecodable bodies before the service is called.
func parseBody(c *fiber.Ctx) (PersonRequest, error) {
	var req PersonRequest
	if len(c.Body()) == 0 {
		return req, apperr.NewValidation(MsgMalformedBody)
	}
	if err := c.BodyParser(&req); err != nil {
		return req, apperr.Wrap(apperr.Validation, MsgMalformedBody, err)
	}
	return req, nil
}
