package server

import (
	"errors"
	"fmt"
	"strings"

	"healthagent"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy", "service": ServiceName})
}

func (s *Server) agnoRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "CopilotKit API is running"})
}

func (s *Server) listAgents(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"agents": s.agents})
}

func (s *Server) chat(c *fiber.Ctx) error {
	req := new(healthagent.ChatRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validateChat(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	resp := s.dispatcher.Dispatch(c.UserContext(), *req)
	return c.JSON(resp)
}

func (s *Server) validateChat(req *healthagent.ChatRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return validationMessage(verrs[0])
		}
		return err
	}
	if strings.TrimSpace(req.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

func validationMessage(fe validator.FieldError) error {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "max":
		return fmt.Errorf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}
