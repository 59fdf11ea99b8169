package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler serves user administration.
type UserHandler struct {
	userService *services.UserService
	log         *zap.Logger
}

func NewUserHandler(userService *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log.With(zap.String("handler", "user")),
	}
}

// RegisterRoutes mounts the /user routes. All of them are admin only.
func (h *UserHandler) RegisterRoutes(router fiber.Router, gates Gates) {
	users := router.Group("/user", gates.Authenticated, gates.Admin)
	users.Get("/", h.HandleList)
	users.Put("/:id", middleware.ValidateID("id"), h.HandleUpdate)
	users.Delete("/:id", middleware.ValidateID("id"), h.HandleDelete)
}

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
}

func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	users, err := h.userService.ListAll(c.UserContext())
	if err != nil {
		return writeError(c, h.log, "Could not list users", err)
	}

	out := make([]models.User, len(users))
	for i := range users {
		out[i] = users[i].Redacted()
	}
	return c.JSON(out)
}

func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	in := services.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		in.Role = &role
	}

	user, err := h.userService.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, "Could not update user", err)
	}
	return c.JSON(user.Redacted())
}

func (h *UserHandler) HandleDelete(c *fiber.Ctx) error {
	user, err := h.userService.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, "Could not delete user", err)
	}
	return c.JSON(user.Redacted())
}
