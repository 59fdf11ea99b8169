package handlers

import "github.com/gofiber/fiber/v2"

// Gates are the authorization middlewares handlers attach to their routes.
type Gates struct {
	Authenticated fiber.Handler
	Admin         fiber.Handler
}
