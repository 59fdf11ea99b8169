package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the catalog and reviews.
type ProductHandler struct {
	productService *services.ProductService
	log            *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		log:            log.With(zap.String("handler", "product")),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, gates Gates) {
	validID := middleware.ValidateID("id")

	products := router.Group("/product")
	products.Get("/", h.HandleList)
	products.Post("/create", gates.Authenticated, h.HandleCreate)
	products.Get("/:id", validID, h.HandleGet)
	products.Put("/:id", gates.Authenticated, gates.Admin, validID, h.HandleUpdate)
	products.Delete("/:id", gates.Authenticated, gates.Admin, validID, h.HandleDelete)
	products.Post("/:id/review", gates.Authenticated, validID, h.HandleReview)
}

type CreateProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Price       *int64 `json:"price" validate:"required,gte=0"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

// ReviewRequest carries one review. The comment must be present but may be empty.
type ReviewRequest struct {
	Rating  *int    `json:"rating" validate:"required,min=1,max=10"`
	Comment *string `json:"comment" validate:"required"`
}

func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.productService.ListAll(c.UserContext())
	if err != nil {
		return writeError(c, h.log, "Could not list products", err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	product, err := h.productService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, "Could not get product", err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var req CreateProductRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	product, err := h.productService.Create(c.UserContext(), services.CreateProductInput{
		Name:        req.Name,
		Price:       *req.Price,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return writeError(c, h.log, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	var req UpdateProductRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	product, err := h.productService.Update(c.UserContext(), c.Params("id"), services.UpdateProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return writeError(c, h.log, "Could not update product", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(product)
}

func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	product, err := h.productService.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, "Could not delete product", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(product)
}

func (h *ProductHandler) HandleReview(c *fiber.Ctx) error {
	var req ReviewRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	product, err := h.productService.AddReview(c.UserContext(), c.Params("id"), services.ReviewInput{
		Rating:  *req.Rating,
		Comment: *req.Comment,
	})
	if err != nil {
		return writeError(c, h.log, "Could not add review", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(product)
}
