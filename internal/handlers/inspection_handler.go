package handlers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/vsrfleet/inspection-backend/internal/dto"
	"github.com/vsrfleet/inspection-backend/internal/middleware"
	"github.com/vsrfleet/inspection-backend/internal/services"
)

var validate = validator.New()

type InspectionHandler struct {
	inspections *services.InspectionService
}

func NewInspectionHandler(inspections *services.InspectionService) *InspectionHandler {
	return &InspectionHandler{inspections: inspections}
}

func (h *InspectionHandler) Create(c *fiber.Ctx) error {
	userID, email := middleware.Identity(c)

	var req dto.CreateInspectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "vehicle is required",
		})
	}

	inspection, photosStored, err := h.inspections.Create(c.UserContext(), userID, email, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateInspectionResponse{
		Message:        "Inspection created successfully",
		Inspection:     inspection,
		PhotosUploaded: photosStored,
	})
}

func (h *InspectionHandler) ListMine(c *fiber.Ctx) error {
	userID, email := middleware.Identity(c)

	inspections, err := h.inspections.ListByOwner(c.UserContext(), userID, email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inspections)
}

func (h *InspectionHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid inspection ID",
		})
	}

	userID, email := middleware.Identity(c)
	inspection, err := h.inspections.GetByID(c.UserContext(), id, userID, email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inspection)
}

func (h *InspectionHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid inspection ID",
		})
	}

	if err := h.inspections.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Inspection deleted successfully"})
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
