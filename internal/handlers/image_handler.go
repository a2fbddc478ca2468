package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vsrfleet/inspection-backend/internal/dto"
	"github.com/vsrfleet/inspection-backend/internal/middleware"
	"github.com/vsrfleet/inspection-backend/internal/services"
)

// ImageHandler serves photo upload and retrieval for inspections.
type ImageHandler struct {
	photos *services.PhotoService
}

func NewImageHandler(photos *services.PhotoService) *ImageHandler {
	return &ImageHandler{photos: photos}
}

// Upload accepts a multipart form with a single "photo" file and stores it
// for the inspection in the path.
func (h *ImageHandler) Upload(c *fiber.Ctx) error {
	inspectionID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid inspection ID",
		})
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "A 'photo' file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer file.Close()

	userID, _ := middleware.Identity(c)
	image, err := h.photos.Upload(c.UserContext(), inspectionID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"),
		file, fileHeader.Size, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Photo uploaded successfully",
		"photo":   image,
	})
}

func (h *ImageHandler) List(c *fiber.Ctx) error {
	inspectionID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid inspection ID",
		})
	}

	images, err := h.photos.List(c.UserContext(), inspectionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(images)
}

func (h *ImageHandler) Delete(c *fiber.Ctx) error {
	photoID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid photo ID",
		})
	}

	if err := h.photos.Delete(c.UserContext(), photoID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Photo deleted successfully"})
}

// FreshURL hands out a URL that is valid right now: presigned for private
// photos, the stored public URL otherwise.
func (h *ImageHandler) FreshURL(c *fiber.Ctx) error {
	photoID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid photo ID",
		})
	}

	resp, err := h.photos.FreshURL(c.UserContext(), photoID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
