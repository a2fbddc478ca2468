package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vsrfleet/inspection-backend/internal/dto"
	"github.com/vsrfleet/inspection-backend/internal/middleware"
	"github.com/vsrfleet/inspection-backend/internal/services"
)

// AdminHandler serves the /api/admin surface: user management, the full
// inspection list, reports and remediation tools.
type AdminHandler struct {
	identity    *services.IdentityService
	inspections *services.InspectionService
	admin       *services.AdminService
}

func NewAdminHandler(identity *services.IdentityService, inspections *services.InspectionService, admin *services.AdminService) *AdminHandler {
	return &AdminHandler{identity: identity, inspections: inspections, admin: admin}
}

func (h *AdminHandler) Bootstrap(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	var req dto.BootstrapRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "email and secret_key are required",
		})
	}

	user, err := h.identity.BootstrapFirstAdmin(c.UserContext(), userID, req.Email, req.SecretKey)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "First admin created successfully",
		"user":    user,
	})
}

func (h *AdminHandler) Status(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	status, err := h.identity.AdminStatus(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	users, err := h.identity.ListUsers(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)
	targetID := c.Params("id")

	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "role must be 'user' or 'admin'",
		})
	}

	user, err := h.identity.UpdateUserRole(c.UserContext(), userID, targetID, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "User role updated successfully",
		"user":    user,
	})
}

func (h *AdminHandler) Promote(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	var req dto.PromoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "a valid email is required",
		})
	}

	user, outcome, err := h.identity.PromoteByEmail(c.UserContext(), userID, req.Email)
	if err != nil {
		return respondError(c, err)
	}

	messages := map[string]string{
		services.PromoteOutcomeCreated:      "Admin user pre-provisioned; the grant activates on first login",
		services.PromoteOutcomeAlreadyAdmin: "User is already an admin",
		services.PromoteOutcomePromoted:     "User promoted to admin",
	}
	return c.JSON(dto.PromoteResponse{
		Message: messages[outcome],
		User:    user,
		Outcome: outcome,
	})
}

func (h *AdminHandler) MergeDuplicates(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	result, err := h.identity.MergeDuplicateIdentities(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *AdminHandler) BackfillEmails(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	var req dto.BackfillEmailsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "updates must be a non-empty list of {user_id, email}",
		})
	}

	updates := make([]services.EmailUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, services.EmailUpdate{UserID: u.UserID, Email: u.Email})
	}

	count, errs, err := h.identity.BackfillEmails(c.UserContext(), userID, updates)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BackfillEmailsResponse{
		Message:      "Email backfill completed",
		UpdatedCount: count,
		Errors:       errs,
	})
}

func (h *AdminHandler) ListInspections(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	inspections, err := h.inspections.AdminList(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inspections)
}

func (h *AdminHandler) GetInspection(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid inspection ID",
		})
	}

	userID, _ := middleware.Identity(c)
	inspection, err := h.inspections.AdminGet(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inspection)
}

func (h *AdminHandler) UpdateInspection(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid inspection ID",
		})
	}

	var req dto.UpdateInspectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	userID, _ := middleware.Identity(c)
	inspection, err := h.inspections.Update(c.UserContext(), userID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Inspection updated successfully",
		"inspection": inspection,
	})
}

func (h *AdminHandler) DeleteInspection(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid inspection ID",
		})
	}

	userID, _ := middleware.Identity(c)
	if err := h.inspections.AdminDelete(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Inspection deleted successfully"})
}

func (h *AdminHandler) DefectReport(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	report, err := h.admin.DefectFrequencyReport(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	stats, err := h.admin.Stats(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
