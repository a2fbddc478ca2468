package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/vsrfleet/inspection-backend/internal/config"
	"github.com/vsrfleet/inspection-backend/internal/dto"
)

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// Identity extracts the caller's provider-issued user id and email from the
// verified JWT. The email claim is optional; tokens minted before the email
// scope was added simply don't carry it.
func Identity(c *fiber.Ctx) (userID string, email string) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ""
	}
	if sub, ok := claims["sub"].(string); ok {
		userID = sub
	}
	if em, ok := claims["email"].(string); ok {
		email = em
	}
	return userID, email
}
