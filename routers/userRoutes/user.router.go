package userProfileRoutes

import (
	userProfileController "odl/controllers/userControllers"
	"odl/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/user")

	userGroup.Get("/profile", middleware.JWTMiddleware, userProfileController.GetProfile)
	userGroup.Put("/profile", middleware.JWTMiddleware, userProfileController.UpdateProfile)
	userGroup.Post("/profile/image", middleware.JWTMiddleware, userProfileController.UploadProfileImage)
}
