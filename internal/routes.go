package internal

import (
	"net/http"

	"github.com/borkya1/smart-gallery/internal/controllers"
	"github.com/borkya1/smart-gallery/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController, authController *controllers.AuthController, healthController *controllers.HealthController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/{$}", http.HandlerFunc(healthController.Root))
	routers.Post("/upload", http.HandlerFunc(apiController.Upload))
	routers.Get("/images", http.HandlerFunc(apiController.GetImages))
	routers.Get("/images/{filename}", http.HandlerFunc(apiController.GetImage))
	routers.Get("/search", http.HandlerFunc(apiController.Search))
	routers.Post("/auth/send-otp", http.HandlerFunc(authController.SendOtp))
	routers.Post("/auth/verify-otp", http.HandlerFunc(authController.VerifyOtp))
	return routers
}
