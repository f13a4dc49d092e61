// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	// Init swagger doc
	_ "ResumeForge-backend/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"ResumeForge-backend/internal/aikey"
	"ResumeForge-backend/internal/auth"
	"ResumeForge-backend/internal/controller/admin"
	"ResumeForge-backend/internal/controller/ai"
	"ResumeForge-backend/internal/controller/ats"
	"ResumeForge-backend/internal/controller/file"
	"ResumeForge-backend/internal/controller/profile"
	"ResumeForge-backend/internal/controller/resume"
	"ResumeForge-backend/internal/middleware"
	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/payment"
)

// RegisterRoutes will register each http endpoint routes to bound MyServer instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.Default()

	allowOrginsStr := os.Getenv("ALLOW_ORIGIN")
	allowOrgins := strings.Split(allowOrginsStr, ",")

	googleOauth := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_AUTH_CLIENT"),
		ClientSecret: os.Getenv("GOOGLE_AUTH_SECRET"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/userinfo.openid",
		},
		Endpoint:    google.Endpoint,
		RedirectURL: os.Getenv("OAUTH_REDIRECT_URL"),
	}

	var storage file.StorageClient
	if bucket := os.Getenv("BUCKET_NAME"); bucket != "" {
		cloudStorage, err := file.NewCloudStorageClient(bucket)
		if err != nil {
			log.Fatalf("Failed to create cloud storage client: %s", err)
		}
		storage = cloudStorage
	}

	gAuth := auth.NewOauthLoginHandler(s.DB, googleOauth, "https://www.googleapis.com/oauth2/v2/userinfo")
	lAuth := auth.NewLocalAuthHandler(s.DB)
	logout := auth.NewLogoutController(s.BlacklistStore)
	profileController := profile.NewProfileController(s.DB)
	resumeController := resume.NewResumeController(s.DB)
	atsController := ats.NewATSController(s.DB)
	paymentController := payment.NewPaymentController(s.DB)
	aiController := ai.NewAIController(s.DB)
	fileController := file.NewFileController(s.DB, storage)
	adminController := admin.NewAdminController(s.DB)
	keyController := aikey.NewKeyController(s.DB)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrgins, // Add your frontend URL
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true, // Enable cookies/auth
	}))
	r.Use(middleware.EnvRateLimitMiddleware())

	r.GET("/", s.HelloWorldHandler)
	r.GET("/health", s.healthHandler)
	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.POST("google/applicant", gAuth.ApplicantGoogleLoginHandler)
			authRoute.POST("google/recruiter", gAuth.RecruiterGoogleLoginHandler)
			authRoute.GET("google/callback", gAuth.Callback)

			authRoute.POST("login", lAuth.LocalLoginHandler)
			authRoute.POST("register", lAuth.LocalRegisterHandler)
		}

		// Template gallery is browsable without an account
		v1.GET("/templates", resumeController.ListTemplatesHandler)
		v1.GET("/templates/:slug", resumeController.GetTemplateHandler)

		needAuth := v1.Group("")
		{
			needAuth.Use(middleware.RequireAuth(s.DB), middleware.JwtBlacklistCheck(s.BlacklistStore))

			needAuth.POST("/auth/logout", logout.LogoutHandler)

			needAuth.GET("/profile", profileController.GetMyProfileHandler)
			needAuth.PUT("/profile", profileController.UpdateMyProfileHandler)

			resumeRoute := needAuth.Group("/resume")
			{
				resumeRoute.POST("", resumeController.CreateResumeHandler)
				resumeRoute.GET("", resumeController.ListMyResumesHandler)
				resumeRoute.GET(":id", resumeController.GetResumeHandler)
				resumeRoute.PATCH(":id", resumeController.UpdateResumeHandler)
				resumeRoute.DELETE(":id", resumeController.DeleteResumeHandler)
				resumeRoute.GET(":id/preview", resumeController.PreviewResumeHandler)
				resumeRoute.GET(":id/export", resumeController.ExportResumeHandler)
			}

			fileRoute := needAuth.Group("/file")
			{
				fileRoute.POST("resume", middleware.SizeLimit(10<<20), fileController.UploadResumeHandler)
				fileRoute.GET(":id", fileController.GetFileHandler)
			}

			// Job board endpoints open to every signed-in user
			needAuth.GET("/jobs", atsController.ListOpenJobsHandler)
			needAuth.POST("/jobs/:id/apply", atsController.ApplyHandler)

			needAuth.POST("/ai/suggest", aiController.SuggestHandler)

			paymentRoute := needAuth.Group("/payment")
			{
				paymentRoute.POST("verify", paymentController.VerifyPaymentHandler)
				paymentRoute.POST("order", paymentController.CreateOrderHandler)
				paymentRoute.GET("subscription", paymentController.GetSubscriptionHandler)
			}

			// Hiring pipeline endpoints (recruiter only)
			atsRoute := needAuth.Group("/ats")
			{
				atsRoute.Use(middleware.CheckRole(model.RoleRecruiter, model.RoleAdmin))
				atsRoute.POST("job", atsController.CreateJobHandler)
				atsRoute.GET("job", atsController.ListMyJobsHandler)
				atsRoute.PATCH("job/:id", atsController.UpdateJobHandler)
				atsRoute.PATCH("job/:id/open", atsController.SetJobOpenHandler)
				atsRoute.DELETE("job/:id", atsController.DeleteJobHandler)
				atsRoute.POST("job/:id/stage", atsController.CreateStageHandler)
				atsRoute.GET("job/:id/applications", atsController.ApplicationsGroupedHandler)
				atsRoute.PATCH("stage/:id", atsController.UpdateStageHandler)
				atsRoute.DELETE("stage/:id", atsController.DeleteStageHandler)
				atsRoute.PATCH("application/:id/stage", atsController.MoveStageHandler)
			}

			needAdmin := needAuth.Group("/admin")
			{
				needAdmin.Use(middleware.CheckRole(model.RoleAdmin))
				needAdmin.GET("users", adminController.ListUsersHandler)
				needAdmin.POST("template", adminController.CreateTemplateHandler)
				needAdmin.PATCH("template/:slug", adminController.UpdateTemplateHandler)

				needAdmin.POST("ai-keys", keyController.CreateKeyHandler)
				needAdmin.GET("ai-keys", keyController.ListKeysHandler)
				needAdmin.PATCH("ai-keys/:id/active", keyController.SetActiveHandler)
				needAdmin.PATCH("ai-keys/:id/primary", keyController.SetPrimaryHandler)
				needAdmin.PATCH("ai-keys/:id/fallback", keyController.SetFallbackHandler)
				needAdmin.DELETE("ai-keys/:id", keyController.DeleteKeyHandler)
			}
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// HelloWorldHandler handle request by return message "Hello World"
func (s *MyServer) HelloWorldHandler(c *gin.Context) {
	resp := make(map[string]string)
	resp["message"] = "Hello World"

	c.JSON(http.StatusOK, resp)
}

func (s *MyServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.DB.Health())
}
