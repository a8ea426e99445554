package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type RouterDeps struct {
	AuthHandler    *AuthHandler
	ProfileHandler *ProfileHandler
	GithubHandler  *GithubHandler
	JWTService     *auth.JWTService
	Revocations    service.RevocationStore
	TokenHeader    string
	CORSOrigins    []string
	Logger         logger.Logger
}

func NewRouter(dep RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware(dep.Logger))
	if len(dep.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  dep.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", tokenHeader(dep.TokenHeader)},
			ExposeHeaders: []string{HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}
	router.Use(ErrorMiddleware(dep.Logger))

	authMiddleware := AuthMiddleware(dep.JWTService, dep.Revocations, dep.TokenHeader, dep.Logger)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		api.POST("/auth", dep.AuthHandler.Login)

		profiles := api.Group("/profile")
		{
			profiles.GET("", dep.ProfileHandler.ListProfiles)
			profiles.GET("/user/:user_id", dep.ProfileHandler.GetProfileByUser)
			profiles.GET("/github/:username", dep.GithubHandler.ListRepos)

			private := profiles.Group("")
			private.Use(authMiddleware)
			{
				private.GET("/me", dep.ProfileHandler.GetMyProfile)
				private.POST("", dep.ProfileHandler.UpsertProfile)
				private.DELETE("", dep.ProfileHandler.DeleteAccount)
				private.PUT("/experience", dep.ProfileHandler.AddExperience)
				private.DELETE("/experience/:exp_id", dep.ProfileHandler.RemoveExperience)
				private.PUT("/education", dep.ProfileHandler.AddEducation)
				private.DELETE("/education/:edu_id", dep.ProfileHandler.RemoveEducation)
			}
		}
	}

	return router
}

func tokenHeader(h string) string {
	if h == "" {
		return DefaultTokenHeader
	}
	return h
}
