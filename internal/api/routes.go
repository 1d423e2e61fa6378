package api

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes wires every handler onto the router.
func SetupRoutes(
	router *gin.Engine,
	log *logrus.Logger,
	jwtSecret string,
	authService service.AuthService,
	inviteService service.InviteService,
	profileService service.ProfileService,
	planService service.PlanService,
	sessionService service.SessionService,
	metricsService service.MetricsService,
) {
	authHandler := NewAuthHandler(authService)
	inviteHandler := NewInviteHandler(inviteService, authService)
	athleteHandler := NewAthleteHandler(profileService, metricsService)
	planHandler := NewPlanHandler(planService)
	sessionHandler := NewSessionHandler(sessionService)
	dashboardHandler := NewDashboardHandler(metricsService)

	authMiddleware := AuthMiddleware(jwtSecret)
	coachOnly := RoleMiddleware(domain.RoleCoach)
	athleteOnly := RoleMiddleware(domain.RoleAthlete)

	router.Use(RequestIDMiddleware(log))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authMiddleware, authHandler.Refresh)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		inviteGroup := protected.Group("/invites")
		{
			inviteGroup.POST("", coachOnly, inviteHandler.CreateInvite)
			inviteGroup.GET("/coach", coachOnly, inviteHandler.ListCoachInvites)
			inviteGroup.GET("/athlete", athleteOnly, inviteHandler.ListAthleteInvites)
			inviteGroup.POST("/:id/remind", coachOnly, inviteHandler.Remind)
			inviteGroup.POST("/:id/respond", athleteOnly, inviteHandler.Respond)
		}

		athleteGroup := protected.Group("/athletes")
		{
			athleteGroup.GET("/me/profile", athleteOnly, athleteHandler.GetMyProfile)
			athleteGroup.PUT("/me/profile", athleteOnly, athleteHandler.UpdateMyProfile)
			athleteGroup.GET("/:athleteId/summary", athleteHandler.Summary)
			athleteGroup.GET("/:athleteId/history", athleteHandler.History)
			athleteGroup.GET("/:athleteId/today", athleteHandler.Today)
			athleteGroup.GET("/:athleteId/weekly-stats", athleteHandler.WeeklyStats)
		}

		planGroup := protected.Group("/plans")
		{
			planGroup.POST("", coachOnly, planHandler.CreatePlan)
			planGroup.GET("/:planId", planHandler.GetPlan)
			planGroup.GET("/athlete/:athleteId", planHandler.ListAthletePlans)
			planGroup.POST("/:planId/duplicate", coachOnly, planHandler.DuplicatePlan)
			planGroup.DELETE("/:planId", coachOnly, planHandler.DeletePlan)
		}

		sessionGroup := protected.Group("/sessions/done")
		{
			sessionGroup.POST("", athleteOnly, sessionHandler.LogSession)
			sessionGroup.GET("/me", athleteOnly, sessionHandler.ListMySessions)
			sessionGroup.GET("/athlete/:athleteId", sessionHandler.ListAthleteSessions)
			sessionGroup.GET("/:id", sessionHandler.GetSession)
			sessionGroup.PUT("/:id", sessionHandler.UpdateSession)
			sessionGroup.DELETE("/:id", sessionHandler.DeleteSession)
		}

		dashboardGroup := protected.Group("/dashboard")
		dashboardGroup.Use(coachOnly)
		{
			dashboardGroup.GET("/coach/me", dashboardHandler.CoachDashboard)
			dashboardGroup.GET("/coach/overview", dashboardHandler.CoachOverview)
		}
	}
}
