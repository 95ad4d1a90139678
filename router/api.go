package router

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/kampungalert/api/handlers"
	"github.com/kampungalert/api/internal/config"
	"github.com/kampungalert/api/services"
)

func NewGinRouter(pg *sql.DB, rdb *redis.Client) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", config.App.CORSOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize services
	sessionStore := services.NewRedisSessionStore(rdb)
	sessionService := services.NewSessionService(pg, sessionStore, config.App.SessionSecret)
	incidentService := services.NewIncidentService(pg, rdb)
	victimService := services.NewVictimService(pg)
	dashboardService := services.NewDashboardService(pg)
	userService := services.NewUserService(pg)
	announcementService := services.NewAnnouncementService(pg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(sessionService)
	incidentHandler := handlers.NewIncidentHandler(incidentService)
	victimHandler := handlers.NewVictimHandler(victimService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	userHandler := handlers.NewUserHandler(userService)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService)

	authRequired := handlers.AuthRequired(sessionService)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes: villager reporting and broadcast data
	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/session", authHandler.CheckSession)
	}

	r.POST("/incidents", incidentHandler.CreateIncident)
	r.GET("/incidents/summary-by-kampung", incidentHandler.SummaryByKampung)
	r.GET("/announcements", announcementHandler.ListAnnouncements)
	r.GET("/kampungs", userHandler.ListKampungs)

	// Protected routes: the administration hierarchy
	api := r.Group("/", authRequired)
	{
		api.GET("/incidents", incidentHandler.ListIncidents)
		api.PATCH("/incidents/:id/status", incidentHandler.UpdateStatus)
		api.PATCH("/incidents/:id/agency", incidentHandler.AssignAgency)

		api.GET("/victims", victimHandler.ListVictims)
		api.POST("/victims", victimHandler.RegisterVictim)

		api.GET("/dashboard", dashboardHandler.Summary)

		api.GET("/users", userHandler.ListUsers)
		api.POST("/users", userHandler.CreateUser)
		api.PUT("/users/:id", userHandler.UpdateUser)
		api.DELETE("/users/:id", userHandler.DeleteUser)

		api.POST("/announcements", announcementHandler.CreateAnnouncement)
		api.PUT("/announcements/:id", announcementHandler.UpdateAnnouncement)
		api.DELETE("/announcements/:id", announcementHandler.DeleteAnnouncement)
	}

	return r
}
