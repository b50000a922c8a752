package server

import "github.com/gin-gonic/gin"

// registerRoutes sets up all API routes.
func (s *api) registerRoutes(router *gin.Engine) {
	// Public.
	router.POST("/api/login", s.handleLogin)
	router.POST("/api/signup", s.handleSignup)
	router.POST("/api/orgs", s.handleCreateOrg)
	router.GET("/api/orgs/by-code/:code", s.handleOrgByCode)
	router.GET("/api/status/:id", s.handlePublicStatus)
	router.POST("/api/invitations/accept", s.handleAcceptInvitation)

	// Authenticated.
	authed := router.Group("/api", s.requireAuth)
	{
		authed.GET("/tasks", s.handleListTasks)
		authed.POST("/tasks", s.requireWorker, s.handleCreateTask)
		authed.GET("/tasks/:id", s.handleGetTask)
		authed.PATCH("/tasks/:id", s.requireWorker, s.handlePatchTask)
		authed.POST("/tasks/:id/claim", s.requireWorker, s.handleClaimTask)
		authed.POST("/tasks/:id/release", s.requireWorker, s.handleReleaseTask)
		authed.POST("/tasks/:id/approve", s.requireManager, s.handleApproveTask)
		authed.POST("/tasks/:id/complete", s.requireWorker, s.handleCompleteTask)
		authed.POST("/tasks/:id/cancel", s.requireManager, s.handleCancelTask)
		authed.POST("/checkins", s.handleCheckIn)

		authed.GET("/appointments", s.handleListAppointments)
		authed.POST("/appointments", s.handleRequestAppointment)
		authed.POST("/appointments/:id/approve", s.requireManager, s.handleApproveAppointment)
		authed.POST("/appointments/:id/reject", s.requireManager, s.handleRejectAppointment)
		authed.POST("/appointments/:id/reschedule", s.requireManager, s.handleRescheduleAppointment)

		authed.GET("/vehicles", s.handleListVehicles)
		authed.POST("/vehicles", s.handleCreateVehicle)
		authed.GET("/vehicles/:id", s.handleGetVehicle)
		authed.GET("/customers/:phone/vehicles", s.requireWorker, s.handleVehiclesByPhone)
		authed.GET("/registry/:plate", s.handleRegistryLookup)

		authed.GET("/proposals", s.handleListProposals)
		authed.POST("/proposals", s.requireWorker, s.handleCreateProposal)
		authed.POST("/proposals/:id/price", s.requireManager, s.handlePriceProposal)
		authed.POST("/proposals/:id/decide", s.handleDecideProposal)

		authed.GET("/notifications", s.handleListNotifications)
		authed.PATCH("/notifications/:id", s.handleMarkNotificationRead)
		authed.POST("/notifications/read-all", s.handleMarkAllNotificationsRead)

		authed.POST("/invitations", s.requireManager, s.handleCreateInvitation)
		authed.GET("/orgs/by-phone/:phone", s.handleOrgByManagerPhone)
		authed.POST("/members/:id/approve", s.requireManager, s.handleApproveMember)
		authed.POST("/members/:id/reject", s.requireManager, s.handleRejectMember)

		authed.GET("/events", s.handleEvents)
	}
}
