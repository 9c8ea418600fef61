package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Subscription  *SubscriptionHandler
	Coupons       *CouponHandler
	Cases         *CaseHandler
	Motions       *MotionHandler
	Deadlines     *DeadlineHandler
	Dashboard     *DashboardHandler
	Exports       *ExportHandler
	Analytics     *AnalyticsHandler
	Briefs        *BriefHandler
	Documents     *DocumentHandler
	Research      *ResearchHandler
	Transcription *TranscriptionHandler
}

// RouteMiddleware carries the guards applied to route groups.
type RouteMiddleware struct {
	// Authenticate rejects requests without a valid access token.
	Authenticate gin.HandlerFunc
	// Identify attaches claims when a valid token is sent and never rejects.
	Identify gin.HandlerFunc
	// RequireAdmin rejects non-admin callers.
	RequireAdmin gin.HandlerFunc
	// Subscription rejects callers without an active trial or plan.
	Subscription gin.HandlerFunc
	// Audit builds an audit recorder for a mutation. Nil disables auditing.
	Audit func(action, resource string) gin.HandlerFunc
}

func (m RouteMiddleware) identify() gin.HandlerFunc {
	if m.Identify == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return m.Identify
}

func (m RouteMiddleware) audit(action, resource string) gin.HandlerFunc {
	if m.Audit == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return m.Audit(action, resource)
}

// RegisterRoutes mounts the API on r.
func RegisterRoutes(r gin.IRouter, h Handlers, mw RouteMiddleware) {
	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", mw.Authenticate, h.Auth.Logout)
	auth.POST("/change-password", mw.Authenticate, h.Auth.ChangePassword)
	auth.GET("/me", mw.Authenticate, h.Auth.Me)

	// The signed token authorizes the download; a session only attributes it.
	r.GET("/exports/download/:token", mw.identify(), mw.audit(models.AuditActionExportDownload, "export"), h.Exports.Download)

	account := r.Group("", mw.Authenticate)
	account.GET("/subscription/status", h.Subscription.Status)
	account.POST("/subscription/trial", mw.audit(models.AuditActionSubscription, "subscription"), h.Subscription.StartTrial)
	account.POST("/subscription/activate", mw.audit(models.AuditActionSubscription, "subscription"), h.Subscription.Activate)
	account.POST("/subscription/cancel", mw.audit(models.AuditActionSubscription, "subscription"), h.Subscription.Cancel)
	account.POST("/coupons/validate", h.Coupons.Validate)
	account.POST("/coupons/apply", mw.audit(models.AuditActionCouponApply, "coupon"), h.Coupons.Apply)

	admin := r.Group("/admin", mw.Authenticate, mw.RequireAdmin)
	admin.GET("/coupons", h.Coupons.List)
	admin.POST("/coupons", mw.audit(models.AuditActionCreate, "coupon"), h.Coupons.Create)
	admin.GET("/coupons/:id", h.Coupons.Get)
	admin.PUT("/coupons/:id", mw.audit(models.AuditActionUpdate, "coupon"), h.Coupons.Update)
	admin.GET("/coupons/:id/usage", h.Coupons.Usage)
	admin.POST("/coupons/:id/deactivate", mw.audit(models.AuditActionUpdate, "coupon"), h.Coupons.Deactivate)

	gated := r.Group("", mw.Authenticate, mw.Subscription)

	gated.GET("/cases", h.Cases.List)
	gated.POST("/cases", mw.audit(models.AuditActionCreate, "case"), h.Cases.Create)
	gated.GET("/cases/:id", h.Cases.Get)
	gated.PUT("/cases/:id", mw.audit(models.AuditActionUpdate, "case"), h.Cases.Update)
	gated.DELETE("/cases/:id", mw.audit(models.AuditActionDelete, "case"), h.Cases.Delete)

	gated.GET("/cases/:id/motions", h.Motions.ListByCase)
	gated.POST("/cases/:id/motions", mw.audit(models.AuditActionCreate, "motion"), h.Motions.Create)
	gated.PUT("/motions/:id", mw.audit(models.AuditActionUpdate, "motion"), h.Motions.Update)
	gated.DELETE("/motions/:id", mw.audit(models.AuditActionDelete, "motion"), h.Motions.Delete)

	gated.GET("/cases/:id/deadlines", h.Deadlines.ListByCase)
	gated.POST("/cases/:id/deadlines", mw.audit(models.AuditActionCreate, "deadline"), h.Deadlines.Create)
	gated.GET("/deadlines/upcoming", h.Deadlines.Upcoming)
	gated.PUT("/deadlines/:id", mw.audit(models.AuditActionUpdate, "deadline"), h.Deadlines.Update)
	gated.POST("/deadlines/:id/complete", mw.audit(models.AuditActionUpdate, "deadline"), h.Deadlines.Complete)
	gated.DELETE("/deadlines/:id", mw.audit(models.AuditActionDelete, "deadline"), h.Deadlines.Delete)

	gated.GET("/dashboard", h.Dashboard.Summary)
	gated.GET("/exports/cases.csv", h.Exports.Cases)
	gated.GET("/exports/deadlines.csv", h.Exports.Deadlines)

	analytics := gated.Group("/legal-analytics")
	analytics.POST("/predict", h.Analytics.Predict)
	analytics.POST("/judge", h.Analytics.Judge)
	analytics.POST("/risk", h.Analytics.Risk)
	analytics.POST("/dashboard", h.Analytics.Dashboard)

	briefs := gated.Group("/brief-generation")
	briefs.POST("/generate", h.Briefs.Generate)
	briefs.POST("/pdf", h.Briefs.PDF)

	documents := gated.Group("/documents")
	documents.GET("", h.Documents.List)
	documents.POST("/upload", mw.audit(models.AuditActionCreate, "document"), h.Documents.Upload)
	documents.POST("/index", mw.audit(models.AuditActionCreate, "document"), h.Documents.Index)
	documents.POST("/search", h.Documents.Search)
	documents.GET("/:id", h.Documents.Get)
	documents.GET("/:id/status", h.Documents.Status)
	documents.GET("/:id/similar", h.Documents.Similar)
	documents.DELETE("/:id", mw.audit(models.AuditActionDelete, "document"), h.Documents.Delete)

	research := gated.Group("/legal-research")
	research.POST("/precedents", h.Research.Precedents)
	research.POST("/citation", h.Research.Citation)

	gated.POST("/transcription", h.Transcription.Transcribe)
}
