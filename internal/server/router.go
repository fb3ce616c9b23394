package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hemanthsairamjagatha/spark-lend/internal/auth"
	"github.com/hemanthsairamjagatha/spark-lend/internal/config"
	"github.com/hemanthsairamjagatha/spark-lend/internal/http/handlers"
	"github.com/hemanthsairamjagatha/spark-lend/internal/http/middleware"
	"github.com/hemanthsairamjagatha/spark-lend/internal/version"
	"github.com/hemanthsairamjagatha/spark-lend/internal/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	Pinger         handlers.Pinger
	AuthHandler    *handlers.AuthHandler
	ProfileHandler *handlers.ProfileHandler
	RequestHandler *handlers.RequestHandler
	LoanHandler    *handlers.LoanHandler
	WalletHandler  *handlers.WalletHandler
	RatingHandler  *handlers.RatingHandler
	WSHandler      *ws.Handler
	JWTManager     *auth.JWTManager
	Registry       *prometheus.Registry
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestBodyLimit(cfg.MaxBodySizeBytes))
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})

	health := handlers.NewHealthHandler(deps.Pinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	if deps.AuthHandler != nil && deps.JWTManager != nil {
		authGroup := r.Group("/v1/auth")
		authGroup.POST("/signup", deps.AuthHandler.Signup)
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.POST("/refresh", deps.AuthHandler.Refresh)
		authGroup.POST("/logout", deps.AuthHandler.Logout)

		protected := authGroup.Group("")
		protected.Use(middleware.RequireAuth(deps.JWTManager))
		protected.GET("/me", deps.AuthHandler.Me)

		memberGroup := r.Group("/v1")
		memberGroup.Use(middleware.RequireAuth(deps.JWTManager))

		if deps.ProfileHandler != nil {
			memberGroup.GET("/profile", deps.ProfileHandler.GetMyProfile)
			memberGroup.PATCH("/profile", deps.ProfileHandler.UpdateMyProfile)
			memberGroup.POST("/profile/kyc/submit", deps.ProfileHandler.SubmitKYC)
			memberGroup.GET("/users/:userId/profile", deps.ProfileHandler.GetProfile)
		}
		if deps.RequestHandler != nil {
			memberGroup.POST("/requests", deps.RequestHandler.CreateRequest)
			memberGroup.GET("/requests", deps.RequestHandler.ListRequests)
			memberGroup.GET("/requests/:requestId", deps.RequestHandler.GetRequest)
			memberGroup.GET("/requests/:requestId/splits", deps.RequestHandler.ListSplits)
			memberGroup.POST("/requests/:requestId/splits", deps.RequestHandler.AcceptSplit)
			memberGroup.POST("/requests/:requestId/cancel", deps.RequestHandler.CancelRequest)
		}
		if deps.LoanHandler != nil {
			memberGroup.GET("/loans", deps.LoanHandler.ListLoans)
			memberGroup.GET("/loans/:loanId", deps.LoanHandler.GetLoan)
			memberGroup.GET("/loans/:loanId/repayments", deps.LoanHandler.ListRepayments)
			memberGroup.POST("/loans/:loanId/repay", deps.LoanHandler.PostRepayment)
			memberGroup.GET("/dashboard", deps.LoanHandler.GetDashboard)
		}
		if deps.WalletHandler != nil {
			memberGroup.GET("/wallet", deps.WalletHandler.GetMyWallet)
			memberGroup.GET("/wallet/transactions", deps.WalletHandler.ListTransactions)
			memberGroup.POST("/wallet/deposit", deps.WalletHandler.Deposit)
			memberGroup.POST("/wallet/withdraw", deps.WalletHandler.Withdraw)
		}
		if deps.RatingHandler != nil {
			memberGroup.POST("/ratings", deps.RatingHandler.CreateRating)
			memberGroup.GET("/users/:userId/ratings", deps.RatingHandler.ListUserRatings)
			memberGroup.GET("/users/:userId/ratings/summary", deps.RatingHandler.GetUserRatingSummary)
		}
		if deps.WSHandler != nil {
			memberGroup.GET("/ws", deps.WSHandler.HandleWebSocket)
		}

		adminGroup := r.Group("/admin")
		adminGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleAdmin))
		if deps.ProfileHandler != nil {
			adminGroup.POST("/users/:userId/kyc/verify", deps.ProfileHandler.VerifyKYC)
			adminGroup.POST("/users/:userId/kyc/reject", deps.ProfileHandler.RejectKYC)
			adminGroup.POST("/users/:userId/blacklist", deps.ProfileHandler.Blacklist)
		}
		if deps.WalletHandler != nil {
			adminGroup.POST("/reconcile", deps.WalletHandler.Reconcile)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
