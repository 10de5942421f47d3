package router

import (
	"paygate/config"
	"paygate/internal/handler"
	"paygate/internal/middleware"
	"paygate/internal/repository"
	"paygate/internal/service"
	"paygate/pkg/paypal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// Repositories
	orderRepo := repository.NewOrderRepository(db)
	recurringRepo := repository.NewRecurringRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Services
	settings := service.NewGatewaySettings(&cfg.PayPal, settingRepo)
	verifier := paypal.NewVerifier(settings, cfg.PayPal.VerifyTimeout, log)
	orderReconciler := service.NewOrderReconciler(orderRepo, log)
	advancer := service.NewRecurringAdvancer(recurringRepo, cfg.PayPal.MaxRecurringFailures, log)
	recurringReconciler := service.NewRecurringReconciler(orderRepo, recurringRepo, advancer, log)

	// Handlers
	ipnHandler := handler.NewIPNWebhookHandler(verifier, orderReconciler, recurringReconciler, log)
	pdtHandler := handler.NewPDTReturnHandler(verifier, orderReconciler, orderRepo, &cfg.PayPal, log)
	opsHandler := handler.NewOpsHandler(orderRepo, recurringRepo, settingRepo)

	opsMw := middleware.OpsAuthRequired(&cfg.Ops)

	api := r.Group("/api/v1")
	{
		api.POST("/webhooks/paypal/ipn", ipnHandler.Handle)

		ops := api.Group("/ops")
		ops.Use(opsMw)
		{
			ops.GET("/orders/:guid", opsHandler.GetOrder)
			ops.GET("/orders/:guid/notes", opsHandler.GetOrderNotes)
			ops.GET("/orders/:guid/recurring", opsHandler.GetOrderRecurring)
			ops.GET("/settings", opsHandler.GetSettings)
		}
	}

	// Browser-facing return/cancel redirects from the gateway.
	r.GET("/paypal/return", pdtHandler.Handle)
	r.GET("/paypal/cancel", pdtHandler.Cancel)

	return r
}
