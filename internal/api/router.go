package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/action-trace/internal/api/handler"
	"github.com/d60-Lab/action-trace/internal/api/middleware"
	"github.com/d60-Lab/action-trace/internal/config"
	"github.com/d60-Lab/action-trace/internal/model"
)

// registerValidations 资源类型名的绑定校验
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("rtype", func(fl validator.FieldLevel) bool {
			_, ok := model.ParseResourceType(fl.Field().String())
			return ok
		})
	}
}

// NewRouter 组装路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	registerValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(otelgin.Middleware("action-trace"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", h.Register)
			users.POST("/login", h.Login)
		}

		auth := v1.Group("", middleware.AuthRequired(cfg.JWT.Secret))
		{
			actions := auth.Group("/actions/:kind")
			{
				actions.POST("", h.Do)
				actions.POST("/undo", h.Undo)
				actions.GET("/has", h.Has)
				actions.GET("/has_remind", h.HasRemind)
				actions.GET("/count", h.Count)
				actions.GET("/list", h.List)
			}

			reminds := auth.Group("/reminds/:kind")
			{
				reminds.GET("/count", h.RemindCount)
				reminds.GET("/unread_count", h.UnreadRemindCount)
				reminds.GET("/list", h.RemindList)
				reminds.PUT("/read", h.MarkRead)
			}
		}
	}

	return r
}
