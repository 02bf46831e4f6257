package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Ciriera/examboard-scheduler/pkg/logger"
	"github.com/Ciriera/examboard-scheduler/pkg/middleware/cors"
	"github.com/Ciriera/examboard-scheduler/pkg/middleware/requestid"
)

// NewRouter builds the gin engine, wiring ambient middleware exactly as the
// teacher's cmd/api-gateway/main.go does (request ID, CORS, structured
// logging, metrics) ahead of the three scheduler routes.
func NewRouter(h *Handler, guard *AuthGuard, zapLogger *zap.Logger, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(cors.New(allowedOrigins))
	r.Use(logger.GinMiddleware(zapLogger))
	if h.metrics != nil {
		r.Use(h.metrics.GinMiddleware())
	}

	r.GET("/health", Health)
	r.GET("/metrics", h.Prometheus)

	v1 := r.Group("/v1")
	v1.Use(guard.Require())
	{
		v1.POST("/runs", h.SubmitRun)
		v1.GET("/runs/:id", h.GetRun)
		v1.POST("/score", h.Score)
	}

	return r
}
