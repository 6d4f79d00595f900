package transport

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/ds124wfegd/mirai-frame/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

func InitRoutes(frameHandler *FrameHandler, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	router.NoMethod(frameHandler.MethodNotAllowed)

	api := router.Group("/api")
	{
		api.POST("/frame", frameHandler.Frame)
		// path of the original upload endpoint
		api.POST("/upload", frameHandler.Frame)
	}

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", nil)
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "mirai-frame",
		})
	})
	return router
}
