package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"cipherdrop/internal/presentation"
	"cipherdrop/internal/presentation/middleware"
)

type Config struct {
	Address    string `yaml:"address"`
	BodyLimit  string `yaml:"body_limit"`
	RateLimit  int    `yaml:"rate_limit"`
	AgentToken string `yaml:"agent_token"`
}

// Handlers groups the route handlers. Nil handlers leave their routes unregistered.
type Handlers struct {
	Upload   *UploadHandler
	Get      *GetHandler
	Head     *HeadHandler
	Delete   *DeleteHandler
	Receive  *ReceiveHandler
	List     *ListHandler
	Preview  *PreviewHandler
	Gatherer prometheus.Gatherer
}

// NewRouter builds the local agent API.
func NewRouter(cfg Config, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	bodyLimit := cfg.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "110M"
	}
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 20
	}

	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{
			echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderContentLength,
			presentation.ConversationKey, presentation.RecipientKey, presentation.FileNameKey,
		},
		ExposeHeaders: []string{presentation.ReasonTag, presentation.FileSizeKey},
		AllowMethods: []string{http.MethodGet, http.MethodPost,
			http.MethodDelete, http.MethodHead, http.MethodOptions},
		MaxAge: 86400,
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.Secure())
	e.Use(echoMiddleware.BodyLimit(bodyLimit))
	e.Use(echoMiddleware.RateLimiter(echoMiddleware.NewRateLimiterMemoryStore(rate.Limit(rateLimit))))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	if h.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := middleware.AuthMiddleware(cfg.AgentToken)
	byID := fmt.Sprintf("/transfers/:%s", presentation.IDParam)

	if h.Upload != nil {
		e.POST("/transfers", h.Upload.HandleUpload, auth)
	}
	if h.Get != nil {
		e.GET(byID, h.Get.HandleGet, auth)
	}
	if h.Head != nil {
		e.HEAD(byID, h.Head.HandleHead, auth)
	}
	if h.Delete != nil {
		e.DELETE(byID, h.Delete.HandleDelete, auth)
	}
	if h.Receive != nil {
		e.POST(byID+"/receive", h.Receive.HandleReceive, auth)
	}
	if h.List != nil {
		e.GET("/library", h.List.HandleList, auth)
	}
	if h.Preview != nil {
		byPreview := fmt.Sprintf("/previews/:%s", presentation.IDParam)
		e.GET(byPreview, h.Preview.HandlePreview, auth)
		e.DELETE(byPreview, h.Preview.HandleRevoke, auth)
	}

	return e
}
