package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/victornm/interviewprep/internal/auth"
	"github.com/victornm/interviewprep/internal/catalog"
	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/errors"
	"github.com/victornm/interviewprep/internal/event"
	"github.com/victornm/interviewprep/internal/history"
	"github.com/victornm/interviewprep/internal/practice"
	"github.com/victornm/interviewprep/internal/progress"
)

type Config struct {
	Router   gin.IRouter
	GRPC     *grpc.Server
	EventBus *event.Bus

	Catalog  catalog.Catalog
	Auth     *auth.Verifier
	Registry *practice.Registry
	History  *history.Service
	Progress *progress.Service

	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	catalog  catalog.Catalog
	registry *practice.Registry
	hs       *history.Service
	ps       *progress.Service
	health   *health.Server

	redis  Redis
	prefix string
}

func New(c Config) (*API, error) {
	if err := setupValidator(); err != nil {
		return nil, fmt.Errorf("api: setup validator: %w", err)
	}

	a := &API{
		catalog:  c.Catalog,
		registry: c.Registry,
		hs:       c.History,
		ps:       c.Progress,
		redis:    c.Redis,
		prefix:   c.PubsubPrefix,
	}

	// gRPC APIs
	if c.GRPC != nil {
		a.health = registerGRPC(c.GRPC)
	}

	// HTTP APIs
	c.Router.GET("/healthz", a.Healthz)

	v1 := c.Router.Group("/v1")
	v1.GET("/catalog", a.GetCatalog)

	v1.Use(c.Auth.Middleware())

	drafts := v1.Group("/drafts")
	drafts.POST("", a.CreateDraft)
	drafts.GET("/:id", a.GetDraft)
	drafts.DELETE("/:id", a.DeleteDraft)
	drafts.POST("/:id/technology", a.SelectTechnology)
	drafts.POST("/:id/start", a.StartInterview)
	drafts.POST("/:id/answer", a.SubmitAnswer)
	drafts.POST("/:id/skip", a.SkipQuestion)
	drafts.POST("/:id/back", a.GoBack)
	drafts.POST("/:id/complete", a.CompleteInterview)

	me := v1.Group("", requireUser)
	me.GET("/sessions", a.ListSessions)
	me.GET("/sessions/:id", a.GetSession)
	me.GET("/me/stats", a.GetStats)
	me.GET("/me/progress", a.GetProgress)
	me.DELETE("/me/drafts", a.SignOut)

	// Register event handlers
	if c.Redis != nil {
		c.EventBus.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
			return a.PublishSessionCompleted(ctx, e.(domain.EventSessionCompleted))
		})
		c.EventBus.Subscribe(domain.EventNameProgressUpdated, func(ctx context.Context, e event.Event) error {
			return a.PublishProgressUpdated(ctx, e.(domain.EventProgressUpdated))
		})
	}

	return a, nil
}

// Shutdown reports the gRPC health service as not serving.
func (a *API) Shutdown() {
	if a.health != nil {
		a.health.Shutdown()
	}
}

func (a *API) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"drafts": a.registry.Len(),
	})
}

func (a *API) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, a.catalog)
}

func requireUser(c *gin.Context) {
	if auth.UserID(c) == "" {
		abort(c, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("sign in required")))
		return
	}
	c.Next()
}
