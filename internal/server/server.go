package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/victornm/interviewprep/internal/api"
	"github.com/victornm/interviewprep/internal/auth"
	"github.com/victornm/interviewprep/internal/catalog"
	"github.com/victornm/interviewprep/internal/event"
	"github.com/victornm/interviewprep/internal/history"
	"github.com/victornm/interviewprep/internal/interviewer"
	"github.com/victornm/interviewprep/internal/llm"
	"github.com/victornm/interviewprep/internal/practice"
	"github.com/victornm/interviewprep/internal/progress"
	"github.com/victornm/interviewprep/internal/store"
	"github.com/victornm/interviewprep/internal/telemetry"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

type RedisConn struct {
	Addrs  []string
	Pass   string
	Prefix string
}

type Config struct {
	HTTP struct {
		Port int32
	}

	GRPC struct {
		Port int32
	}

	GenAI struct {
		APIKey      string
		Model       string
		Temperature float32

		Retry struct {
			Attempts int
			Backoff  time.Duration
		}
	}

	Auth struct {
		Secret   string
		Issuer   string
		Required bool
	}

	Store struct {
		// Driver is postgres or redis.
		Driver string
	}

	Postgres struct {
		Session struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Redis struct {
		Store    RedisConn
		Progress RedisConn
		Pubsub   RedisConn
	}

	CORS struct {
		Origins []string
	}

	Drafts struct {
		IdleTimeout   time.Duration
		SweepInterval time.Duration
	}
}

// DefaultConfig holds the values used for keys missing from the config file.
func DefaultConfig() Config {
	var c Config
	c.HTTP.Port = 8080
	c.GRPC.Port = 8081
	c.GenAI.Model = "gemini-2.0-flash"
	c.GenAI.Retry.Attempts = 3
	c.GenAI.Retry.Backoff = 500 * time.Millisecond
	c.Store.Driver = StoreDriverPostgres
	c.Drafts.IdleTimeout = 2 * time.Hour
	c.Drafts.SweepInterval = 5 * time.Minute
	return c
}

// sweepsDrafts reports whether idle drafts are swept in the background. A
// zero idle timeout would drop every draft on each tick.
func (c Config) sweepsDrafts() bool {
	return c.Drafts.SweepInterval > 0 && c.Drafts.IdleTimeout > 0
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			store    redis.UniversalClient
			progress redis.UniversalClient
			pubsub   redis.UniversalClient
		}

		postgres struct {
			session *pgxpool.Pool
		}

		generator llm.Generator
	}

	service struct {
		store       store.Store
		interviewer *interviewer.Service
		history     *history.Service
		progress    *progress.Service
		registry    *practice.Registry
	}

	api  *api.API
	http *http.Server
	grpc *grpc.Server

	// ctx lives until Shutdown and stops the background sweeper.
	ctx    context.Context
	cancel context.CancelFunc
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// Scores are sent as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	if err := s.initAPI(); err != nil {
		return nil, fmt.Errorf("server: init api: %w", err)
	}

	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if s.c.Store.Driver == StoreDriverPostgres {
		if err := s.initPostgres(); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}

	if err := s.initGenerator(); err != nil {
		return fmt.Errorf("genai: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(name string, conn RedisConn) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    conn.Addrs,
			Password: conn.Pass,
		})

		if err := telemetry.MonitorRedis(name, r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	if s.c.Store.Driver == StoreDriverRedis {
		s.infra.redis.store, err = connect("store", s.c.Redis.Store)
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}

	s.infra.redis.progress, err = connect("progress", s.c.Redis.Progress)
	if err != nil {
		return fmt.Errorf("progress: %w", err)
	}

	s.infra.redis.pubsub, err = connect("pubsub", s.c.Redis.Pubsub)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() (err error) {
	connect := func(addr, user, pass, name string) (*pgxpool.Pool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", user, pass, addr, name))
		if err != nil {
			return nil, err
		}

		db, err := pgxpool.NewWithConfig(ctx, cc)
		if err != nil {
			return nil, err
		}

		if err := db.Ping(ctx); err != nil {
			return nil, err
		}

		return db, nil
	}

	pc := s.c.Postgres.Session
	s.infra.postgres.session, err = connect(pc.Addr, pc.User, pc.Pass, pc.Name)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	return nil
}

func (s *Server) initGenerator() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g, err := llm.NewGenAI(ctx, llm.GenAIConfig{
		APIKey:      s.c.GenAI.APIKey,
		Model:       s.c.GenAI.Model,
		Temperature: s.c.GenAI.Temperature,
	})
	if err != nil {
		return err
	}

	// Each attempt is measured on its own.
	s.infra.generator = llm.WithRetry(telemetry.MonitorGenerator(g), llm.RetryConfig{
		Attempts: s.c.GenAI.Retry.Attempts,
		Backoff:  s.c.GenAI.Retry.Backoff,
	})

	return nil
}

func (s *Server) initService() error {
	switch s.c.Store.Driver {
	case StoreDriverPostgres:
		pg := store.NewPostgres(store.PostgresConfig{DB: s.infra.postgres.session})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		s.service.store = pg

	case StoreDriverRedis:
		s.service.store = store.NewRedis(store.RedisConfig{
			Redis:  s.infra.redis.store,
			Prefix: s.c.Redis.Store.Prefix,
		})

	default:
		return fmt.Errorf("unknown store driver %q", s.c.Store.Driver)
	}

	s.service.interviewer = interviewer.NewService(interviewer.Config{
		Generator: s.infra.generator,
	})

	s.service.history = history.NewService(history.Config{
		Store: s.service.store,
	})

	s.service.progress = progress.NewService(progress.Config{
		EventBus: s.eb,
		Redis:    s.infra.redis.progress,
		Prefix:   s.c.Redis.Progress.Prefix,
	})

	s.service.registry = practice.NewRegistry(practice.RegistryConfig{
		Interviewer: s.service.interviewer,
		Store:       s.service.store,
		EventBus:    s.eb,
	})

	return nil
}

func (s *Server) initAPI() error {
	e := gin.New()
	e.Use(gin.Recovery())
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")

	if len(s.c.CORS.Origins) > 0 {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = s.c.CORS.Origins
		cc.AddAllowHeaders("Authorization")
		e.Use(cors.New(cc))
	}

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptors(slog.Default())...)

	a, err := api.New(api.Config{
		Router:   e,
		GRPC:     s.grpc,
		EventBus: s.eb,
		Catalog:  catalog.Default,
		Auth: auth.NewVerifier(auth.Config{
			Secret:   s.c.Auth.Secret,
			Issuer:   s.c.Auth.Issuer,
			Required: s.c.Auth.Required,
		}),
		Registry:     s.service.registry,
		History:      s.service.history,
		Progress:     s.service.progress,
		Redis:        s.infra.redis.pubsub,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	})
	if err != nil {
		return err
	}
	s.api = a

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}

	return nil
}

func (s *Server) Start() {
	ctx := s.ctx

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if s.c.sweepsDrafts() {
		eg.Go(func() error {
			return s.service.registry.Run(ctx, s.c.Drafts.SweepInterval, s.c.Drafts.IdleTimeout)
		})
	} else {
		slog.WarnContext(ctx, "server: draft sweeper disabled",
			"idle_timeout", s.c.Drafts.IdleTimeout,
			"sweep_interval", s.c.Drafts.SweepInterval,
		)
	}

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.api.Shutdown()
	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.cancel()

	s.eb.Stop()

	s.closeRedis(ctx)

	if s.infra.postgres.session != nil {
		s.infra.postgres.session.Close()
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}

// closeRedis closes the clients that were opened. It runs after the event bus
// has stopped, so no handler still publishes through them.
func (s *Server) closeRedis(ctx context.Context) {
	clients := []struct {
		name string
		r    redis.UniversalClient
	}{
		{"store", s.infra.redis.store},
		{"progress", s.infra.redis.progress},
		{"pubsub", s.infra.redis.pubsub},
	}

	for _, c := range clients {
		if c.r == nil {
			continue
		}

		if err := c.r.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "client", c.name, "error", err)
		}
	}
}
