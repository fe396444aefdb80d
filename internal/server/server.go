package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	_ "llamaconv/docs"
	"llamaconv/internal/logging"
	"llamaconv/pkg/config"
	"llamaconv/pkg/conversion"
	"llamaconv/pkg/shell"
)

const (
	RFC3339Millis = "2006-01-02T15:04:05.000Z07:00"

	shutdownTimeout = 10 * time.Second
)

type Options struct {
	Conf *config.Conf
	// Executable is run with the dummy command when no converter script is configured.
	Executable string
	// Runner overrides the runner built from Conf, used by tests.
	Runner   shell.Runner
	Registry *prometheus.Registry
}

type Server struct {
	conf       *config.Conf
	executable string
	runner     shell.Runner
	store      *conversionStore
	metrics    *metrics
	router     *gin.Engine
}

func NewServer(opts Options) (*Server, error) {
	conf := opts.Conf
	if conf == nil {
		conf = config.DefaultConf()
	}
	conf.PopulateUnsetConfigVars()

	store, err := newConversionStore(conf.Server.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating conversion store: %w", err)
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		conf:       conf,
		executable: opts.Executable,
		runner:     opts.Runner,
		store:      store,
		metrics:    newMetrics(registry),
	}
	s.router = s.buildRouter(registry)
	return s, nil
}

func (s *Server) buildRouter(registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{Formatter: logFormatter, Output: logging.Output()}), gin.Recovery())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	v1.POST("/validate", ValidateHandler)
	v1.POST("/conversions", s.CreateConversionHandler)
	v1.GET("/conversions/:id", s.GetConversionHandler)
	v1.DELETE("/conversions/:id", s.CancelConversionHandler)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Close cancels all conversions and waits for them to stop.
func (s *Server) Close() {
	s.store.close()
}

func (s *Server) conversionOptions() conversion.Options {
	opts := conversion.OptionsFromConf(s.conf, s.executable)
	if s.runner != nil {
		opts.Runner = s.runner
	}
	return opts
}

// StartServer godoc
// @title llamaconv API
// @version 1.0
// @description An API to validate LLaMA model directories and convert them to ggml
// @BasePath /api/v1
func StartServer(ctx context.Context, opts Options) error {
	s, err := NewServer(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.conf.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.BuildLogger().Info("Starting server", "port", s.conf.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logging.BuildLogger().Info("Shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func logFormatter(param gin.LogFormatterParams) string {
	if param.Latency > time.Minute {
		param.Latency = param.Latency.Truncate(time.Second)
	}

	return fmt.Sprintf("{\"timestamp\":\"%v\", \"status_code\": \"%d\", \"latency\": \"%v\", \"latency_raw\": \"%d\", \"request_size\": \"%s\", \"request_size_raw\": \"%d\", \"client_ip\":\"%s\", \"method\": \"%s\", \"path\": %q, \"error\": %q}\n",
		param.TimeStamp.Format(RFC3339Millis),
		param.StatusCode,
		param.Latency,
		param.Latency,
		humanize.Bytes(uint64(param.BodySize)),
		param.BodySize,
		param.ClientIP,
		param.Method,
		param.Path,
		param.ErrorMessage,
	)
}
