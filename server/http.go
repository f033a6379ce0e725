package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"call-insights/config"
	"call-insights/constant"
	jobHandler "call-insights/handler"
	"call-insights/pkg/rabbitmq"
	"call-insights/pkg/storage"
	"call-insights/repository"
	"call-insights/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(NewLoggerContext(cfg.App.Environment), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}

	repo, err := repository.NewRepo(cfg.DB)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to initialize repository")
	}
	media := storage.NewMediaStore(cfg.Storage, cfg.MediaBucket)
	publisher := rabbitmq.NewPublisher(conn, cfg.Queue)

	callService := service.NewService(repo, media, publisher)
	processor := service.NewProcessor(repo, service.NewSimulatedAnalyzer())
	reportService := service.NewReportService(repo, media, publisher)

	serviceDeps := jobHandler.ServiceDependencies{
		Processor: processor,
		Reports:   reportService,
	}

	// One consumer per lane; call processing retries and dead-letters,
	// report generation acks regardless.
	callConsumer := rabbitmq.NewCallConsumer(conn, cfg.Queue, cfg.Server.CallWorkers, jobHandler.CallProcessHandler)
	go func() {
		if err := callConsumer.Consume(ctx, serviceDeps); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("call processing consumer error")
		}
	}()

	reportConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.Route{
		Queue:      constant.ReportGenerationQueue,
		RoutingKey: constant.ReportGenerationRoutingKey,
	}, cfg.Server.ReportWorkers, jobHandler.ReportGenerateHandler)
	go func() {
		if err := reportConsumer.Consume(ctx, serviceDeps); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("report generation consumer error")
		}
	}()

	r := gin.Default()
	addHealth(r)

	h := Handlers{Calls: callService, Reports: reportService}
	api := r.Group("/api", AttachLogger(ctx), RequireAPIKey(repo))
	api.POST("/calls/", h.CreateCall)
	api.GET("/calls/", h.ListCalls)
	api.GET("/calls/:call_id/insight", h.GetInsight)
	api.GET("/reports/", h.GetReport)
	api.POST("/reports/", h.RegenReport)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

// NewLoggerContext builds the root context carrying the application logger.
func NewLoggerContext(environment string) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}
