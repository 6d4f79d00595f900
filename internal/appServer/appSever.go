// launching the server, frame compositor, redis cache, kafka events
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/mirai-frame/config"
	"github.com/ds124wfegd/mirai-frame/internal/database"
	"github.com/ds124wfegd/mirai-frame/internal/pkg/compositor"
	"github.com/ds124wfegd/mirai-frame/internal/pkg/kafka"
	"github.com/ds124wfegd/mirai-frame/internal/pkg/redis"
	"github.com/ds124wfegd/mirai-frame/internal/pkg/storage"
	"github.com/ds124wfegd/mirai-frame/internal/service"
	"github.com/ds124wfegd/mirai-frame/internal/transport"
	"github.com/gin-gonic/gin"

	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12}, // ban on outdate TLS certificate
		ErrorLog:          log.New(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), "", 0),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ConfigureLogger applies the log section of the config to the standard logrus logger.
func ConfigureLogger(cfg config.LogConfig) {
	if cfg.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// NewCompositor builds the compositor from config, loading the frame overlay when configured.
func NewCompositor(cfg config.FrameConfig) (compositor.Compositor, error) {
	assets := storage.NewFileStorage(cfg.AssetDir)
	overlay, err := compositor.LoadOverlay(assets, cfg.OverlayPath)
	if err != nil {
		return nil, err
	}

	return compositor.NewCompositor(compositor.Options{
		BorderColor:       cfg.BorderColor,
		BorderWidth:       cfg.BorderWidth,
		SquareMaxSize:     cfg.SquareMaxSize,
		CircleTargetSize:  cfg.CircleTargetSize,
		SupersampleFactor: cfg.SupersampleFactor,
		MaxPixels:         cfg.MaxPixels,
		Overlay:           overlay,
	})
}

func newFrameCache(cfg *config.RedisConfig) (database.FrameCache, func()) {
	if !cfg.Enabled {
		logrus.Info("Redis cache disabled")
		return database.NewNoopFrameCache(), func() {}
	}

	client := redis.NewRedisClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+time.Second)
	defer cancel()

	cache, err := database.NewRedisFrameCache(ctx, client, cfg.CacheTTL)
	if err != nil {
		logrus.Errorf("Failed to initialize Redis cache: %v. Continuing without cache...", err)
		client.Close()
		return database.NewNoopFrameCache(), func() {}
	}

	logrus.Info("Redis cache initialized")
	return cache, func() { client.Close() }
}

func NewServer(cfg *config.Config) error {

	ConfigureLogger(cfg.Log)

	frameCompositor, err := NewCompositor(cfg.Frame)
	if err != nil {
		return err
	}
	if cfg.Frame.OverlayPath != "" {
		logrus.Infof("Frame overlay loaded from %s", cfg.Frame.OverlayPath)
	}

	frameCache, closeCache := newFrameCache(&cfg.Redis)
	defer closeCache()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	frameService := service.NewFrameService(frameCompositor, frameCache, producer, cfg.Frame.MaxUploadBytes)
	frameHandler := transport.NewFrameHandler(frameService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(frameHandler, cfg.Server.RequestTimeout)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("addr", cfg.GetServerAddress()).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	return nil
}
