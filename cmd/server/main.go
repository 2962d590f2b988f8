package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"

	"saysense/backend/internal/ai"
	analysishandler "saysense/backend/internal/analysis/handler"
	analysisrepo "saysense/backend/internal/analysis/repository"
	analysisservice "saysense/backend/internal/analysis/service"
	authhandler "saysense/backend/internal/auth/handler"
	authservice "saysense/backend/internal/auth/service"
	"saysense/backend/internal/cloud"
	"saysense/backend/internal/config"
	"saysense/backend/internal/db"
	feedbackhandler "saysense/backend/internal/feedback/handler"
	feedbackrepo "saysense/backend/internal/feedback/repository"
	feedbackservice "saysense/backend/internal/feedback/service"
	"saysense/backend/internal/realtime"
	"saysense/backend/internal/security"
	"saysense/backend/internal/server"
	sessionhandler "saysense/backend/internal/session/handler"
	sessionrepo "saysense/backend/internal/session/repository"
	sessionservice "saysense/backend/internal/session/service"
	"saysense/backend/internal/telemetry"
	"saysense/backend/internal/telemetry/producer"
	transcripthandler "saysense/backend/internal/transcript/handler"
	transcriptrepo "saysense/backend/internal/transcript/repository"
	transcriptservice "saysense/backend/internal/transcript/service"
	userrepo "saysense/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Env)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database open", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	tokens := security.NewTokenProvider(
		cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer,
		cfg.AccessTTL(), cfg.RefreshTTL(),
	)
	hasher := security.NewHasher(cfg.BcryptCost)

	var emitter telemetry.Emitter
	var kafkaProducer *producer.KafkaProducer
	if brokers := cfg.TelemetryKafkaBrokersList(); len(brokers) > 0 {
		kafkaProducer = producer.NewKafkaProducer(brokers, cfg.TelemetryKafkaTopic)
		if kafkaProducer != nil {
			emitter = kafkaProducer
			defer kafkaProducer.Close()
			slog.Info("telemetry enabled", "topic", cfg.TelemetryKafkaTopic)
		}
	}

	var presigner cloud.UploadPresigner
	var transcriber cloud.TranscriptionClient
	if cfg.AWSS3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			slog.Error("aws config", "error", err)
			os.Exit(1)
		}
		presigner = cloud.NewS3Presigner(s3.NewFromConfig(awsCfg), cfg.AWSS3Bucket)
		transcriber = cloud.NewTranscribeClient(transcribe.NewFromConfig(awsCfg))
	} else {
		slog.Info("AWS_S3_BUCKET not set; uploads and transcription disabled")
	}

	users := userrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	segments := transcriptrepo.NewPostgresRepository(conn)
	metrics := analysisrepo.NewPostgresRepository(conn)
	suggestions := feedbackrepo.NewPostgresRepository(conn)

	registry := realtime.NewRegistry(emitter)
	gateway := realtime.NewGateway(registry, tokens, cfg.FrontendURL)

	authSvc := authservice.NewAuthService(users, hasher, tokens, emitter)
	sessionSvc := sessionservice.NewSessionService(
		sessions, segments, metrics, suggestions,
		registry, transcriber, presigner, emitter,
	)
	transcriptSvc := transcriptservice.NewTranscriptService(segments, sessions, registry)
	analysisSvc := analysisservice.NewAnalysisService(metrics, sessions, suggestions, ai.NewMock(), registry)
	feedbackSvc := feedbackservice.NewFeedbackService(suggestions, sessions, registry)

	router := server.NewRouter(server.Deps{
		Auth:       authhandler.NewHandler(authSvc),
		Sessions:   sessionhandler.NewHandler(sessionSvc),
		Transcript: transcripthandler.NewHandler(transcriptSvc),
		Analysis:   analysishandler.NewHandler(analysisSvc),
		Feedback:   feedbackhandler.NewHandler(feedbackSvc),
		Gateway:    gateway,
		Tokens:     tokens,
		DB:         conn,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("serve", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("http server stopped")
}

func setupLogger(env string) {
	if env == "production" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}
