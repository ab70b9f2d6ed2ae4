package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classtrack/rollcall/internal/config"
	"github.com/classtrack/rollcall/internal/database/postgres"
	"github.com/classtrack/rollcall/internal/gallery"
	"github.com/classtrack/rollcall/internal/ledger"
	"github.com/classtrack/rollcall/internal/matcher"
	"github.com/classtrack/rollcall/internal/stream"
	"github.com/classtrack/rollcall/internal/vision"
	"github.com/classtrack/rollcall/internal/web"
	"github.com/classtrack/rollcall/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance server",
	Long: `Start the Rollcall server.
The server accepts camera frames over a websocket, matches faces against
the enrolled gallery, records first sightings in the attendance ledger
and serves the teacher dashboard API.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (defaults to random)")
}

// loadGallery loads the match gallery from the configured snapshot file,
// falling back to the embeddings stored in PostgreSQL.
func loadGallery(ctx context.Context, cfg *config.Config, embeddings *postgres.EmbeddingRepository) (*gallery.Store, error) {
	if cfg.Gallery.SnapshotPath != "" {
		fmt.Printf("Loading gallery snapshot from %s...\n", cfg.Gallery.SnapshotPath)
		store, err := gallery.LoadFile(cfg.Gallery.SnapshotPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	fmt.Println("Building gallery from enrollment embeddings...")
	snap, err := embeddings.ExportSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gallery.ErrLoad, err)
	}
	return gallery.FromSnapshot(snap)
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	studentRepo := postgres.NewStudentRepository(pool)
	attendanceRepo := postgres.NewAttendanceRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)
	teacherRepo := postgres.NewTeacherRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	embeddingRepo := postgres.NewEmbeddingRepository(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := loadGallery(ctx, cfg, embeddingRepo)
	if err != nil {
		return fmt.Errorf("loading gallery: %w", err)
	}
	fmt.Printf("Gallery ready: %d embeddings for %d students\n", store.Len(), store.Identities())

	if cfg.Gallery.UseHNSW {
		fmt.Println("Building HNSW index over the gallery...")
		store.EnableIndex()
	}

	ledg := ledger.New(attendanceRepo, time.Local)
	detector := vision.NewDetector(cfg.Detector.URL, cfg.Detector.Model)
	broadcaster := stream.NewBroadcaster()

	pipeline := stream.NewPipeline(stream.Options{
		Detector:    detector,
		Matcher:     matcher.New(store, cfg.Tolerance()),
		Recorder:    ledg,
		Names:       studentRepo,
		Broadcaster: broadcaster,
		MaxSize:     cfg.Detector.MaxSize,
		Workers:     cfg.Stream.Workers,
		QueueSize:   cfg.Stream.QueueSize,
	})
	pipeline.Start(ctx)

	port, host, sessionSecret := resolveServeHostPort(cmd)

	server := web.NewServer(web.Deps{
		Teachers:      teacherRepo,
		Students:      studentRepo,
		Attendances:   attendanceRepo,
		Settings:      settingsRepo,
		Stream:        handlers.NewStreamHandler(pipeline, broadcaster),
		Zone:          time.Local,
		SessionSecret: sessionSecret,
		SessionRepo:   sessionRepo,
	}, port, host)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
		cancel()
	}()

	fmt.Printf("Starting Rollcall on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	// Let in-flight frames finish before the pools close.
	cancel()
	pipeline.Wait()
	return nil
}
