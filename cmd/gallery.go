package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/classtrack/rollcall/internal/config"
	"github.com/classtrack/rollcall/internal/database/postgres"
	"github.com/classtrack/rollcall/internal/gallery"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Manage the match gallery snapshot",
}

var galleryExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export enrollment embeddings to a snapshot file",
	Long: `Export all enrollment embeddings from PostgreSQL into a gallery
snapshot file. The serve command loads the snapshot at startup when
GALLERY_SNAPSHOT_PATH points at it, avoiding a database dependency for
matching.`,
	Args: cobra.ExactArgs(1),
	RunE: runGalleryExport,
}

var galleryInspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Validate a snapshot file and print its stats",
	Args:  cobra.ExactArgs(1),
	RunE:  runGalleryInspect,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryExportCmd)
	galleryCmd.AddCommand(galleryInspectCmd)
}

func runGalleryExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	snap, err := postgres.NewEmbeddingRepository(pool).ExportSnapshot(context.Background())
	if err != nil {
		return fmt.Errorf("exporting snapshot: %w", err)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	fmt.Printf("Exported %d embeddings (dim %d) to %s\n", len(snap.Vectors), snap.Dim, args[0])
	return nil
}

func runGalleryInspect(cmd *cobra.Command, args []string) error {
	store, err := gallery.LoadFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot %s\n", args[0])
	fmt.Printf("  Embeddings: %d\n", store.Len())
	fmt.Printf("  Students:   %d\n", store.Identities())
	fmt.Printf("  Dimension:  %d\n", store.Dim())
	return nil
}
