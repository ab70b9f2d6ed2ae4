package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/classtrack/rollcall/internal/config"
	"github.com/classtrack/rollcall/internal/database/postgres"
	"github.com/classtrack/rollcall/internal/roster"
	"github.com/classtrack/rollcall/internal/vision"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [photos or directories]",
	Short: "Enroll students from reference photos",
	Long: `Enroll students by extracting face embeddings from reference photos.
Each photo must contain exactly one face. The student's name is derived
from the file name ("Jana_Novakova.jpg" enrolls "Jana Novakova") unless
--name is given. A student may be enrolled from several photos; every
embedding improves matching.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Student name (only valid with a single photo)")
}

// collectPhotos expands directory arguments into their image files.
func collectPhotos(args []string) ([]string, error) {
	var photos []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			photos = append(photos, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".jpg", ".jpeg", ".png":
				photos = append(photos, filepath.Join(arg, e.Name()))
			}
		}
	}
	if len(photos) == 0 {
		return nil, errors.New("no photos found")
	}
	return photos, nil
}

// enrollPhoto extracts the single face from one photo and stores its
// embedding under the student's name.
func enrollPhoto(ctx context.Context, detector *vision.Detector, students *postgres.StudentRepository,
	embeddings *postgres.EmbeddingRepository, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	faces, err := detector.DetectFaces(ctx, data)
	if err != nil {
		return fmt.Errorf("detecting faces: %w", err)
	}
	if len(faces) != 1 {
		return fmt.Errorf("expected exactly one face, found %d", len(faces))
	}

	if name == "" {
		name = roster.NameFromPhoto(path)
	}
	studentID, err := students.Create(ctx, name)
	if err != nil {
		return err
	}
	return embeddings.Save(ctx, studentID, faces[0].Embedding, path)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	name := mustGetString(cmd, "name")
	photos, err := collectPhotos(args)
	if err != nil {
		return err
	}
	if name != "" && len(photos) > 1 {
		return errors.New("--name only makes sense with a single photo")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	studentRepo := postgres.NewStudentRepository(pool)
	embeddingRepo := postgres.NewEmbeddingRepository(pool)
	detector := vision.NewDetector(cfg.Detector.URL, cfg.Detector.Model)

	ctx := context.Background()
	bar := progressbar.Default(int64(len(photos)), "enrolling")

	var failed int
	for _, photo := range photos {
		if err := enrollPhoto(ctx, detector, studentRepo, embeddingRepo, photo, name); err != nil {
			fmt.Fprintf(os.Stderr, "\n%s: %v\n", photo, err)
			failed++
		}
		bar.Add(1)
	}

	count, err := embeddingRepo.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nEnrolled %d photos (%d failed), %d embeddings stored in total\n",
		len(photos)-failed, failed, count)
	if failed > 0 {
		return fmt.Errorf("%d photos failed to enroll", failed)
	}
	return nil
}
