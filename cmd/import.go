package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/classtrack/rollcall/internal/config"
	"github.com/classtrack/rollcall/internal/database/mariadb"
	"github.com/classtrack/rollcall/internal/database/postgres"
	"github.com/classtrack/rollcall/internal/ledger"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import students and attendance history from the legacy system",
	Long: `Import the legacy MariaDB deployment's students and attendance
records into PostgreSQL. Students are matched by name, so re-running the
import is safe; attendance records collapse to one per student per day,
keeping the earliest sighting.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("dsn", "", "Legacy MariaDB DSN (defaults to LEGACY_DATABASE_DSN)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	dsn := mustGetString(cmd, "dsn")
	if dsn == "" {
		dsn = cfg.Legacy.DSN
	}
	if dsn == "" {
		return errors.New("legacy DSN is required (--dsn or LEGACY_DATABASE_DSN)")
	}

	legacy, err := mariadb.NewPool(dsn)
	if err != nil {
		return fmt.Errorf("connecting to legacy database: %w", err)
	}
	defer legacy.Close()

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	studentRepo := postgres.NewStudentRepository(pool)
	attendanceRepo := postgres.NewAttendanceRepository(pool)
	ctx := context.Background()

	students, err := legacy.Students(ctx)
	if err != nil {
		return err
	}

	// Legacy ids do not survive the import; records are re-keyed through
	// the name-matched roster.
	idMap := make(map[int64]int64, len(students))
	bar := progressbar.Default(int64(len(students)), "students")
	for _, s := range students {
		newID, err := studentRepo.Create(ctx, s.Name)
		if err != nil {
			return fmt.Errorf("importing student %q: %w", s.Name, err)
		}
		idMap[s.ID] = newID
		bar.Add(1)
	}

	records, err := legacy.Attendances(ctx)
	if err != nil {
		return err
	}

	var imported, skipped int
	bar = progressbar.Default(int64(len(records)), "attendance")
	for _, rec := range records {
		newID, ok := idMap[rec.StudentID]
		if !ok {
			skipped++
			bar.Add(1)
			continue
		}
		day := rec.Timestamp.In(time.Local).Format(ledger.DayLayout)
		inserted, err := attendanceRepo.InsertIfAbsent(ctx, newID, rec.Timestamp, day)
		if err != nil {
			return fmt.Errorf("importing attendance for student %d on %s: %w", newID, day, err)
		}
		if inserted {
			imported++
		} else {
			skipped++
		}
		bar.Add(1)
	}

	fmt.Printf("\nImported %d students, %d attendance records (%d duplicates or orphans skipped)\n",
		len(students), imported, skipped)
	return nil
}
