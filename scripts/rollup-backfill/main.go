// rollup-backfill recomputes the daily usage rollup for a range of UTC days.
//
// Usage: go run ./scripts/rollup-backfill -from 2024-03-01 [-to 2024-03-31]
//
// Configuration: same config.yaml and environment variables as the server.
// The database must be PostgreSQL; the in-memory store has nothing to backfill.
// When REDIS_HOST is set the Redis day lock is used, so a backfill can run
// next to live servers.
//
// Flags:
//
//	-from   First day to recompute, YYYY-MM-DD (required)
//	-to     Last day to recompute, YYYY-MM-DD (default: yesterday)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/config"
	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

const dayLayout = "2006-01-02"

func main() {
	from := flag.String("from", "", "First day to recompute (YYYY-MM-DD)")
	to := flag.String("to", "", "Last day to recompute (YYYY-MM-DD, default: yesterday)")
	flag.Parse()

	if *from == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -from YYYY-MM-DD [-to YYYY-MM-DD]\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load("backfill")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		fmt.Fprintf(os.Stderr, "Backfill needs storage.driver=%q, got %q\n", config.StorageDriverPostgres, cfg.Storage.Driver)
		os.Exit(1)
	}

	days, err := dayRange(*from, *to, time.Now().UTC(), cfg.Analytics.BackfillMaxDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid range: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, days, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Backfill failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, days []time.Time, logger *zap.Logger) error {
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var locker database.DayLocker
	client, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if client != nil {
		defer func() { _ = client.Close() }()
		locker = database.NewRedisDayLocker(client, cfg.Analytics.RollupLockTTL, nil, logger)
	}

	usage := services.NewUsageAnalytics(services.UsageAnalyticsDeps{
		Projects:     repositories.NewProjectRepository(db),
		Generations:  repositories.NewGenerationRepository(db),
		Edits:        repositories.NewEditRepository(db),
		Feedback:     repositories.NewFeedbackRepository(db),
		UsageMetrics: repositories.NewUsageMetricRepository(db),
		Locker:       locker,
		Config:       cfg.Analytics,
	}, logger)

	for _, day := range days {
		metric, err := usage.CalculateDailyMetrics(ctx, &day)
		if err != nil {
			return fmt.Errorf("day %s: %w", day.Format(dayLayout), err)
		}
		rating := "-"
		if metric.AverageRating != nil {
			rating = fmt.Sprintf("%.2f", *metric.AverageRating)
		}
		fmt.Printf("%s  projects=%d  ai=%.1f%%  manual=%.1f%%  rating=%s\n",
			day.Format(dayLayout), metric.TotalProjects, metric.AIGeneratedRatio, metric.ManualEditRatio, rating)
	}
	fmt.Printf("\nRecomputed %d day(s)\n", len(days))
	return nil
}

// dayRange parses the inclusive [from, to] range into UTC midnights.
// An empty to means the day before now. The range may span at most maxDays days.
func dayRange(from, to string, now time.Time, maxDays int) ([]time.Time, error) {
	start, err := time.Parse(dayLayout, from)
	if err != nil {
		return nil, fmt.Errorf("-from: %w", err)
	}

	var end time.Time
	if to == "" {
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	} else {
		end, err = time.Parse(dayLayout, to)
		if err != nil {
			return nil, fmt.Errorf("-to: %w", err)
		}
	}

	if end.Before(start) {
		return nil, fmt.Errorf("-to %s is before -from %s", end.Format(dayLayout), start.Format(dayLayout))
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
		if maxDays > 0 && len(days) > maxDays {
			return nil, fmt.Errorf("range covers more than %d days", maxDays)
		}
	}
	return days, nil
}
