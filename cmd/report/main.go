package main

import (
	"context"
	"flag"
	"fmt"

	"jobhire/internal/config"
	"jobhire/internal/logger"
	"jobhire/internal/repository"
	"jobhire/internal/service"
	"jobhire/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	topUsers := flag.Int("top", 10, "Number of top users to report on (0 for all)")
	flag.Parse()

	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx := context.Background()

	// Connect to MongoDB
	store, err := storage.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close(ctx)
	logger.Info().Msg("Database connection established")

	appRepo := repository.NewApplicationRepo(store)
	userRepo := repository.NewUserRepo(store)
	reportSvc := service.NewReportService(appRepo, userRepo, logger)

	report, err := reportSvc.ActivityReport(ctx, *topUsers)
	if err != nil {
		logger.Fatal().Msgf("Failed to build activity report: %v", err)
	}

	fmt.Printf("Total applications: %d\n", report.TotalApplications)
	for _, ur := range report.Users {
		label := ur.UserID
		if ur.Email != "" {
			label = fmt.Sprintf("%s (%s)", ur.Email, ur.UserID)
		}
		fmt.Printf("\n%s: %d applications\n", label, ur.Total)
		for _, sc := range ur.ByStatus {
			fmt.Printf("  %-10s %d\n", sc.Key, sc.Count)
		}
	}
}
