package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zulandar/pitstop/internal/auth"
	"github.com/zulandar/pitstop/internal/config"
	"github.com/zulandar/pitstop/internal/db"
	"github.com/zulandar/pitstop/internal/notify"
	"github.com/zulandar/pitstop/internal/notify/discord"
	"github.com/zulandar/pitstop/internal/notify/slack"
	"github.com/zulandar/pitstop/internal/scheduler"
	"github.com/zulandar/pitstop/internal/server"
	"github.com/zulandar/pitstop/internal/vehicle"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Pitstop API server",
		Long:  "Starts the HTTP API, the SSE change feed and the reminder scheduler. Blocks until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pitstop.yaml", "path to Pitstop config file")
	return cmd
}

func runServe(configPath string) error {
	// Local development keeps secrets in .env; missing file is fine.
	godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gormDB, err := connectDB(cfg)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	secret := os.Getenv("PITSTOP_JWT_SECRET")
	authSvc, err := auth.NewService(secret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if err != nil {
		return err
	}

	courier, err := buildCourier(cfg, log)
	if err != nil {
		return err
	}
	if courier != nil {
		defer courier.Close()
	}

	sched := scheduler.New(gormDB, log)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, server.StartOpts{
		DB:       gormDB,
		Port:     cfg.Server.Port,
		Auth:     authSvc,
		Courier:  courier,
		Registry: vehicle.NewRegistryClient(cfg.Registry.BaseURL, cfg.Registry.ResourceID),
		Log:      log,
	})
}

// connectDB opens the configured database. MySQL reads its password from
// PITSTOP_DB_PASSWORD.
func connectDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Driver == "sqlite" {
		return db.ConnectSQLite(cfg.Database.Path)
	}
	return db.Connect(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		os.Getenv("PITSTOP_DB_PASSWORD"),
		cfg.Database.Database,
	)
}

// buildCourier assembles the chat fan-out from the enabled platforms, or
// returns nil when none are configured.
func buildCourier(cfg *config.Config, log *logrus.Logger) (*notify.Fanout, error) {
	var adapters []notify.Adapter

	if cfg.Courier.Slack.Enabled {
		a, err := slack.NewAdapter(slack.AdapterOpts{
			BotToken:  os.Getenv("PITSTOP_SLACK_TOKEN"),
			ChannelID: cfg.Courier.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if cfg.Courier.Discord.Enabled {
		a, err := discord.NewAdapter(discord.AdapterOpts{
			BotToken:  os.Getenv("PITSTOP_DISCORD_TOKEN"),
			ChannelID: cfg.Courier.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	if len(adapters) == 0 {
		return nil, nil
	}
	return notify.NewFanout(log, adapters...), nil
}
