// Command natours runs the Natours API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	configs "github.com/natours/api/config"
	"github.com/natours/api/internal/constants"
	"github.com/natours/api/pkg/database"
	"github.com/natours/api/pkg/logger"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var config *configs.Config

	return &cli.App{
		Name:    "natours",
		Usage:   "Natours tour booking API",
		Version: constants.AppVersion,
		Before: func(c *cli.Context) error {
			var err error
			if config, err = configs.LoadConfig(); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.InitLogger(config); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "migrate",
						Usage: "Run migrations before serving",
					},
				},
				Action: func(c *cli.Context) error {
					return serve(c.Context, config, c.Bool("migrate"))
				},
			},
			{
				Name:  "migrate",
				Usage: "Create or update the database schema",
				Action: func(c *cli.Context) error {
					return withDB(config, func(db *gorm.DB) error {
						if err := database.AutoMigrate(db); err != nil {
							return fmt.Errorf("migrate: %w", err)
						}
						logger.GetLogger().Info("Database migrated successfully")
						return nil
					})
				},
			},
			{
				Name:  "seed",
				Usage: "Create the admin account from SEED_ADMIN_* settings",
				Action: func(c *cli.Context) error {
					return withDB(config, func(db *gorm.DB) error {
						created, err := database.Seed(db, database.Admin{
							Name:     config.Seed.AdminName,
							Email:    config.Seed.AdminEmail,
							Password: config.Seed.AdminPassword,
						})
						if err != nil {
							return err
						}
						logger.GetLogger().Info("Database seeded", zap.Bool("created", created))
						return nil
					})
				},
			},
		},
	}
}

func openDB(config *configs.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if config.IsProduction() {
		level = gormlogger.Error
	}
	return database.Open(database.Config{
		Driver:          config.Database.Driver,
		DSN:             config.DatabaseConnectionString(),
		MaxIdleConns:    config.Database.MaxIdleConns,
		MaxOpenConns:    config.Database.MaxOpenConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
		LogLevel:        level,
	})
}

func withDB(config *configs.Config, fn func(db *gorm.DB) error) error {
	db, err := openDB(config)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)
	return fn(db)
}
