// @title           Pulse API
// @version         1.0
// @description     Pulse Customer Health Scoring & Risk Alerting API

// @contact.name   API Support
// @contact.email  support@smallbiznis.dev

// @host      localhost:8080
// @BasePath  /api
// @Schemes 	http https

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/alert"
	"github.com/smallbiznis/pulse/internal/audit"
	"github.com/smallbiznis/pulse/internal/clock"
	"github.com/smallbiznis/pulse/internal/config"
	"github.com/smallbiznis/pulse/internal/customer"
	"github.com/smallbiznis/pulse/internal/events"
	"github.com/smallbiznis/pulse/internal/health"
	"github.com/smallbiznis/pulse/internal/migration"
	"github.com/smallbiznis/pulse/internal/observability"
	"github.com/smallbiznis/pulse/internal/scheduler"
	"github.com/smallbiznis/pulse/internal/seed"
	"github.com/smallbiznis/pulse/internal/server"
	"github.com/smallbiznis/pulse/internal/signal"
	"github.com/smallbiznis/pulse/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.Bootstrap.SeedCatalog {
				return seed.EnsureCatalog(conn)
			}
			return nil
		}),

		fx.Provide(events.NewOutbox),
		customer.Module,
		signal.Module,
		health.Module,
		alert.Module,
		audit.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
