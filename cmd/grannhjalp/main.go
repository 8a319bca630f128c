package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/commission"
	"github.com/grannhjalp/grannhjalp/internal/config"
	"github.com/grannhjalp/grannhjalp/internal/helpoffer"
	"github.com/grannhjalp/grannhjalp/internal/identity"
	"github.com/grannhjalp/grannhjalp/internal/locker"
	"github.com/grannhjalp/grannhjalp/internal/migration"
	"github.com/grannhjalp/grannhjalp/internal/need"
	"github.com/grannhjalp/grannhjalp/internal/notification"
	"github.com/grannhjalp/grannhjalp/internal/observability"
	"github.com/grannhjalp/grannhjalp/internal/processor"
	"github.com/grannhjalp/grannhjalp/internal/processor/stripe"
	"github.com/grannhjalp/grannhjalp/internal/profile"
	"github.com/grannhjalp/grannhjalp/internal/server"
	"github.com/grannhjalp/grannhjalp/internal/settlement"
	"github.com/grannhjalp/grannhjalp/internal/webhook"
	"github.com/grannhjalp/grannhjalp/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		identity.Module,
		locker.Module,
		fx.Provide(RegisterProcessor),

		// Functional domains
		profile.Module,
		need.Module,
		helpoffer.Module,
		commission.Module,
		notification.Module,
		settlement.Module,
		webhook.Module,

		migration.Module,
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

func RegisterProcessor(cfg config.Config) processor.Client {
	return stripe.New(cfg.ProcessorAPIKey)
}
