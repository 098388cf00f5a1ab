package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/rentkit/payflow/internal/alert"
	"github.com/rentkit/payflow/internal/amazonpay"
	"github.com/rentkit/payflow/internal/charge"
	"github.com/rentkit/payflow/internal/checkout"
	"github.com/rentkit/payflow/internal/clock"
	"github.com/rentkit/payflow/internal/config"
	"github.com/rentkit/payflow/internal/identity"
	"github.com/rentkit/payflow/internal/logger"
	"github.com/rentkit/payflow/internal/migration"
	obsmetrics "github.com/rentkit/payflow/internal/observability/metrics"
	"github.com/rentkit/payflow/internal/order"
	"github.com/rentkit/payflow/internal/orderlock"
	"github.com/rentkit/payflow/internal/reconcile"
	"github.com/rentkit/payflow/internal/server"
	"github.com/rentkit/payflow/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		clock.Module,
		obsmetrics.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,
		alert.Module,
		orderlock.Module,

		// Payment domains
		amazonpay.Module,
		charge.Module,
		order.Module,
		identity.Module,
		checkout.Module,
		reconcile.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
