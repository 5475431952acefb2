package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/openrentals/rentbill/internal/clock"
	"github.com/openrentals/rentbill/internal/config"
	"github.com/openrentals/rentbill/internal/invoice"
	"github.com/openrentals/rentbill/internal/invoicetemplate"
	"github.com/openrentals/rentbill/internal/logger"
	"github.com/openrentals/rentbill/internal/migration"
	"github.com/openrentals/rentbill/internal/server"
	"github.com/openrentals/rentbill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		invoice.Module,
		invoicetemplate.Module,

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
