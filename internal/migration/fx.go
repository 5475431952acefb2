package migration

import (
	"github.com/openrentals/rentbill/internal/config"
	contractdomain "github.com/openrentals/rentbill/internal/contract/domain"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	templatedomain "github.com/openrentals/rentbill/internal/invoicetemplate/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// mysql/sqlite are dev conveniences; gorm keeps them in sync.
			return conn.AutoMigrate(
				&contractdomain.Contract{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
				&templatedomain.InvoiceTemplate{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
