package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/coupons"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/devices"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/redemptions"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/settings"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Coupons(db dbx.DBTX) coupons.Repository
	Devices(db dbx.DBTX) devices.Repository
	Redemptions(db dbx.DBTX) redemptions.Repository
	Settings(db dbx.DBTX) settings.Repository
}
