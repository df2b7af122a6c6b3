package mysql

import (
	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/logger"
)

func init() {
	// Register MySQL adapter with the global registry
	adapter.Register(dbcapabilities.MySQL, func(log *logger.Logger) adapter.Connector {
		return New(WithLogger(log))
	})
}
