package mongodb

import (
	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/logger"
)

func init() {
	// Register MongoDB adapter with the global registry
	adapter.Register(dbcapabilities.MongoDB, func(log *logger.Logger) adapter.Connector {
		return New(WithLogger(log))
	})
}
