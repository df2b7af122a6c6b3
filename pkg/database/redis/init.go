package redis

import (
	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/logger"
)

func init() {
	// Register Redis adapter with the global registry
	adapter.Register(dbcapabilities.Redis, func(log *logger.Logger) adapter.Connector {
		return New(WithLogger(log))
	})
}
