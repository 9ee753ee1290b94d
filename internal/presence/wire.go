package presence

import (
	"github.com/google/wire"
)

var Set = wire.NewSet(
	NewPostgresRepository,
	wire.Bind(new(Repository), new(*PostgresRepository)),
	NewRedisOnlineStore,
	wire.Bind(new(OnlineStore), new(*RedisOnlineStore)),
	NewManager,
)
