package delivery

import (
	"github.com/google/wire"

	"messenger/internal/registry"
)

var Set = wire.NewSet(
	NewRouter,
	wire.Bind(new(Broadcaster), new(*registry.Registry)),
	wire.Bind(new(PushSender), new(*KafkaPushQueue)),
)
