package message

import (
	"github.com/google/wire"

	"messenger/internal/dialog"
)

var Set = wire.NewSet(
	NewPostgresRepository,
	wire.Bind(new(Repository), new(*PostgresRepository)),
	wire.Bind(new(DialogStore), new(*dialog.Manager)),
	NewManager,
)
