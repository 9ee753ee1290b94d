package dialog

import (
	"github.com/google/wire"
)

// Set wires the gorm-backed repository to the Repository interface and the
// manager on top of it.
var Set = wire.NewSet(
	NewPostgresRepository,
	wire.Bind(new(Repository), new(*PostgresRepository)),
	NewManager,
)
