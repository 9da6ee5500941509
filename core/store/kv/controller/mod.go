// Package controller implements the initializer opening the database of the
// daemon. The ledger and the contracts keep their whole state in it.
package controller

import (
	"path/filepath"

	"go.dedis.ch/ticket"
	"go.dedis.ch/ticket/cli"
	"go.dedis.ch/ticket/cli/node"
	"go.dedis.ch/ticket/core/store/kv"
	"golang.org/x/xerrors"
)

// DatabaseName is the name of the database file in the config folder, unless
// the daemon is started with another path.
const DatabaseName = "ticket.db"

const dbFlag = "db"

// minimal opens the database when the daemon starts and closes it when the
// daemon stops.
//
// - implements node.Initializer
type minimal struct {
	openFn func(path string) (kv.DB, error)
}

// NewController returns the initializer of the database.
func NewController() node.Initializer {
	return minimal{openFn: kv.New}
}

// SetCommands implements node.Initializer. It only adds a start flag.
func (m minimal) SetCommands(builder node.Builder) {
	builder.SetStartFlags(cli.StringFlag{
		Name:  dbFlag,
		Usage: "path to the database, inside the config folder by default",
	})
}

// OnStart implements node.Initializer.
func (m minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	path := flags.Path(dbFlag)
	if path == "" {
		path = filepath.Join(flags.Path("config"), DatabaseName)
	}

	db, err := m.openFn(path)
	if err != nil {
		return xerrors.Errorf("db: %v", err)
	}

	inj.Inject(db)

	ticket.Logger.Info().Str("path", path).Msg("database opened")

	return nil
}

// OnStop implements node.Initializer.
func (m minimal) OnStop(inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("while closing db: %v", err)
	}

	return nil
}
