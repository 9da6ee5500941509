// Package node builds the command line of a ticket node.
//
// The start command runs the daemon: it owns the database and the ledger, and
// listens on a Unix socket. Every other command is a thin client that forwards
// its flags to the daemon and prints what the daemon streams back, so that all
// the transactions go through the single ledger of the node.
package node

import (
	"context"
	"io"

	"go.dedis.ch/ticket/cli"
)

// Builder is given to the initializers to declare their commands.
type Builder interface {
	cli.Provider

	// SetStartFlags adds flags to the start command, read by the initializers
	// in OnStart.
	SetStartFlags(...cli.Flag)

	// MakeAction returns a CLI action that runs the template on the daemon.
	MakeAction(ActionTemplate) cli.Action
}

// ActionTemplate is the part of a command executed by the daemon.
type ActionTemplate interface {
	Execute(Context) error
}

// Context is what an action receives on the daemon: the components started by
// the initializers, the flags of the client, and the output streamed to it.
type Context struct {
	Injector Injector
	Flags    cli.Flags
	Out      io.Writer

	ctx context.Context
}

// Context returns a context cancelled when the daemon stops. It is never nil.
func (c Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}

	return c.ctx
}

// Injector holds the components of the daemon, looked up by type.
type Injector interface {
	// Resolve sets the pointed value to the first compatible component.
	Resolve(interface{}) error

	// Inject adds the component, replacing one of the same type.
	Inject(interface{})
}

// Initializer is implemented by each module of the node. The builder calls
// SetCommands once, and the daemon calls OnStart in the order the initializers
// are given, then OnStop in the reverse order.
type Initializer interface {
	SetCommands(Builder)

	// OnStart creates the components of the module and injects them.
	OnStart(cli.Flags, Injector) error

	// OnStop releases the components of the module.
	OnStop(Injector) error
}

// Client sends a packed command to the daemon.
type Client interface {
	Send([]byte) error
}

// Daemon serves the commands of the clients.
type Daemon interface {
	Listen() error
	Close() error
}

// DaemonFactory creates the daemon and its clients from the global flags.
type DaemonFactory interface {
	ClientFromContext(cli.Flags) (Client, error)
	DaemonFromContext(cli.Flags) (Daemon, error)
}
