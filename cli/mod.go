// Package cli defines how the modules of the node declare their commands
// without depending on a CLI framework.
//
// A module implements Initializer and sets its commands on the Provider it is
// given:
//
//	func (m module) SetCommands(p cli.Provider) {
//		cmd := p.SetCommand("contest")
//		sub := cmd.SetSubCommand("show")
//		sub.SetDescription("print a contest")
//		sub.SetFlags(cli.StringFlag{Name: "address", Required: true})
//		sub.SetAction(show)
//	}
//
// The package ucli builds the application out of those declarations.
package cli

import "time"

// Initializer is implemented by the modules contributing commands.
type Initializer interface {
	SetCommands(Provider)
}

// Provider creates the top-level commands.
type Provider interface {
	SetCommand(name string) CommandBuilder
}

// Builder collects the commands and produces the application.
type Builder interface {
	Provider

	Build() Application
}

// Application runs the command named by the arguments, the first one being
// the name of the binary.
type Application interface {
	Run(arguments []string) error
}

// CommandBuilder describes a command. A command either has an action or
// subcommands.
type CommandBuilder interface {
	SetDescription(value string)

	SetFlags(...Flag)

	SetAction(Action)

	// SetSubCommand returns the builder of a new subcommand.
	SetSubCommand(name string) CommandBuilder
}

// Action is run when its command is invoked.
type Action func(Flags) error

// Flag is one of the flag types of this package. The method only marks them.
type Flag interface {
	Flag()
}

// Flags gives an action the values of its flags. An unset flag reads as its
// default value, or the zero value when it has none.
type Flags interface {
	String(name string) string
	StringSlice(name string) []string
	Duration(name string) time.Duration
	Path(name string) string
	Int(name string) int
	Uint64(name string) uint64
	Bool(name string) bool
}
