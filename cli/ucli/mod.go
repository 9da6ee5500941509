// Package ucli builds the command line application of the node with
// urfave/cli.
package ucli

import (
	"fmt"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/ticket/cli"
)

// Builder collects the commands declared by the modules.
//
// - implements cli.Builder
type Builder struct {
	name     string
	usage    string
	action   cli.Action
	flags    []cli.Flag
	commands []*cmdBuilder
}

// NewBuilder returns a builder for the application of the name. The action,
// which can be nil, runs when no command is given. The flags are global.
func NewBuilder(name string, action cli.Action, flags ...cli.Flag) cli.Builder {
	return &Builder{
		name:   name,
		action: action,
		flags:  flags,
	}
}

// SetUsage sets the one-line description of the application.
func (b *Builder) SetUsage(usage string) {
	b.usage = usage
}

// SetCommand implements cli.Provider. Two modules setting the same command
// share its builder.
func (b *Builder) SetCommand(name string) cli.CommandBuilder {
	return findOrAdd(&b.commands, name)
}

// Build implements cli.Builder.
func (b *Builder) Build() cli.Application {
	app := &urfave.App{
		Name:                 b.name,
		Usage:                b.usage,
		Flags:                buildFlags(b.flags),
		Action:               makeAction(b.action),
		Commands:             buildCommands(b.commands),
		EnableBashCompletion: true,
	}

	app.Setup()

	return app
}

// cmdBuilder is the declaration of a command.
//
// - implements cli.CommandBuilder
type cmdBuilder struct {
	name        string
	description string
	action      cli.Action
	flags       []urfave.Flag
	subcommands []*cmdBuilder
}

// SetDescription implements cli.CommandBuilder.
func (b *cmdBuilder) SetDescription(value string) {
	b.description = value
}

// SetFlags implements cli.CommandBuilder. It can be called more than once.
func (b *cmdBuilder) SetFlags(flags ...cli.Flag) {
	b.flags = append(b.flags, buildFlags(flags)...)
}

// SetAction implements cli.CommandBuilder.
func (b *cmdBuilder) SetAction(action cli.Action) {
	b.action = action
}

// SetSubCommand implements cli.CommandBuilder.
func (b *cmdBuilder) SetSubCommand(name string) cli.CommandBuilder {
	return findOrAdd(&b.subcommands, name)
}

func findOrAdd(cmds *[]*cmdBuilder, name string) *cmdBuilder {
	for _, cmd := range *cmds {
		if cmd.name == name {
			return cmd
		}
	}

	cmd := &cmdBuilder{name: name}
	*cmds = append(*cmds, cmd)

	return cmd
}

func buildCommands(cmds []*cmdBuilder) []*urfave.Command {
	commands := make([]*urfave.Command, 0, len(cmds))

	for _, cmd := range cmds {
		commands = append(commands, &urfave.Command{
			Name:        cmd.name,
			Usage:       cmd.description,
			Flags:       cmd.flags,
			Action:      makeAction(cmd.action),
			Subcommands: buildCommands(cmd.subcommands),
		})
	}

	return commands
}

// buildFlags panics on a flag type it does not know, which is a programming
// error of the module declaring it.
func buildFlags(flags []cli.Flag) []urfave.Flag {
	res := make([]urfave.Flag, 0, len(flags))

	for _, flag := range flags {
		res = append(res, convertFlag(flag))
	}

	return res
}

func convertFlag(flag cli.Flag) urfave.Flag {
	switch f := flag.(type) {
	case cli.StringFlag:
		return &urfave.StringFlag{Name: f.Name, Usage: f.Usage, Required: f.Required, Value: f.Value}
	case cli.StringSliceFlag:
		value := urfave.NewStringSlice(f.Value...)
		return &urfave.StringSliceFlag{Name: f.Name, Usage: f.Usage, Required: f.Required, Value: value}
	case cli.DurationFlag:
		return &urfave.DurationFlag{Name: f.Name, Usage: f.Usage, Required: f.Required, Value: f.Value}
	case cli.IntFlag:
		return &urfave.IntFlag{Name: f.Name, Usage: f.Usage, Required: f.Required, Value: f.Value}
	case cli.Uint64Flag:
		return &urfave.Uint64Flag{Name: f.Name, Usage: f.Usage, Required: f.Required, Value: f.Value}
	case cli.BoolFlag:
		return &urfave.BoolFlag{Name: f.Name, Usage: f.Usage, Required: f.Required, Value: f.Value}
	default:
		panic(fmt.Sprintf("flag type '%T' not supported", flag))
	}
}

// makeAction adapts the action to urfave/cli, whose context implements
// cli.Flags.
func makeAction(action cli.Action) urfave.ActionFunc {
	if action == nil {
		return nil
	}

	return func(ctx *urfave.Context) error {
		return action(ctx)
	}
}
