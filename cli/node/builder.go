package node

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/ticket"
	"go.dedis.ch/ticket/cli"
	"go.dedis.ch/ticket/cli/ucli"
	"golang.org/x/xerrors"
)

// ConfigFlag is the name of the global flag that defines the folder of the
// node. It contains the database and the socket of the daemon.
const ConfigFlag = "config"

// CLIBuilder is an application builder that will build a CLI to start and
// control a node.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	cli.Builder

	daemonFactory DaemonFactory
	injector      Injector
	actions       *actionMap
	startFlags    []cli.Flag
	inits         []Initializer
	writer        io.Writer

	// In production, the daemon is stopped via SIGTERM. In case of testing, the
	// channel is fed by the test instead.
	enableSignal bool
	sigs         chan os.Signal
}

// NewBuilder returns a new empty builder.
func NewBuilder(inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg(nil, nil, inits...)
}

// NewBuilderWithCfg returns a new empty builder with specific configurations.
func NewBuilderWithCfg(sigs chan os.Signal, out io.Writer, inits ...Initializer) *CLIBuilder {
	if out == nil {
		out = os.Stdout
	}

	enabled := false

	if sigs == nil {
		sigs = make(chan os.Signal, 1)
		enabled = true
	}

	injector := NewInjector()

	actions := &actionMap{}

	factory := socketFactory{
		injector: injector,
		actions:  actions,
		out:      out,
	}

	builder := ucli.NewBuilder("ticket", nil, cli.StringFlag{
		Name:  ConfigFlag,
		Usage: "path to the config folder",
		Value: ".ticket",
	}).(*ucli.Builder)

	builder.SetUsage("run a ticket contest ledger and send it transactions")

	return &CLIBuilder{
		Builder:       builder,
		injector:      injector,
		actions:       actions,
		daemonFactory: factory,
		enableSignal:  enabled,
		sigs:          sigs,
		inits:         inits,
		writer:        out,
	}
}

// SetStartFlags implements node.Builder. It appends the given flags to the list
// of flags that will be used to create the start command.
func (b *CLIBuilder) SetStartFlags(flags ...cli.Flag) {
	b.startFlags = append(b.startFlags, flags...)
}

// MakeAction implements node.Builder. The action returned runs on the client:
// it packs the flags of the command line and the daemon executes the template
// with them.
func (b *CLIBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	index := b.actions.Set(tmpl)

	return func(flags cli.Flags) error {
		client, err := b.daemonFactory.ClientFromContext(flags)
		if err != nil {
			return xerrors.Errorf("couldn't make client: %v", err)
		}

		fset := FlagSet{}
		if ctx, ok := flags.(*urfave.Context); ok {
			fset = collectFlags(ctx)
		}

		request, err := packRequest(index, fset)
		if err != nil {
			return err
		}

		err = client.Send(request)
		if err != nil {
			// The message comes from the daemon and is shown as is.
			return xerrors.Opaque(err)
		}

		return nil
	}
}

// packRequest encodes the identifier of the action on two bytes followed by
// the flags in JSON.
func packRequest(index uint16, fset FlagSet) ([]byte, error) {
	flags, err := json.Marshal(fset)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal flag set: %v", err)
	}

	request := binary.LittleEndian.AppendUint16(nil, index)

	return append(request, flags...), nil
}

// collectFlags returns the values of the flags of the command and of its
// parents. A flag defined at several levels takes the value of the closest one.
func collectFlags(ctx *urfave.Context) FlagSet {
	fset := make(FlagSet)

	for _, level := range ctx.Lineage() {
		var defs []urfave.Flag
		if level.Command != nil {
			defs = append(defs, level.Command.Flags...)
		}
		if level.App != nil {
			defs = append(defs, level.App.Flags...)
		}

		for _, def := range defs {
			names := def.Names()
			if len(names) == 0 {
				continue
			}

			if _, seen := fset[names[0]]; !seen {
				fset[names[0]] = jsonValue(level.Value(names[0]))
			}
		}
	}

	return fset
}

// jsonValue unwraps the values that do not marshal to JSON.
func jsonValue(v interface{}) interface{} {
	switch slice := v.(type) {
	case urfave.StringSlice:
		return slice.Value()
	case *urfave.StringSlice:
		return slice.Value()
	}

	return v
}

// Build implements cli.Builder. It returns the application.
func (b *CLIBuilder) Build() cli.Application {
	for _, controller := range b.inits {
		controller.SetCommands(b)
	}

	cmd := b.SetCommand("start")
	cmd.SetDescription("start the daemon")
	cmd.SetFlags(b.startFlags...)
	cmd.SetAction(b.start)

	return b.Builder.Build()
}

func (b *CLIBuilder) start(flags cli.Flags) error {
	if b.enableSignal {
		signal.Notify(b.sigs, syscall.SIGINT, syscall.SIGTERM)

		defer signal.Stop(b.sigs)
	}

	dir := flags.Path(ConfigFlag)
	if dir != "" {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			return xerrors.Errorf("couldn't make path: %v", err)
		}
	}

	daemon, err := b.daemonFactory.DaemonFromContext(flags)
	if err != nil {
		return xerrors.Errorf("couldn't make daemon: %v", err)
	}

	for i, init := range b.inits {
		err = init.OnStart(flags, b.injector)
		if err != nil {
			b.stop(i)
			return xerrors.Errorf("couldn't run the controller: %v", err)
		}
	}

	// The daemon accepts actions only once every component is started.
	err = daemon.Listen()
	if err != nil {
		b.stop(len(b.inits))
		return xerrors.Errorf("couldn't start the daemon: %v", err)
	}

	ticket.Logger.Info().Str("config", dir).Msg("daemon started")

	<-b.sigs

	// No action must be running while the components are stopped.
	daemon.Close()

	err = b.stop(len(b.inits))
	if err != nil {
		return xerrors.Errorf("couldn't stop controller: %v", err)
	}

	ticket.Logger.Info().Msg("daemon has been stopped")

	return nil
}

// stop stops the first n initializers in reverse order, so that the ledger is
// stopped before the database it writes to. It goes through all of them and
// returns the first error.
func (b *CLIBuilder) stop(n int) error {
	var first error

	for i := n - 1; i >= 0; i-- {
		err := b.inits[i].OnStop(b.injector)
		if err != nil && first == nil {
			first = err
		} else if err != nil {
			ticket.Logger.Warn().Err(err).Msg("failed to stop controller")
		}
	}

	return first
}

// actionMap stores actions and assigns a unique index to each.
type actionMap struct {
	list []ActionTemplate
}

func (m *actionMap) Set(a ActionTemplate) uint16 {
	m.list = append(m.list, a)
	return uint16(len(m.list) - 1)
}

func (m *actionMap) Get(index uint16) ActionTemplate {
	if int(index) >= len(m.list) {
		return nil
	}

	return m.list[index]
}
