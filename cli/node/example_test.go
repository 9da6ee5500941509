package node

import (
	"fmt"
	"os"
	"strings"

	"go.dedis.ch/ticket/cli"
)

func ExampleCLIBuilder_Build() {
	builder := NewBuilder(lobbyController{})

	// An action set directly runs in the process of the CLI, while the ones
	// made with MakeAction are sent to the daemon.
	cmd := builder.SetCommand("price")
	cmd.SetFlags(cli.Uint64Flag{Name: "tickets", Value: 1})
	cmd.SetAction(func(flags cli.Flags) error {
		fmt.Printf("%d tickets cost %d", flags.Uint64("tickets"), 25*flags.Uint64("tickets"))
		return nil
	})

	err := builder.Build().Run([]string{os.Args[0], "price", "--tickets", "4"})
	if err != nil {
		panic("app failed: " + err.Error())
	}

	// Output: 4 tickets cost 100
}

// Lobby is a component living in the daemon.
type Lobby interface {
	Open() []string
}

type staticLobby []string

func (l staticLobby) Open() []string {
	return l
}

// listAction prints the open contests of the lobby resolved in the daemon.
//
// - implements node.ActionTemplate
type listAction struct{}

// Execute implements node.ActionTemplate.
func (listAction) Execute(ctx Context) error {
	var lobby Lobby
	err := ctx.Injector.Resolve(&lobby)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, strings.Join(lobby.Open(), ctx.Flags.String("sep")))

	return nil
}

// lobbyController declares the list command and injects the lobby when the
// daemon starts.
//
// - implements node.Initializer
type lobbyController struct{}

// SetCommands implements node.Initializer.
func (lobbyController) SetCommands(builder Builder) {
	cmd := builder.SetCommand("list")
	cmd.SetDescription("list the open contests")
	cmd.SetFlags(cli.StringFlag{Name: "sep", Value: ","})
	cmd.SetAction(builder.MakeAction(listAction{}))
}

// OnStart implements node.Initializer.
func (lobbyController) OnStart(flags cli.Flags, inj Injector) error {
	inj.Inject(staticLobby{"spring", "summer"})

	return nil
}

// OnStop implements node.Initializer.
func (lobbyController) OnStop(Injector) error {
	return nil
}
