// Package controller implements the CLI initializer of the ledger. It starts
// the ledger on top of the database of the daemon and provides the commands to
// mint the genesis balances and to read a balance.
package controller

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/ticket"
	"go.dedis.ch/ticket/cli"
	"go.dedis.ch/ticket/cli/node"
	"go.dedis.ch/ticket/core/execution/native"
	"go.dedis.ch/ticket/core/ordering/serial"
	"go.dedis.ch/ticket/core/store/kv"
	"golang.org/x/xerrors"
)

const (
	promAddrFlag = "promaddr"
	promPath     = "/metrics"

	shutdownTimeout = 5 * time.Second
)

// miniController is an initializer that creates the ledger and its execution
// service. It optionally serves the metrics of the application.
//
// - implements node.Initializer
type miniController struct {
	listenFn func(network, addr string) (net.Listener, error)

	server   *http.Server
	listener net.Listener
}

// NewController returns a new initializer for the ledger.
func NewController() node.Initializer {
	return &miniController{
		listenFn: net.Listen,
	}
}

// SetCommands implements node.Initializer. It defines the ledger commands.
func (m *miniController) SetCommands(builder node.Builder) {
	builder.SetStartFlags(
		cli.StringFlag{
			Name:  promAddrFlag,
			Usage: "address of the prometheus endpoint, disabled when empty",
		},
	)

	cmd := builder.SetCommand("ledger")
	cmd.SetDescription("Manage the accounts of the ledger")

	sub := cmd.SetSubCommand("genesis")
	sub.SetDescription("Credit the initial balances from a YAML file read by " +
		"the daemon. It can only be done once.")
	sub.SetFlags(cli.StringFlag{
		Name:     "file",
		Usage:    "path to the genesis file",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(genesisAction{readFn: os.ReadFile}))

	sub = cmd.SetSubCommand("balance")
	sub.SetDescription("Print the balance of an account")
	sub.SetFlags(cli.StringFlag{
		Name:     "address",
		Usage:    "hexadecimal address of the account",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(balanceAction{}))
}

// OnStart implements node.Initializer. It creates the ledger over the injected
// database and injects it with the execution service so that the contracts
// can be registered.
func (m *miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve database: %v", err)
	}

	exec := native.NewExecution()
	ledger := serial.NewService(db, exec)

	inj.Inject(exec)
	inj.Inject(ledger)

	addr := flags.String(promAddrFlag)
	if addr != "" {
		err = m.servePrometheus(addr)
		if err != nil {
			return xerrors.Errorf("failed to start prometheus: %v", err)
		}
	}

	return nil
}

// OnStop implements node.Initializer. It stops the metrics endpoint if any.
func (m *miniController) OnStop(node.Injector) error {
	if m.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := m.server.Shutdown(ctx)
	if err != nil {
		return xerrors.Errorf("failed to stop prometheus: %v", err)
	}

	m.server = nil

	return nil
}

func (m *miniController) servePrometheus(addr string) error {
	registry := prometheus.NewRegistry()

	for _, c := range ticket.PromCollectors {
		err := registry.Register(c)
		if err != nil {
			return xerrors.Errorf("failed to register: %v", err)
		}
	}

	listener, err := m.listenFn("tcp", addr)
	if err != nil {
		return xerrors.Errorf("failed to listen: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle(promPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.listener = listener
	m.server = &http.Server{Handler: mux}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			ticket.Logger.Err(err).Msg("prometheus endpoint stopped")
		}
	}()

	ticket.Logger.Info().
		Str("addr", listener.Addr().String()).
		Msg("prometheus endpoint started")

	return nil
}
