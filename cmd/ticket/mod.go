// Package main implements the ticket binary. It starts a daemon that keeps the
// ledger of the contests in a local database, and provides the commands to
// send it transactions.
//
// Unix example:
//
//	# Create the key of a participant.
//	ticket crypto signer new --save owner.key
//	ticket crypto signer read --path owner.key --format ADDRESS
//
//	# Start the daemon in the background.
//	ticket --config /tmp/ticket start --promaddr 127.0.0.1:9090 &
//
//	# Credit the accounts and create a contest of two tickets.
//	ticket --config /tmp/ticket ledger genesis --file $PWD/genesis.yaml
//	ticket --config /tmp/ticket contest create --key $PWD/owner.key \
//	  --name demo --price 100000000 --capacity 2
package main

import (
	"fmt"
	"io"
	"os"

	"go.dedis.ch/ticket/cli/node"
	contest "go.dedis.ch/ticket/contracts/contest/controller"
	ledger "go.dedis.ch/ticket/core/ordering/serial/controller"
	db "go.dedis.ch/ticket/core/store/kv/controller"
	signer "go.dedis.ch/ticket/crypto/ed25519/command"
)

type config struct {
	Channel chan os.Signal
	Writer  io.Writer
}

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, config{})
}

func runWithCfg(args []string, cfg config) error {
	builder := node.NewBuilderWithCfg(
		cfg.Channel,
		cfg.Writer,
		db.NewController(),
		ledger.NewController(),
		contest.NewController(),
	)

	signer.Initializer{}.SetCommands(builder)

	app := builder.Build()

	return app.Run(args)
}
