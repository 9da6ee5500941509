package node

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"time"

	"go.dedis.ch/ticket"
	"go.dedis.ch/ticket/cli"
	"golang.org/x/xerrors"
)

// socketClient sends a single command per connection to the daemon and
// prints the events it streams back.
//
// - implements node.Client
type socketClient struct {
	socketpath  string
	out         io.Writer
	dialTimeout time.Duration
	dialFn      func(network, addr string, timeout time.Duration) (net.Conn, error)
}

// Send implements node.Client. It returns when the daemon closes the
// connection, or with the first error event.
func (c socketClient) Send(data []byte) error {
	conn, err := c.dialFn("unix", c.socketpath, c.dialTimeout)
	if err != nil {
		return xerrors.Errorf("couldn't open connection: %v", err)
	}

	defer conn.Close()

	_, err = conn.Write(data)
	if err != nil {
		return xerrors.Errorf("couldn't write to daemon: %v", err)
	}

	dec := json.NewDecoder(conn)

	for {
		var evt event

		err = dec.Decode(&evt)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return xerrors.Errorf("fail to decode event: %v", err)
		}

		if evt.Err {
			return xerrors.New(evt.Value)
		}

		fmt.Fprintln(c.out, evt.Value)
	}
}

// socketFactory creates the daemon and the clients of the socket in the
// config folder.
//
// - implements node.DaemonFactory
type socketFactory struct {
	injector Injector
	actions  *actionMap
	out      io.Writer
}

// ClientFromContext implements node.DaemonFactory.
func (f socketFactory) ClientFromContext(flags cli.Flags) (Client, error) {
	client := socketClient{
		socketpath:  socketPath(flags),
		out:         f.out,
		dialTimeout: ioTimeout,
		dialFn:      net.DialTimeout,
	}

	return client, nil
}

// DaemonFromContext implements node.DaemonFactory.
func (f socketFactory) DaemonFromContext(flags cli.Flags) (Daemon, error) {
	path := socketPath(flags)

	daemon := &socketDaemon{
		logger:      ticket.Logger.With().Str("daemon", path).Logger(),
		socketpath:  path,
		injector:    f.injector,
		actions:     f.actions,
		closing:     make(chan struct{}),
		readTimeout: ioTimeout,
		listenFn:    net.Listen,
	}

	return daemon, nil
}

func socketPath(flags cli.Flags) string {
	return filepath.Join(flags.Path(ConfigFlag), SocketName)
}
