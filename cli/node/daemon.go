package node

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

const (
	ioTimeout = 30 * time.Second

	// SocketName is the name of the socket file of the daemon in the config
	// folder.
	SocketName = "daemon.sock"
)

// event is a message streamed from the daemon to the client, one JSON object
// per line of output. The command fails on the client side with the value of
// the first event that has Err set.
type event struct {
	Err   bool
	Value string
}

// socketDaemon serves the commands of the clients over a Unix socket, so
// that the access to the node is granted by the permissions of the socket
// file.
//
// A request is the little-endian identifier of the action, on two bytes,
// followed by the JSON object of the flags.
//
// - implements node.Daemon
type socketDaemon struct {
	// Counts the accept loop and the connections being served.
	sync.WaitGroup

	logger      zerolog.Logger
	socketpath  string
	injector    Injector
	actions     *actionMap
	closing     chan struct{}
	readTimeout time.Duration
	listenFn    func(network, addr string) (net.Listener, error)
}

// Listen implements node.Daemon. A socket file left by a daemon that stopped
// without cleaning up is replaced, but a live daemon on the same folder is an
// error.
func (d *socketDaemon) Listen() error {
	probe, err := net.DialTimeout("unix", d.socketpath, time.Second)
	if err == nil {
		probe.Close()
		return xerrors.Errorf("a daemon is already listening on %s", d.socketpath)
	}

	err = os.Remove(d.socketpath)
	if err != nil && !os.IsNotExist(err) {
		return xerrors.Errorf("couldn't remove stale socket: %v", err)
	}

	socket, err := d.listenFn("unix", d.socketpath)
	if err != nil {
		return xerrors.Errorf("couldn't bind socket: %v", err)
	}

	d.Add(1)
	go d.acceptLoop(socket)

	go func() {
		<-d.closing
		socket.Close()
	}()

	return nil
}

func (d *socketDaemon) acceptLoop(socket net.Listener) {
	defer d.Done()

	for {
		conn, err := socket.Accept()
		if err != nil {
			select {
			case <-d.closing:
			default:
				d.logger.Err(err).Msg("daemon closed unexpectedly")
			}
			return
		}

		d.Add(1)
		go func() {
			defer d.Done()
			d.handleConn(conn)
		}()
	}
}

// readRequest reads the action identifier and the flags of a request. The
// identifier is -1 when the client closed the connection without sending
// anything, which is how the liveness of the daemon is probed.
func (d *socketDaemon) readRequest(conn net.Conn) (int, FlagSet, error) {
	conn.SetReadDeadline(time.Now().Add(d.readTimeout))

	header := make([]byte, 2)

	_, err := io.ReadFull(conn, header)
	if err == io.EOF {
		return -1, nil, nil
	}
	if err != nil {
		return 0, nil, xerrors.Errorf("stream corrupted: %v", err)
	}

	dec := json.NewDecoder(conn)
	dec.UseNumber()

	fset := make(FlagSet)
	err = dec.Decode(&fset)
	if err != nil {
		return 0, nil, xerrors.Errorf("failed to decode flags: %v", err)
	}

	return int(binary.LittleEndian.Uint16(header)), fset, nil
}

func (d *socketDaemon) handleConn(conn net.Conn) {
	defer conn.Close()

	id, fset, err := d.readRequest(conn)
	if err != nil {
		d.sendError(conn, err)
		return
	}
	if id < 0 {
		return
	}

	logger := d.logger.With().Int("action", id).Logger()

	action := d.actions.Get(uint16(id))
	if action == nil {
		d.sendError(conn, xerrors.Errorf("unknown command '%d'", id))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-d.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()

	err = action.Execute(Context{
		Injector: d.injector,
		Flags:    fset,
		Out:      newClientWriter(conn),
		ctx:      ctx,
	})

	logger.Debug().
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("command executed")

	if err != nil {
		d.sendError(conn, xerrors.Errorf("command error: %v", err))
	}
}

func (d *socketDaemon) sendError(conn net.Conn, err error) {
	err = json.NewEncoder(conn).Encode(event{Err: true, Value: err.Error()})
	if err != nil {
		d.logger.Warn().Err(err).Msg("failed to send error to the client")
	}
}

// Close implements node.Daemon. The running commands are cancelled and Close
// returns once they are done.
func (d *socketDaemon) Close() error {
	close(d.closing)
	d.Wait()

	return nil
}

// clientWriter streams what an action writes to the client.
//
// - implements io.Writer
type clientWriter struct {
	enc *json.Encoder
}

func newClientWriter(w io.Writer) *clientWriter {
	return &clientWriter{
		enc: json.NewEncoder(w),
	}
}

// Write implements io.Writer. Each call is one event, and the client prints
// each event on its own line, therefore a trailing line break is dropped.
func (w *clientWriter) Write(data []byte) (int, error) {
	err := w.enc.Encode(event{Value: strings.TrimSuffix(string(data), "\n")})
	if err != nil {
		return 0, xerrors.Errorf("while packing data: %v", err)
	}

	return len(data), nil
}
