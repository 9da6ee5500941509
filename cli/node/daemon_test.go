package node

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/ticket/internal/testing/fake"
)

func TestSocketDaemon_Listen(t *testing.T) {
	fset := FlagSet{"1": 1}

	buf, err := json.Marshal(&fset)
	require.NoError(t, err)

	actions := &actionMap{}
	actions.Set(fakeAction{intFlags: map[string]int{"1": 1}}) // id 0
	actions.Set(fakeAction{err: fake.GetError()})             // id 1

	daemon := &socketDaemon{
		logger:      zerolog.Nop(),
		socketpath:  filepath.Join(t.TempDir(), SocketName),
		actions:     actions,
		closing:     make(chan struct{}),
		readTimeout: 50 * time.Millisecond,
		listenFn:    net.Listen,
	}

	err = daemon.Listen()
	require.NoError(t, err)

	defer daemon.Close()

	out := new(bytes.Buffer)
	client := socketClient{
		socketpath:  daemon.socketpath,
		out:         out,
		dialTimeout: time.Second,
		dialFn:      net.DialTimeout,
	}

	err = client.Send(append([]byte{0x0, 0x0}, buf...))
	require.NoError(t, err)
	require.Equal(t, "deadbeef\n", out.String())

	err = client.Send(append([]byte{0x1, 0x0}, []byte("{}")...))
	require.EqualError(t, err, fake.Err("command error"))

	err = client.Send(append([]byte{0x2, 0x0}, []byte("{}")...))
	require.EqualError(t, err, "unknown command '2'")

	err = client.Send([]byte{0x0, 0x0, 0x0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode flags")

	err = client.Send([]byte{0x0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "stream corrupted: ")
}

func TestSocketDaemon_Close_RunningCommand(t *testing.T) {
	started := make(chan struct{})

	daemon := newTestDaemon(filepath.Join(t.TempDir(), SocketName))
	daemon.actions.Set(waitAction{started: started})

	require.NoError(t, daemon.Listen())

	client := socketClient{
		socketpath:  daemon.socketpath,
		out:         io.Discard,
		dialTimeout: time.Second,
		dialFn:      net.DialTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- client.Send([]byte("\x00\x00{}"))
	}()

	<-started

	// Close returns only once the command has been cancelled and answered.
	require.NoError(t, daemon.Close())
	require.EqualError(t, <-errs, "command error: context canceled")
}

func TestContext_Context(t *testing.T) {
	require.Equal(t, context.Background(), Context{}.Context())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Equal(t, context.Canceled, Context{ctx: ctx}.Context().Err())
}

func TestSocketDaemon_AlreadyRunning_Listen(t *testing.T) {
	path := filepath.Join(t.TempDir(), SocketName)

	first := newTestDaemon(path)
	require.NoError(t, first.Listen())

	defer first.Close()

	second := newTestDaemon(path)
	err := second.Listen()
	require.EqualError(t, err, "a daemon is already listening on "+path)
}

func TestSocketDaemon_StaleSocket_Listen(t *testing.T) {
	path := filepath.Join(t.TempDir(), SocketName)

	err := os.WriteFile(path, []byte("stale"), 0600)
	require.NoError(t, err)

	daemon := newTestDaemon(path)
	require.NoError(t, daemon.Listen())
	require.NoError(t, daemon.Close())
}

func TestSocketDaemon_BadListen(t *testing.T) {
	daemon := newTestDaemon(filepath.Join(t.TempDir(), SocketName))
	daemon.listenFn = func(network, addr string) (net.Listener, error) {
		return nil, fake.GetError()
	}

	err := daemon.Listen()
	require.EqualError(t, err, fake.Err("couldn't bind socket"))
}

func TestClientWriter_Write(t *testing.T) {
	out := bufferOf(t, "abc\n", "def")
	require.Equal(t, "{\"Err\":false,\"Value\":\"abc\"}\n{\"Err\":false,\"Value\":\"def\"}\n", out)

	w := newClientWriter(badConn{})
	_, err := w.Write([]byte("abc"))
	require.EqualError(t, err, fake.Err("while packing data"))
}

// -----------------------------------------------------------------------------
// Utility functions

func newTestDaemon(path string) *socketDaemon {
	return &socketDaemon{
		logger:      zerolog.Nop(),
		socketpath:  path,
		actions:     &actionMap{},
		closing:     make(chan struct{}),
		readTimeout: 50 * time.Millisecond,
		listenFn:    net.Listen,
	}
}

// waitAction blocks until the daemon cancels its context.
type waitAction struct {
	started chan struct{}
}

func (a waitAction) Execute(ctx Context) error {
	close(a.started)
	<-ctx.Context().Done()

	return ctx.Context().Err()
}

type badConn struct {
	net.Conn
}

func (c badConn) Write([]byte) (int, error) {
	return 0, fake.GetError()
}

func (c badConn) Close() error {
	return nil
}
