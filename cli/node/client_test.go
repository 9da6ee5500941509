package node

import (
	"bytes"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ticket/internal/testing/fake"
)

func TestSocketClient_Send(t *testing.T) {
	out := new(bytes.Buffer)

	client := socketClient{
		socketpath: filepath.Join(t.TempDir(), SocketName),
		out:        out,
		dialFn:     net.DialTimeout,
	}

	listen(t, client.socketpath)

	err := client.Send([]byte("deadbeef"))
	require.NoError(t, err)
	require.Equal(t, "deadbeef\n", out.String())
}

func TestSocketClient_FailDial_Send(t *testing.T) {
	client := socketClient{
		dialFn: func(network, addr string, timeout time.Duration) (net.Conn, error) {
			return nil, fake.GetError()
		},
	}

	err := client.Send(nil)
	require.EqualError(t, err, fake.Err("couldn't open connection"))
}

func TestSocketClient_BadConn_Send(t *testing.T) {
	client := socketClient{
		dialFn: func(network, addr string, timeout time.Duration) (net.Conn, error) {
			return badConn{}, nil
		},
	}

	err := client.Send([]byte{1, 2, 3})
	require.EqualError(t, err, fake.Err("couldn't write to daemon"))
}

func TestSocketFactory(t *testing.T) {
	factory := socketFactory{out: new(bytes.Buffer), actions: &actionMap{}}

	flags := FlagSet{ConfigFlag: "/tmp/node"}

	client, err := factory.ClientFromContext(flags)
	require.NoError(t, err)
	require.Equal(t, "/tmp/node/daemon.sock", client.(socketClient).socketpath)

	daemon, err := factory.DaemonFromContext(flags)
	require.NoError(t, err)
	require.Equal(t, "/tmp/node/daemon.sock", daemon.(*socketDaemon).socketpath)
}

// -----------------------------------------------------------------------------
// Utility functions

// listen accepts one connection and echoes its first 8 bytes as an event.
func listen(t *testing.T, path string) {
	socket, err := net.Listen("unix", path)
	require.NoError(t, err)

	t.Cleanup(func() { socket.Close() })

	go func() {
		fd, err := socket.Accept()
		if err != nil {
			return
		}

		defer fd.Close()

		buffer := make([]byte, 8)
		_, err = fd.Read(buffer)
		if err != nil {
			return
		}

		newClientWriter(fd).Write(buffer)
	}()
}
