package services

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAddress_SkipsBoundPort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	addr, err := ListenAddress("127.0.0.1", port, port+20)

	require.NoError(t, err)
	assert.NotEqual(t, net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), addr)
}

func TestListenAddress_NoneFree(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	_, err = ListenAddress("127.0.0.1", port, port)

	assert.ErrorContains(t, err, "no free port")
}
