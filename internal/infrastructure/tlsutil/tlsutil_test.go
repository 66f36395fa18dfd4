package tlsutil_test

import (
	"crypto/tls"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/profileguard/internal/infrastructure/tlsutil"
)

func TestDevBundle_Handshake(t *testing.T) {
	bundle, err := tlsutil.GenerateDevBundle(t.TempDir(), []string{"localhost", "127.0.0.1"})
	require.NoError(t, err)

	serverCfg, err := tlsutil.ServerConfig(bundle.ServerCert(), bundle.ServerKey())
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), serverCfg.MinVersion)

	lis, err := tls.Listen("tcp", "127.0.0.1:0", serverCfg)
	require.NoError(t, err)
	defer lis.Close()

	go func() {
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("ok"))
	}()

	clientCfg, err := tlsutil.ClientConfig(bundle.CACert())
	require.NoError(t, err)
	clientCfg.ServerName = "localhost"

	conn, err := tls.Dial("tcp", lis.Addr().String(), clientCfg)
	require.NoError(t, err)
	defer conn.Close()

	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(got))
}

func TestServerCredentials(t *testing.T) {
	bundle, err := tlsutil.GenerateDevBundle(t.TempDir(), []string{"localhost"})
	require.NoError(t, err)

	creds, err := tlsutil.ServerCredentials(bundle.ServerCert(), bundle.ServerKey())
	require.NoError(t, err)
	assert.Equal(t, "tls", creds.Info().SecurityProtocol)
}

func TestErrors(t *testing.T) {
	_, err := tlsutil.ServerConfig("missing.pem", "missing-key.pem")
	assert.Error(t, err)

	_, err = tlsutil.ClientConfig("missing-ca.pem")
	assert.Error(t, err)

	_, err = tlsutil.GenerateDevBundle(t.TempDir(), nil)
	assert.Error(t, err)

	cfg, err := tlsutil.ClientConfig("")
	require.NoError(t, err)
	assert.Nil(t, cfg.RootCAs)
}
