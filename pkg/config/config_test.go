package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadNamenode(t *testing.T) {
	path := writeConfig(t, `
id: namenode-1
internal_grpc_port: 7100
external_grpc_addrs: "host:7100"
ledger_file: /tmp/ledger.log
api_port: 7180
api_jwt_sign_key: secret
replication_factor: 2
logging:
  level: debug
`)
	cfg, err := LoadNamenode(path)
	require.NoError(t, err)
	assert.Equal(t, "namenode-1", cfg.ID)
	assert.Equal(t, 7100, cfg.InternalGrpcPort)
	assert.Equal(t, 2, cfg.ReplicationFactor)
	// Defaults fill the gaps and normalize.
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "admin", cfg.APIUsername)
}

func TestLoadNamenodeDefaultsReplicationFactor(t *testing.T) {
	path := writeConfig(t, `
id: namenode-1
ledger_file: /tmp/ledger.log
`)
	cfg, err := LoadNamenode(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ReplicationFactor)
}

func TestLoadNamenodeMissingRequired(t *testing.T) {
	path := writeConfig(t, `
internal_grpc_port: 7100
`)
	_, err := LoadNamenode(path)
	require.Error(t, err)
}

func TestLoadDatanode(t *testing.T) {
	path := writeConfig(t, `
datanode_id: dn-1
namenode_addrs: "host:7100"
internal_grpc_port: 8100
internal_tcp_port: 8101
external_grpc_addrs: "host:8100"
external_tcp_addrs: "host:8101"
storage_config:
  storage_path: /tmp/dn1
  create_mount: true
`)
	cfg, err := LoadDatanode(path)
	require.NoError(t, err)
	assert.Equal(t, "dn-1", cfg.DatanodeID)
	assert.Equal(t, "/tmp/dn1", cfg.Storage.StoragePath)
	assert.True(t, cfg.Storage.CreateMount)
	// Mount size defaults when a mount is requested.
	assert.Equal(t, uint64(1024), cfg.Storage.MountSizeInMegaByte)
	// Display name falls back to the id.
	assert.Equal(t, "dn-1", cfg.DatanodeName)
}

func TestLoadClient(t *testing.T) {
	path := writeConfig(t, `
client_id: client-1
namenode_addrs: "host:7100"
`)
	cfg, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "client-1", cfg.ClientID)
}

func TestEnvOverridesConfigPath(t *testing.T) {
	fallback := writeConfig(t, `client_id: from-flag
namenode_addrs: a`)
	override := writeConfig(t, `client_id: from-env
namenode_addrs: b`)
	t.Setenv(EnvConfigPath, override)

	cfg, err := LoadClient(fallback)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ClientID)
}
