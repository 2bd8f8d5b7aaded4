// Package config loads and validates the YAML configuration for the
// namenode, datanode, and client binaries.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (WW_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// The config file path can be overridden with the WW_CONFIG environment
// variable or the --config CLI flag.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvConfigPath is the environment variable that overrides the config
// file location for every role.
const EnvConfigPath = "WW_CONFIG"

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level" yaml:"level"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus metrics surface.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// StorageConfig configures a datanode's chunk volume.
type StorageConfig struct {
	// StoragePath is the root directory for chunk files.
	StoragePath string `mapstructure:"storage_path" yaml:"storage_path"`

	// CreateMount mounts a bounded tmpfs at StoragePath on first boot.
	CreateMount bool `mapstructure:"create_mount" yaml:"create_mount"`

	// MountSizeInMegaByte bounds the tmpfs volume when CreateMount is set.
	MountSizeInMegaByte uint64 `mapstructure:"mount_size_in_mega_byte" yaml:"mount_size_in_mega_byte"`
}

// NamenodeConfig is the coordinator configuration.
type NamenodeConfig struct {
	// ID is this namenode's unique identifier.
	ID string `mapstructure:"id" yaml:"id"`

	// InternalGrpcPort is the listen port for the gRPC services.
	InternalGrpcPort int `mapstructure:"internal_grpc_port" yaml:"internal_grpc_port"`

	// ExternalGrpcAddrs is the address clients and datanodes dial.
	ExternalGrpcAddrs string `mapstructure:"external_grpc_addrs" yaml:"external_grpc_addrs"`

	// LedgerFile is the append-only metadata log path.
	LedgerFile string `mapstructure:"ledger_file" yaml:"ledger_file"`

	// APIPort is the listen port for the admin HTTP API.
	APIPort int `mapstructure:"api_port" yaml:"api_port"`

	// APIJwtSignKey signs admin API session tokens.
	APIJwtSignKey string `mapstructure:"api_jwt_sign_key" yaml:"api_jwt_sign_key"`

	// APIUsername and APIPassword gate the admin API login.
	APIUsername string `mapstructure:"api_username" yaml:"api_username"`
	APIPassword string `mapstructure:"api_password" yaml:"api_password"`

	// ReplicationFactor is the intended number of replicas per chunk.
	ReplicationFactor int `mapstructure:"replication_factor" yaml:"replication_factor"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// DatanodeConfig is the storage node configuration.
type DatanodeConfig struct {
	// DatanodeID is this node's unique identifier.
	DatanodeID string `mapstructure:"datanode_id" yaml:"datanode_id"`

	// DatanodeName is a human-readable display name.
	DatanodeName string `mapstructure:"datanode_name" yaml:"datanode_name"`

	// NamenodeAddrs is the coordinator's gRPC address.
	NamenodeAddrs string `mapstructure:"namenode_addrs" yaml:"namenode_addrs"`

	// TicketKey is this node's base64 AES-256 key, as issued by the
	// namenode admin API. Every inbound ticket decrypts under it.
	TicketKey string `mapstructure:"ticket_key" yaml:"ticket_key"`

	InternalGrpcPort int `mapstructure:"internal_grpc_port" yaml:"internal_grpc_port"`
	InternalTCPPort  int `mapstructure:"internal_tcp_port" yaml:"internal_tcp_port"`

	// ExternalGrpcAddrs and ExternalTCPAddrs are the addresses other
	// nodes use to reach this one.
	ExternalGrpcAddrs string `mapstructure:"external_grpc_addrs" yaml:"external_grpc_addrs"`
	ExternalTCPAddrs  string `mapstructure:"external_tcp_addrs" yaml:"external_tcp_addrs"`

	Storage StorageConfig `mapstructure:"storage_config" yaml:"storage_config"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ClientConfig is the client CLI configuration.
type ClientConfig struct {
	// ClientID identifies this client to the ticket subsystem.
	ClientID string `mapstructure:"client_id" yaml:"client_id"`

	// NamenodeAddrs is the coordinator's gRPC address.
	NamenodeAddrs string `mapstructure:"namenode_addrs" yaml:"namenode_addrs"`

	// TicketKey is this client's base64 AES-256 key.
	TicketKey string `mapstructure:"ticket_key" yaml:"ticket_key"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// load reads the YAML file at path (or the WW_CONFIG override) into out.
func load(path string, out any) error {
	if env := os.Getenv(EnvConfigPath); env != "" {
		path = env
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %q: %w", path, err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decoding config %q: %w", path, err)
	}
	return nil
}

// LoadNamenode loads, defaults, and validates a namenode config.
func LoadNamenode(path string) (*NamenodeConfig, error) {
	cfg := &NamenodeConfig{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	ApplyNamenodeDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatanode loads, defaults, and validates a datanode config.
func LoadDatanode(path string) (*DatanodeConfig, error) {
	cfg := &DatanodeConfig{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	ApplyDatanodeDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient loads, defaults, and validates a client config.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	ApplyClientDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required namenode fields.
func (c *NamenodeConfig) Validate() error {
	if c.ID == "" {
		return errors.New("namenode config: id is required")
	}
	if c.LedgerFile == "" {
		return errors.New("namenode config: ledger_file is required")
	}
	if c.InternalGrpcPort <= 0 {
		return errors.New("namenode config: internal_grpc_port is required")
	}
	if c.ReplicationFactor <= 0 {
		return errors.New("namenode config: replication_factor must be positive")
	}
	return nil
}

// Validate checks required datanode fields.
func (c *DatanodeConfig) Validate() error {
	if c.DatanodeID == "" {
		return errors.New("datanode config: datanode_id is required")
	}
	if c.NamenodeAddrs == "" {
		return errors.New("datanode config: namenode_addrs is required")
	}
	if c.InternalGrpcPort <= 0 || c.InternalTCPPort <= 0 {
		return errors.New("datanode config: internal ports are required")
	}
	if c.Storage.StoragePath == "" {
		return errors.New("datanode config: storage_config.storage_path is required")
	}
	return nil
}

// Validate checks required client fields.
func (c *ClientConfig) Validate() error {
	if c.ClientID == "" {
		return errors.New("client config: client_id is required")
	}
	if c.NamenodeAddrs == "" {
		return errors.New("client config: namenode_addrs is required")
	}
	return nil
}
