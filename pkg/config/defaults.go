package config

import "strings"

// ApplyNamenodeDefaults sets default values for any unspecified
// namenode configuration fields. Zero values are replaced with
// defaults; explicit values are preserved.
func ApplyNamenodeDefaults(cfg *NamenodeConfig) {
	applyLoggingDefaults(&cfg.Logging)
	if cfg.InternalGrpcPort == 0 {
		cfg.InternalGrpcPort = 7000
	}
	if cfg.ExternalGrpcAddrs == "" {
		cfg.ExternalGrpcAddrs = "localhost:7000"
	}
	if cfg.APIPort == 0 {
		cfg.APIPort = 7080
	}
	if cfg.APIUsername == "" {
		cfg.APIUsername = "admin"
	}
	if cfg.ReplicationFactor == 0 {
		cfg.ReplicationFactor = 3
	}
}

// ApplyDatanodeDefaults sets default values for any unspecified
// datanode configuration fields.
func ApplyDatanodeDefaults(cfg *DatanodeConfig) {
	applyLoggingDefaults(&cfg.Logging)
	if cfg.DatanodeName == "" {
		cfg.DatanodeName = cfg.DatanodeID
	}
	if cfg.InternalGrpcPort == 0 {
		cfg.InternalGrpcPort = 8000
	}
	if cfg.InternalTCPPort == 0 {
		cfg.InternalTCPPort = 8001
	}
	if cfg.Storage.CreateMount && cfg.Storage.MountSizeInMegaByte == 0 {
		cfg.Storage.MountSizeInMegaByte = 1024
	}
}

// ApplyClientDefaults sets default values for any unspecified client
// configuration fields.
func ApplyClientDefaults(cfg *ClientConfig) {
	applyLoggingDefaults(&cfg.Logging)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}
