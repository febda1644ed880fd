package config

import (
	"os"
	"path/filepath"

	"github.com/dmidem/near-handshake/pkg/p2p"
	"github.com/dmidem/near-handshake/pkg/p2p/key"
)

const (
	// ConfigBaseName is the base name of the configuration file without extension.
	ConfigBaseName = "near-handshake"
	// ConfigExtension is the file extension for the configuration file without the leading dot.
	ConfigExtension = "yaml"
	// ConfigName is the file name of the configuration file.
	ConfigName = ConfigBaseName + "." + ConfigExtension

	// DefaultNodeAddr is the address of a node running with default settings on this host.
	DefaultNodeAddr = "127.0.0.1:24567"
	// DefaultLogLevel is the default log level for the application
	DefaultLogLevel = "info"
	// DefaultMetricsNamespace is the default namespace of exported metrics.
	DefaultMetricsNamespace = "near_handshake"
)

// DefaultRootDirWithName returns the default root directory for an application,
// based on the app name and the user's home directory
func DefaultRootDirWithName(appName string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+appName)
}

// DefaultConfig keeps default values of Config
var DefaultConfig = Config{
	NodeAddr:          DefaultNodeAddr,
	NodeKeyFile:       filepath.Join("~", key.DefaultNodeKeyFile),
	ConnectionTimeout: p2p.DefaultTimeout,
	ListenPort:        p2p.DefaultListenPort,
	ProtocolVersion:   p2p.ProtocolVersion,
	Log: LogConfig{
		Level:  DefaultLogLevel,
		Format: "text",
	},
	Instrumentation: InstrumentationConfig{
		Namespace: DefaultMetricsNamespace,
	},
}
