package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dmidem/near-handshake/pkg/log"
	"github.com/dmidem/near-handshake/pkg/p2p"
	"github.com/dmidem/near-handshake/types"
)

const (
	// FlagRootDir is a flag for specifying the directory holding the configuration file
	FlagRootDir = "home"

	// Target configuration flags

	// FlagNodeAddr is a flag for specifying the address of the node to connect to
	FlagNodeAddr = "node_addr"
	// FlagPeers is a flag for specifying boot nodes to probe instead of the local node
	FlagPeers = "peers"
	// FlagNodeKeyFile is a flag for specifying the key file identifying the node at node_addr
	FlagNodeKeyFile = "node_key_file"

	// Handshake configuration flags

	// FlagConnectionTimeout is a flag for specifying the dial and response timeout
	FlagConnectionTimeout = "connection_timeout"
	// FlagGenesisChainID is a flag for specifying the chain id of the genesis to propose
	FlagGenesisChainID = "genesis.chain_id"
	// FlagGenesisHash is a flag for specifying the hash of the genesis to propose
	FlagGenesisHash = "genesis.hash"
	// FlagHeadHeight is a flag for specifying the head height to advertise
	FlagHeadHeight = "head_height"
	// FlagListenPort is a flag for specifying the listen port to advertise
	FlagListenPort = "listen_port"
	// FlagProtocolVersion is a flag for specifying the protocol version to propose
	FlagProtocolVersion = "protocol_version"

	// Logging configuration flags

	// FlagLogLevel is a flag for specifying the log level
	FlagLogLevel = "log.level"
	// FlagLogFormat is a flag for specifying the log format
	FlagLogFormat = "log.format"
	// FlagLogTrace is a flag for enabling stack traces in error logs
	FlagLogTrace = "log.trace"

	// Instrumentation configuration flags

	// FlagMetricsTextfile is a flag for specifying where to write metrics after a run
	FlagMetricsTextfile = "instrumentation.metrics_textfile"
	// FlagMetricsNamespace is a flag for specifying the metrics namespace
	FlagMetricsNamespace = "instrumentation.namespace"
)

// Config stores the handshake client configuration.
type Config struct {
	RootDir string `mapstructure:"-"`

	NodeAddr    string   `mapstructure:"node_addr"`
	Peers       []string `mapstructure:"peers"`
	NodeKeyFile string   `mapstructure:"node_key_file"`

	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
	Genesis           GenesisConfig `mapstructure:"genesis"`
	HeadHeight        uint64        `mapstructure:"head_height"`
	ListenPort        uint16        `mapstructure:"listen_port"`
	ProtocolVersion   uint32        `mapstructure:"protocol_version"`

	Log             LogConfig             `mapstructure:"log"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation"`
}

// GenesisConfig identifies the genesis proposed in the handshake. Leaving
// both fields empty makes the client learn the genesis from the peer.
type GenesisConfig struct {
	ChainID string `mapstructure:"chain_id"`
	Hash    string `mapstructure:"hash"`
}

// LogConfig contains all logging configuration parameters
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Trace  bool   `mapstructure:"trace"`
}

// InstrumentationConfig contains the metrics configuration.
type InstrumentationConfig struct {
	// MetricsTextfile is a path the Prometheus text exposition is written to
	// once all handshakes are done. Empty disables metrics.
	MetricsTextfile string `mapstructure:"metrics_textfile"`
	Namespace       string `mapstructure:"namespace"`
}

// IsMetricsEnabled reports whether metrics should be collected.
func (c InstrumentationConfig) IsMetricsEnabled() bool {
	return c.MetricsTextfile != ""
}

// GenesisID returns the configured genesis, or nil when none is configured.
func (c Config) GenesisID() (*types.GenesisID, error) {
	if c.Genesis.ChainID == "" && c.Genesis.Hash == "" {
		return nil, nil
	}
	hash, err := types.CryptoHashFromString(c.Genesis.Hash)
	if err != nil {
		return nil, fmt.Errorf("invalid genesis hash %q: %w", c.Genesis.Hash, err)
	}
	return &types.GenesisID{ChainID: c.Genesis.ChainID, Hash: hash}, nil
}

// Validate checks the configuration, reporting every problem found.
func (c Config) Validate() error {
	var errs error

	if c.NodeAddr == "" && len(c.Peers) == 0 {
		errs = multierror.Append(errs, errors.New("either node_addr or peers must be set"))
	}
	if c.NodeAddr != "" {
		if _, err := p2p.GetMultiAddr(c.NodeAddr); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("node_addr: %w", err))
		}
	}
	for _, peer := range c.Peers {
		if _, err := p2p.ParsePeerInfo(peer); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("peers: %w", err))
		}
	}

	if c.ConnectionTimeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("connection_timeout must be positive, got %s", c.ConnectionTimeout))
	}
	if (c.Genesis.ChainID == "") != (c.Genesis.Hash == "") {
		errs = multierror.Append(errs, errors.New("genesis.chain_id and genesis.hash must be set together"))
	} else if _, err := c.GenesisID(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if c.ProtocolVersion < 2 {
		errs = multierror.Append(errs, fmt.Errorf("protocol_version %d is too low", c.ProtocolVersion))
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		errs = multierror.Append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errs
}

// AddGlobalFlags registers the flags shared by every command: logging
// configuration and the root directory.
func AddGlobalFlags(cmd *cobra.Command, appName string) {
	def := DefaultConfig
	cmd.PersistentFlags().String(FlagLogLevel, def.Log.Level, "Set the log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().String(FlagLogFormat, def.Log.Format, "Set the log format (text, json)")
	cmd.PersistentFlags().Bool(FlagLogTrace, def.Log.Trace, "Enable stack traces in error logs")
	cmd.PersistentFlags().String(FlagRootDir, DefaultRootDirWithName(appName), "Directory holding the "+ConfigName+" configuration file")
}

// AddFlags adds the handshake options to cmd.
func AddFlags(cmd *cobra.Command) {
	def := DefaultConfig

	cmd.Flags().StringP(FlagNodeAddr, "n", def.NodeAddr, "network address of the node to connect to (host:port or multiaddr)")
	cmd.Flags().StringSlice(FlagPeers, def.Peers, "boot nodes to probe instead of node_addr (<key_type>:<base58>@<host>:<port>)")
	cmd.Flags().String(FlagNodeKeyFile, def.NodeKeyFile, "key file identifying the node at node_addr")

	cmd.Flags().DurationP(FlagConnectionTimeout, "t", def.ConnectionTimeout, "dial and response timeout")
	cmd.Flags().StringP(FlagGenesisChainID, "c", def.Genesis.ChainID, "chain id of the genesis to propose (localnet, testnet, mainnet...), requires the genesis hash")
	cmd.Flags().StringP(FlagGenesisHash, "g", def.Genesis.Hash, "base58 hash of the genesis to propose, requires the genesis chain id; learned from the node when omitted")
	cmd.Flags().Uint64P(FlagHeadHeight, "b", def.HeadHeight, "head height to advertise")
	cmd.Flags().Uint16(FlagListenPort, def.ListenPort, "listen port to advertise (0 for none)")
	cmd.Flags().Uint32(FlagProtocolVersion, def.ProtocolVersion, "protocol version to propose")

	cmd.Flags().String(FlagMetricsTextfile, def.Instrumentation.MetricsTextfile, "write Prometheus metrics to this file after the run")
	cmd.Flags().String(FlagMetricsNamespace, def.Instrumentation.Namespace, "namespace of the exported metrics")
}

// Load loads the configuration in the following order of precedence:
// 1. DefaultConfig (lowest priority)
// 2. YAML configuration file in the root directory
// 3. Command line flags (highest priority)
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()

	config := DefaultConfig
	setDefaultsInViper(v, config)

	if home, _ := cmd.Flags().GetString(FlagRootDir); home != "" {
		config.RootDir = home
	}

	v.SetConfigName(ConfigBaseName)
	v.SetConfigType(ConfigExtension)
	if config.RootDir != "" {
		v.AddConfigPath(config.RootDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) {
			return config, fmt.Errorf("error reading YAML configuration: %w", err)
		}
	}

	var flagErrs error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == FlagRootDir {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			flagErrs = multierror.Append(flagErrs, err)
		}
	})
	if flagErrs != nil {
		return config, fmt.Errorf("unable to bind flags: %w", flagErrs)
	}

	if err := v.Unmarshal(&config, func(c *mapstructure.DecoderConfig) {
		c.TagName = "mapstructure"
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return config, fmt.Errorf("unable to decode configuration: %w", err)
	}

	if file := v.ConfigFileUsed(); file != "" {
		config.RootDir = filepath.Dir(file)
	}
	return config, nil
}

func setDefaultsInViper(v *viper.Viper, config Config) {
	v.SetDefault(FlagNodeAddr, config.NodeAddr)
	v.SetDefault(FlagPeers, config.Peers)
	v.SetDefault(FlagNodeKeyFile, config.NodeKeyFile)
	v.SetDefault(FlagConnectionTimeout, config.ConnectionTimeout)
	v.SetDefault(FlagGenesisChainID, config.Genesis.ChainID)
	v.SetDefault(FlagGenesisHash, config.Genesis.Hash)
	v.SetDefault(FlagHeadHeight, config.HeadHeight)
	v.SetDefault(FlagListenPort, config.ListenPort)
	v.SetDefault(FlagProtocolVersion, config.ProtocolVersion)
	v.SetDefault(FlagLogLevel, config.Log.Level)
	v.SetDefault(FlagLogFormat, config.Log.Format)
	v.SetDefault(FlagLogTrace, config.Log.Trace)
	v.SetDefault(FlagMetricsTextfile, config.Instrumentation.MetricsTextfile)
	v.SetDefault(FlagMetricsNamespace, config.Instrumentation.Namespace)
}
