package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/dmidem/near-handshake/pkg/config"
	rollog "github.com/dmidem/near-handshake/pkg/log"
	rollos "github.com/dmidem/near-handshake/pkg/os"
	"github.com/dmidem/near-handshake/pkg/p2p"
	"github.com/dmidem/near-handshake/pkg/p2p/key"
	"github.com/dmidem/near-handshake/types"
)

// maxConcurrentHandshakes bounds the number of peers probed at once.
const maxConcurrentHandshakes = 16

// ParseConfig is an helpers that loads the configuration and validates it.
func ParseConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("failed to validate config: %w", err)
	}

	return cfg, nil
}

// SetupLogger configures go-log for the process and returns the "main"
// subsystem logger. It applies the log format (text or JSON), the log level
// and optional stack traces for error logs.
func SetupLogger(cfg config.LogConfig) rollog.Logger {
	logCfg := logging.Config{
		Stderr: true,
		Format: logging.PlaintextOutput,
	}

	if cfg.Format == "json" {
		logCfg.Format = logging.JSONOutput
	}

	level, err := logging.LevelFromString(cfg.Level)
	switch {
	case err == nil:
		logCfg.Level = level
	case cfg.Level == "trace":
		logCfg.Level = logging.LevelDebug
	default:
		logCfg.Level = logging.LevelInfo
	}

	logging.SetupLogging(logCfg)

	logger := logging.Logger("main")
	if cfg.Trace {
		traced := logger.Desugar().WithOptions(zap.AddStacktrace(zapcore.ErrorLevel)).Sugar()
		logger = &logging.ZapEventLogger{SugaredLogger: *traced}
	}
	return rollog.FromEventLogger(logger)
}

// NewHandshakeCmd returns the command performing handshakes with the
// configured node or boot nodes.
func NewHandshakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handshake",
		Short: "Perform a handshake with a node and print its response",
		Long: `Connect to a node and perform the peer handshake without joining the network.

The node at --node_addr is identified by the public key in --node_key_file.
With --peers every listed boot node is probed concurrently instead.
When no genesis is given, it is learned from the node: a first handshake is
sent with an empty genesis and repeated with the genesis the node reports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ParseConfig(cmd)
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg.Log)

			ctx, stop := rollos.TrapSignal(cmd.Context(), logger)
			defer stop()

			return RunHandshakes(ctx, cmd.OutOrStdout(), cfg, logger)
		},
	}
	config.AddFlags(cmd)
	return cmd
}

// handshakeResult is the outcome of one handshake.
type handshakeResult struct {
	peer p2p.PeerInfo
	resp *types.HandshakeResponse
	err  error
}

// RunHandshakes performs a handshake with every configured target and
// prints each response or error to out. It fails if any handshake failed.
func RunHandshakes(ctx context.Context, out io.Writer, cfg config.Config, logger rollog.Logger) error {
	genesisID, err := cfg.GenesisID()
	if err != nil {
		return err
	}

	peers, err := resolvePeers(cfg)
	if err != nil {
		return err
	}

	metrics := p2p.NopMetrics()
	if cfg.Instrumentation.IsMetricsEnabled() {
		metrics = p2p.PrometheusMetrics(cfg.Instrumentation.Namespace)
	}

	results := make([]handshakeResult, len(peers))

	var g errgroup.Group
	g.SetLimit(maxConcurrentHandshakes)
	for i, peer := range peers {
		i, peer := i, peer
		g.Go(func() error {
			conn, resp, err := p2p.Connect(ctx, peer.Addr.String(), peer.ID, cfg.ListenPort,
				cfg.ConnectionTimeout, genesisID, cfg.HeadHeight,
				p2p.WithLogger(logger),
				p2p.WithMetrics(metrics),
				p2p.WithProtocolVersion(cfg.ProtocolVersion),
			)
			if err == nil {
				if cerr := conn.Close(); cerr != nil {
					logger.Debug("failed to close connection", "peer", peer.String(), "error", cerr)
				}
			} else {
				logger.Error("handshake failed", "peer", peer.String(), "error", err)
			}
			results[i] = handshakeResult{peer: peer, resp: resp, err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, result := range results {
		if result.err != nil {
			failed++
			fmt.Fprintf(out, "Error establishing connection to node %s: %v\n", result.peer, result.err)
			continue
		}
		fmt.Fprintf(out, "Handshake performed successfully, response from node %s:\n", result.peer)
		if err := PrintHandshake(out, &result.resp.Handshake); err != nil {
			return err
		}
	}

	if cfg.Instrumentation.IsMetricsEnabled() {
		if err := prometheus.WriteToTextfile(cfg.Instrumentation.MetricsTextfile, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d handshakes failed", failed, len(results))
	}
	return nil
}

// resolvePeers returns the configured boot nodes, or the node at node_addr
// identified by the node key file when no boot nodes are configured.
func resolvePeers(cfg config.Config) ([]p2p.PeerInfo, error) {
	if len(cfg.Peers) > 0 {
		return p2p.ParsePeerInfos(strings.Join(cfg.Peers, ","))
	}

	path, err := rollos.ExpandHome(cfg.NodeKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve node key file: %w", err)
	}
	nodeKey, err := key.LoadNodeKey(path)
	if err != nil {
		return nil, err
	}
	addr, err := p2p.GetMultiAddr(cfg.NodeAddr)
	if err != nil {
		return nil, fmt.Errorf("error parsing node address %q: %w", cfg.NodeAddr, err)
	}
	return []p2p.PeerInfo{{ID: nodeKey.PeerID(), Addr: addr}}, nil
}

// PrintHandshake writes a readable rendition of h to out.
func PrintHandshake(out io.Writer, h *types.Handshake) error {
	listenPort := "none"
	if h.HasListenPort() {
		listenPort = fmt.Sprint(h.SenderListenPort)
	}
	chain := h.SenderChainInfo

	w := tabwriter.NewWriter(out, 2, 0, 2, ' ', 0)
	rows := [][2]any{
		{"protocol version", h.ProtocolVersion},
		{"oldest supported version", h.OldestSupportedVersion},
		{"sender peer id", h.SenderPeerID},
		{"target peer id", h.TargetPeerID},
		{"sender listen port", listenPort},
		{"genesis chain id", chain.GenesisID.ChainID},
		{"genesis hash", chain.GenesisID.Hash},
		{"height", chain.Height},
		{"tracked shards", chain.TrackedShards},
		{"archival", chain.Archival},
		{"edge nonce", h.PartialEdgeInfo.Nonce},
		{"edge signature", h.PartialEdgeInfo.Signature},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "  %s:\t%v\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return w.Flush()
}
