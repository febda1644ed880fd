package p2p

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"

	"github.com/dmidem/near-handshake/types"
)

var errInvalidAddress = errors.New("invalid address format, expected [protocol://]<host>:<port> or a multiaddr")

// GetMultiAddr converts a network address into a Multiaddr.
// Input format: a multiaddr such as /ip4/127.0.0.1/tcp/24567, or
// [protocol://]<host>:<port> where host is an IPv4 or IPv6 address or a DNS name.
func GetMultiAddr(addr string) (multiaddr.Multiaddr, error) {
	if strings.HasPrefix(addr, "/") {
		return multiaddr.NewMultiaddr(addr)
	}

	proto := "tcp"
	if parts := strings.SplitN(addr, "://", 2); len(parts) == 2 {
		proto = parts[0]
		addr = parts[1]
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" || port == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidAddress, addr)
	}

	hostProto := "dns"
	if ip := net.ParseIP(host); ip != nil {
		hostProto = "ip6"
		if ip.To4() != nil {
			hostProto = "ip4"
		}
	}
	return multiaddr.NewMultiaddr("/" + hostProto + "/" + host + "/" + proto + "/" + port)
}

// DialArgs returns the network and address to pass to net.Dial for addr.
func DialArgs(addr string) (string, string, error) {
	maddr, err := GetMultiAddr(addr)
	if err != nil {
		return "", "", err
	}
	return manet.DialArgs(maddr)
}

// PeerInfo is a peer identity together with the address it listens on.
type PeerInfo struct {
	ID   types.PeerID
	Addr multiaddr.Multiaddr
}

func (p PeerInfo) String() string {
	return p.ID.String() + "@" + p.Addr.String()
}

// ParsePeerInfo parses a boot node entry of the form <key_type>:<base58>@<address>,
// for example ed25519:8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR@127.0.0.1:24567.
func ParsePeerInfo(s string) (PeerInfo, error) {
	at := strings.IndexRune(s, '@')
	if at == -1 {
		return PeerInfo{}, fmt.Errorf("invalid peer %q, expected <key_type>:<base58>@<address>", s)
	}

	id, err := types.PeerIDFromString(s[:at])
	if err != nil {
		return PeerInfo{}, fmt.Errorf("invalid peer id in %q: %w", s, err)
	}

	addr, err := GetMultiAddr(s[at+1:])
	if err != nil {
		return PeerInfo{}, err
	}
	return PeerInfo{ID: id, Addr: addr}, nil
}

// ParsePeerInfos parses a comma separated list of boot node entries.
func ParsePeerInfos(s string) ([]PeerInfo, error) {
	var peers []PeerInfo
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		peer, err := ParsePeerInfo(entry)
		if err != nil {
			return nil, err
		}
		peers = append(peers, peer)
	}
	return peers, nil
}
