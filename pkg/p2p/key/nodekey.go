package key

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	rollos "github.com/dmidem/near-handshake/pkg/os"
	"github.com/dmidem/near-handshake/types"
)

// DefaultNodeKeyFile is the node key location relative to the home directory.
const DefaultNodeKeyFile = ".near/node_key.json"

// NodeKey is the identity a node keeps in its node_key.json.
type NodeKey struct {
	AccountID string
	PublicKey types.PublicKey
	// SecretKey is nil when the file holds only the public half.
	SecretKey *types.SecretKey
}

type nodeKeyJSON struct {
	AccountID string `json:"account_id,omitempty"`
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface.
func (nodeKey *NodeKey) MarshalJSON() ([]byte, error) {
	aux := nodeKeyJSON{
		AccountID: nodeKey.AccountID,
		PublicKey: nodeKey.PublicKey.String(),
	}
	if nodeKey.SecretKey != nil {
		text, err := nodeKey.SecretKey.Text()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal secret key: %w", err)
		}
		aux.SecretKey = text
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (nodeKey *NodeKey) UnmarshalJSON(data []byte) error {
	aux := nodeKeyJSON{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.PublicKey == "" {
		return errors.New("public_key is missing")
	}

	pubKey, err := types.PublicKeyFromString(aux.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to parse public key %q: %w", aux.PublicKey, err)
	}

	var secretKey *types.SecretKey
	if aux.SecretKey != "" {
		sk, err := types.SecretKeyFromString(aux.SecretKey)
		if err != nil {
			return fmt.Errorf("failed to parse secret key: %w", err)
		}
		if !sk.PublicKey().Equal(pubKey) {
			return errors.New("secret key does not match public key")
		}
		secretKey = &sk
	}

	nodeKey.AccountID = aux.AccountID
	nodeKey.PublicKey = pubKey
	nodeKey.SecretKey = secretKey
	return nil
}

// PeerID returns the identity peers use to address the node.
func (nodeKey *NodeKey) PeerID() types.PeerID {
	return types.NewPeerID(nodeKey.PublicKey)
}

// SaveAs persists the NodeKey to filePath.
func (nodeKey *NodeKey) SaveAs(filePath string) error {
	jsonBytes, err := json.Marshal(nodeKey)
	if err != nil {
		return err
	}
	if err := rollos.EnsureDir(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return rollos.WriteFile(filePath, jsonBytes, 0o600)
}

// LoadNodeKey loads NodeKey located in filePath.
func LoadNodeKey(filePath string) (*NodeKey, error) {
	jsonBytes, err := rollos.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening node key file %s: %w", filePath, err)
	}
	nodeKey := new(NodeKey)
	if err := json.Unmarshal(jsonBytes, nodeKey); err != nil {
		return nil, fmt.Errorf("error parsing node key file %s: %w", filePath, err)
	}
	return nodeKey, nil
}

// DefaultNodeKeyPath returns DefaultNodeKeyFile under the user's home directory.
func DefaultNodeKeyPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory is required to locate the node key: %w", err)
	}
	return filepath.Join(home, DefaultNodeKeyFile), nil
}
