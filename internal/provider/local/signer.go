// Package local provides an in-process signing provider backed by a
// BIP39 mnemonic. It is the lowest-priority provider: a wallet that
// still works when no external endpoint is reachable.
package local

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/havenhq/haven/internal/havencrypto"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// hardened marks a hardened BIP32 child index.
const hardened = bip32.FirstHardenedChild

// ethCoinType is the BIP44 coin type for Ethereum.
const ethCoinType = 60

// Signer derives accounts from a BIP39 seed along the standard
// Ethereum path m/44'/60'/0'/0/i and signs personal messages with
// them.
type Signer struct {
	keys      []*ecdsa.PrivateKey
	addresses []string
	chainID   string
}

// NewSigner derives count accounts from the mnemonic. The chainID is
// reported verbatim on eth_chainId queries.
func NewSigner(mnemonic, passphrase, chainID string, count int) (*Signer, error) {
	if !bip39.IsMnemonicValid(strings.TrimSpace(mnemonic)) {
		return nil, havenerr.ErrInvalidMnemonic
	}
	if count <= 0 {
		count = 1
	}

	seed := bip39.NewSeed(strings.TrimSpace(mnemonic), passphrase)
	defer havencrypto.ZeroBytes(seed)

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}

	s := &Signer{chainID: chainID}
	for i := 0; i < count; i++ {
		key, err := deriveAccountKey(master, uint32(i))
		if err != nil {
			return nil, err
		}
		s.keys = append(s.keys, key)
		s.addresses = append(s.addresses, crypto.PubkeyToAddress(key.PublicKey).Hex())
	}
	return s, nil
}

// deriveAccountKey walks m/44'/60'/0'/0/index.
func deriveAccountKey(master *bip32.Key, index uint32) (*ecdsa.PrivateKey, error) {
	path := []uint32{hardened + 44, hardened + ethCoinType, hardened, 0, index}

	key := master
	for _, step := range path {
		child, err := key.NewChildKey(step)
		if err != nil {
			return nil, fmt.Errorf("deriving child %d: %w", step, err)
		}
		key = child
	}

	priv, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, fmt.Errorf("converting derived key: %w", err)
	}
	return priv, nil
}

// Addresses returns the derived account addresses, EIP-55
// checksummed, in derivation order.
func (s *Signer) Addresses() []string {
	out := make([]string, len(s.addresses))
	copy(out, s.addresses)
	return out
}

// ChainID returns the configured chain ID.
func (s *Signer) ChainID() string {
	return s.chainID
}

// SignPersonal signs a message for the given account using the
// EIP-191 personal-message envelope. The message may be a 0x-prefixed
// hex string or plain text.
func (s *Signer) SignPersonal(address, message string) (string, error) {
	key, err := s.keyFor(address)
	if err != nil {
		return "", err
	}

	payload := decodeMessage(message)
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(payload), payload)
	digest := crypto.Keccak256([]byte(prefixed))

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return "", fmt.Errorf("signing message: %w", err)
	}

	// Recovery id goes on the wire as v = 27 or 28.
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig), nil
}

// keyFor finds the private key for an address, case-insensitively.
func (s *Signer) keyFor(address string) (*ecdsa.PrivateKey, error) {
	for i, addr := range s.addresses {
		if strings.EqualFold(addr, address) {
			return s.keys[i], nil
		}
	}
	return nil, havenerr.WithDetails(havenerr.ErrInvalidAddress, map[string]string{
		"address": address,
	})
}

// decodeMessage interprets a personal_sign payload: hex when
// 0x-prefixed and decodable, the raw text otherwise.
func decodeMessage(message string) []byte {
	if strings.HasPrefix(message, "0x") {
		if raw, err := hex.DecodeString(message[2:]); err == nil {
			return raw
		}
	}
	return []byte(message)
}
