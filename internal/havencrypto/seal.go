package havencrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/scrypt"
)

// Sealing errors.
var (
	// ErrSealCorrupt indicates the sealed record could not be parsed or
	// authenticated.
	ErrSealCorrupt = errors.New("sealed record is corrupt")

	// ErrSealExpired indicates the record was sealed under an older key
	// bucket and can no longer be opened.
	ErrSealExpired = errors.New("sealed record has expired")
)

// fixedSealSalt is the KDF salt for sealed records. The salt is fixed:
// confidentiality comes from the per-process secret mixed into
// derivation, and freshness from the time bucket.
var fixedSealSalt = []byte("haven.seal.v1") //nolint:gochecknoglobals // KDF constant

// scrypt parameters for interactive use.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	sealKeyLen   = 32
	sealVersion  = 1
	sealNonceLen = 12
)

// DefaultKeyBucket is the default rotation period for the sealing key.
const DefaultKeyBucket = 24 * time.Hour

// sealedRecord is the serialized envelope for a sealed value.
type sealedRecord struct {
	Version int    `json:"v"`
	Bucket  int64  `json:"bucket"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

// SealerOption configures a Sealer.
type SealerOption func(*Sealer)

// WithClock overrides the time source. Used in tests to exercise bucket
// expiry.
func WithClock(now func() time.Time) SealerOption {
	return func(s *Sealer) {
		s.now = now
	}
}

// Sealer seals and opens small secrets with a key derived from a
// process secret and the current time bucket. Records sealed in an
// earlier bucket fail to open with ErrSealExpired, giving the derived
// key a bounded lifetime.
type Sealer struct {
	secret []byte
	bucket time.Duration
	now    func() time.Time
}

// NewSealer creates a Sealer. A zero bucket uses DefaultKeyBucket.
func NewSealer(secret []byte, bucket time.Duration, opts ...SealerOption) *Sealer {
	if bucket <= 0 {
		bucket = DefaultKeyBucket
	}
	s := &Sealer{
		secret: append([]byte(nil), secret...),
		bucket: bucket,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRandomSealer creates a Sealer with a fresh random process secret.
func NewRandomSealer(bucket time.Duration, opts ...SealerOption) (*Sealer, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating seal secret: %w", err)
	}
	return NewSealer(secret, bucket, opts...), nil
}

// currentBucket returns the index of the current key bucket.
func (s *Sealer) currentBucket() int64 {
	return s.now().Unix() / int64(s.bucket.Seconds())
}

// deriveKey derives the sealing key for a bucket.
func (s *Sealer) deriveKey(bucket int64) ([]byte, error) {
	material := make([]byte, 0, len(s.secret)+8)
	material = append(material, s.secret...)
	material = binary.BigEndian.AppendUint64(material, uint64(bucket)) // #nosec G115 -- bucket index fits

	key, err := scrypt.Key(material, fixedSealSalt, scryptN, scryptR, scryptP, sealKeyLen)
	ZeroBytes(material)
	if err != nil {
		return nil, fmt.Errorf("deriving seal key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext under the current bucket's key with AES-GCM
// and a fresh random nonce, returning the serialized envelope.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	bucket := s.currentBucket()

	key, err := s.deriveKey(bucket)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, sealNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	record := sealedRecord{
		Version: sealVersion,
		Bucket:  bucket,
		Nonce:   nonce,
		Data:    gcm.Seal(nil, nonce, plaintext, nil),
	}

	out, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshaling sealed record: %w", err)
	}
	return out, nil
}

// Open authenticates and decrypts a sealed envelope. Records from an
// older bucket return ErrSealExpired; malformed or tampered records
// return ErrSealCorrupt.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	var record sealedRecord
	if err := json.Unmarshal(sealed, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSealCorrupt, err)
	}

	if record.Version != sealVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSealCorrupt, record.Version)
	}

	if record.Bucket != s.currentBucket() {
		return nil, ErrSealExpired
	}

	if len(record.Nonce) != sealNonceLen {
		return nil, fmt.Errorf("%w: bad nonce length", ErrSealCorrupt)
	}

	key, err := s.deriveKey(record.Bucket)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, record.Nonce, record.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSealCorrupt, err)
	}

	return plaintext, nil
}
