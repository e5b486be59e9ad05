package auditlog

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// nonceSize is the stream-cipher nonce length stored alongside every
// encrypted snapshot. A nonce is drawn fresh from a CSPRNG per encryption;
// reusing one under the same key breaks confidentiality.
const nonceSize = 16

// Keyring derives all audit-log key material from the single process-wide
// secret. Nothing derived is ever persisted: every key is recomputed on
// demand from the entity id, so rotating the secret invalidates all
// historical records but no per-entity bookkeeping exists.
type Keyring struct {
	secret [32]byte
}

func NewKeyring(secret [32]byte) *Keyring {
	return &Keyring{secret: secret}
}

// AttachmentKey derives the public object-store key for one attachment as a
// keyed hash over (message id, attachment id), rendered lowercase hex.
// Without the secret, knowing the ids gives no way to compute or guess it.
func (k *Keyring) AttachmentKey(messageID, attachmentID uint64) string {
	h, _ := blake2b.New256(k.secret[:])

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], messageID)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], attachmentID)
	h.Write(buf[:])

	return hex.EncodeToString(h.Sum(nil))
}

// messageKey derives the per-message symmetric encryption key.
func (k *Keyring) messageKey(messageID uint64) [32]byte {
	h, _ := blake2b.New256(k.secret[:])

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], messageID)
	h.Write(buf[:])

	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

// encryptedSnapshot is the stored envelope: the nonce is not secret but must
// be unique per encryption under a given message key.
type encryptedSnapshot struct {
	Nonce []byte `cbor:"1,keyasint"`
	Data  []byte `cbor:"2,keyasint"`
}

// Encrypt seals a serialized snapshot under the message's derived key with a
// fresh random nonce, returning the envelope blob written to the store.
func (k *Keyring) Encrypt(messageID uint64, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("draw nonce: %w", err)
	}

	data := make([]byte, len(plaintext))
	k.keystream(messageID, nonce).XORKeyStream(data, plaintext)

	env, err := cbor.Marshal(encryptedSnapshot{Nonce: nonce, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return env, nil
}

// Decrypt opens an envelope previously produced by Encrypt for the same
// message id and secret.
func (k *Keyring) Decrypt(messageID uint64, blob []byte) ([]byte, error) {
	var env encryptedSnapshot
	if err := cbor.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Nonce) != nonceSize {
		return nil, fmt.Errorf("envelope nonce is %d bytes, want %d", len(env.Nonce), nonceSize)
	}

	plaintext := make([]byte, len(env.Data))
	k.keystream(messageID, env.Nonce).XORKeyStream(plaintext, env.Data)
	return plaintext, nil
}

func (k *Keyring) keystream(messageID uint64, nonce []byte) cipher.Stream {
	key := k.messageKey(messageID)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		// Unreachable: the derived key is always 32 bytes.
		panic(err)
	}
	return cipher.NewCTR(block, nonce)
}
