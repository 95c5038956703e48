package primitives

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/nacl/box"
)

// The split-value protocol never exercises encryption on its critical path;
// sym_enc/sym_dec and pk_enc/pk_dec are explicit no-op placeholders in the
// original prototype, kept here only so a deployment wiring real channel
// security has an obvious, idiomatic place to start from. SPEC_FULL.md's
// domain-stack section documents these as off-path replacements.

var errCiphertextTooShort = errors.New("primitives: ciphertext too short")

// SymEncrypt authenticated-encrypts plaintext under a 32-byte key using
// ChaCha20-Poly1305, replacing the prototype's no-op symmetric placeholder.
func SymEncrypt(key [chacha20poly1305.KeySize]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// SymDecrypt reverses SymEncrypt.
func SymDecrypt(key [chacha20poly1305.KeySize]byte, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, errCiphertextTooShort
	}
	nonce, rest := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	return aead.Open(nil, nonce, rest, nil)
}

// PKKeyPair is a NaCl box key pair, replacing the prototype's no-op
// public-key placeholder.
type PKKeyPair struct {
	Public  *[32]byte
	Private *[32]byte
}

// PKGenerateKeyPair generates a fresh NaCl box key pair.
func PKGenerateKeyPair() (*PKKeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PKKeyPair{Public: pub, Private: priv}, nil
}

// PKEncrypt encrypts plaintext to recipientPub, authenticated by senderPriv.
func PKEncrypt(plaintext []byte, recipientPub, senderPriv *[32]byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return box.Seal(nonce[:], plaintext, &nonce, recipientPub, senderPriv), nil
}

// PKDecrypt reverses PKEncrypt.
func PKDecrypt(ciphertext []byte, senderPub, recipientPriv *[32]byte) ([]byte, error) {
	if len(ciphertext) < 24 {
		return nil, errCiphertextTooShort
	}
	var nonce [24]byte
	copy(nonce[:], ciphertext[:24])
	out, ok := box.Open(nil, ciphertext[24:], &nonce, senderPub, recipientPriv)
	if !ok {
		return nil, errors.New("primitives: box authentication failed")
	}
	return out, nil
}
