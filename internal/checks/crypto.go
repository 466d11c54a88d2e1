package checks

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
)

const tokenSubject = "migsmoke"

// Cryptography verifies authenticated encryption and token signing.
func Cryptography(context.Context) error {
	if err := sealRoundTrip([]byte("test message")); err != nil {
		return fmt.Errorf("xchacha20-poly1305: %w", err)
	}
	if err := tokenRoundTrip(); err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	return nil
}

// sealRoundTrip encrypts msg under a random key, decrypts it, and confirms
// that a tampered ciphertext is rejected.
func sealRoundTrip(msg []byte) error {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("new cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(msg)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, msg, nil)

	opened, err := aead.Open(nil, sealed[:aead.NonceSize()], sealed[aead.NonceSize():], nil)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}
	if !bytes.Equal(opened, msg) {
		return fmt.Errorf("decrypted %q, want %q", opened, msg)
	}

	sealed[len(sealed)-1] ^= 0xff
	if _, err := aead.Open(nil, sealed[:aead.NonceSize()], sealed[aead.NonceSize():], nil); err == nil {
		return errors.New("tampered ciphertext was accepted")
	}
	return nil
}

// tokenRoundTrip signs an HS256 token and verifies it with the same secret.
func tokenRoundTrip() error {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": tokenSubject,
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	parsed, err := jwt.Parse(signed, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !parsed.Valid {
		return errors.New("token reported invalid")
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return fmt.Errorf("read subject: %w", err)
	}
	if sub != tokenSubject {
		return fmt.Errorf("subject %q, want %q", sub, tokenSubject)
	}
	return nil
}
