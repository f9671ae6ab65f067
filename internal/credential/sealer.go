package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mixelka/inboxlens/pkg/models"
)

// Codec serializes credentials, sealing them with AES-256-GCM when a key is set
type Codec struct {
	gcm cipher.AEAD
}

// NewCodec creates a codec. An empty key stores credentials as plain JSON.
func NewCodec(key string) (*Codec, error) {
	if key == "" {
		return &Codec{}, nil
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Codec{gcm: gcm}, nil
}

// Sealed reports whether the codec encrypts its output
func (c *Codec) Sealed() bool {
	return c.gcm != nil
}

// Encode serializes a credential
func (c *Codec) Encode(cred *models.Credential) ([]byte, error) {
	data, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential: %w", err)
	}
	if c.gcm == nil {
		return data, nil
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := c.gcm.Seal(nonce, nonce, data, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

// Decode deserializes a credential produced by Encode
func (c *Codec) Decode(raw []byte) (*models.Credential, error) {
	data := raw
	if c.gcm != nil {
		decoded, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode: %w", err)
		}
		if len(decoded) < c.gcm.NonceSize() {
			return nil, fmt.Errorf("ciphertext too short")
		}

		nonce, ciphertext := decoded[:c.gcm.NonceSize()], decoded[c.gcm.NonceSize():]
		data, err = c.gcm.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt: %w", err)
		}
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	return &cred, nil
}
