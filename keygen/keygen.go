// Package keygen derives hour-bound watermark keys from an organization master key.
package keygen

import (
	"crypto/hkdf"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const (
	infoPrefix = "DSSS-Watermark-Key-V1"
	keyLen     = 32

	// HourLayout is the layout of the hour a key is bound to.
	HourLayout = "2006010215"
)

var ErrEmptyMasterKey = errors.New("master key must not be empty")

// Generator derives keys with HKDF-SHA256.
type Generator struct {
	ikm  []byte
	salt []byte
}

func New(masterKey, salt []byte) (*Generator, error) {
	if len(masterKey) == 0 {
		return nil, ErrEmptyMasterKey
	}
	return &Generator{
		ikm:  masterKey,
		salt: salt,
	}, nil
}

// Generate returns the raw key for the UTC hour containing timestamp.
func (g *Generator) Generate(timestamp time.Time) ([]byte, error) {
	info := fmt.Sprintf("%s-%s", infoPrefix, timestamp.UTC().Format(HourLayout))
	return hkdf.Key(sha256.New, g.ikm, g.salt, info, keyLen)
}

// Key returns Generate as a lowercase hex string, usable as a watermark key.
func (g *Generator) Key(timestamp time.Time) (string, error) {
	k, err := g.Generate(timestamp)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(k), nil
}

// ParseHour accepts RFC 3339 or HourLayout.
func ParseHour(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(HourLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour %q: want RFC3339 or %s", s, HourLayout)
	}
	return t, nil
}
