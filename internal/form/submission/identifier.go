// Package submission stores form submissions and resolves their public
// identifiers. Two formats coexist: the current UUID public_id, assigned to
// every new submission, and the deprecated reversible short hash derived from
// the numeric primary key. Migration is one-way: once a submission has a
// UUID, its legacy hash form is permanently rejected.
package submission

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	hashids "github.com/speps/go-hashids/v2"
)

// ErrUnknownIdentifier is returned when a raw identifier is neither a UUID
// nor a decodable legacy hash.
var ErrUnknownIdentifier = errors.New("identifier is neither a UUID nor a legacy hash")

const legacyHashMinLength = 8

// Kind discriminates the two identifier formats.
type Kind int

const (
	KindUUID Kind = iota
	KindLegacyHash
)

// Identifier is a parsed submission identifier: exactly one of UUID or Key is
// meaningful, selected by Kind.
type Identifier struct {
	Kind Kind
	UUID uuid.UUID
	Key  int64
}

// Codec encodes and decodes the legacy reversible hash format. The salt is
// deployment-wide configuration; changing it invalidates every legacy hash in
// circulation.
type Codec struct {
	hash *hashids.HashID
}

func NewCodec(salt string) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = legacyHashMinLength

	hash, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize legacy hash codec: %w", err)
	}

	return &Codec{hash: hash}, nil
}

// Encode produces the legacy hash for a numeric submission key. Used only for
// submissions that never received a UUID.
func (c *Codec) Encode(key int64) string {
	encoded, err := c.hash.EncodeInt64([]int64{key})
	if err != nil {
		// EncodeInt64 fails only for negative inputs, which primary keys
		// never are.
		return ""
	}
	return encoded
}

// Parse classifies a raw identifier. UUIDs take precedence; anything else is
// attempted as a legacy hash decode.
func (c *Codec) Parse(raw string) (Identifier, error) {
	if id, err := uuid.Parse(raw); err == nil {
		return Identifier{Kind: KindUUID, UUID: id}, nil
	}

	keys, err := c.hash.DecodeInt64WithError(raw)
	if err != nil || len(keys) == 0 {
		return Identifier{}, ErrUnknownIdentifier
	}

	return Identifier{Kind: KindLegacyHash, Key: keys[0]}, nil
}
