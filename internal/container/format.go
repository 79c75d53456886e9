package container

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/picvet/lox/internal/crypto"
	"github.com/picvet/lox/internal/models"
)

// FormatVersion is the current container layout version.
const FormatVersion = 1

// Binary layout, big-endian:
//
//	offset  size  field
//	0       4     magic "LOXV"
//	4       2     format version
//	6       1     kdf algorithm id
//	7       4     cost 1 (pbkdf2 iterations / scrypt N)
//	11      4     cost 2 (scrypt r)
//	15      4     cost 3 (scrypt p)
//	19      2     salt length
//	21      n     salt
//	21+n    12    nonce
//	33+n    m+16  ciphertext with auth tag
//
// The header through the salt is the AEAD associated data, so version and
// derivation parameters cannot be rewritten without failing authentication.
const (
	fixedHeaderLen = 21
	minPayloadLen  = crypto.NonceSize + crypto.TagSize
)

var magic = []byte("LOXV")

// Container is the decoded on-disk representation of a sealed vault.
type Container struct {
	Version uint16
	Params  crypto.Params
	Nonce   []byte
	Sealed  []byte // ciphertext || tag
}

// Header is the public, key-free portion of a container.
type Header struct {
	Version uint16
	Params  crypto.Params
}

// encodeHeader serializes the authenticated prefix (magic through salt).
func encodeHeader(version uint16, params crypto.Params) []byte {
	buf := make([]byte, fixedHeaderLen+len(params.Salt))

	copy(buf[0:4], magic)
	binary.BigEndian.PutUint16(buf[4:6], version)
	buf[6] = byte(params.Algorithm)

	switch params.Algorithm {
	case crypto.AlgorithmPBKDF2:
		binary.BigEndian.PutUint32(buf[7:11], uint32(params.Iterations))
	case crypto.AlgorithmScrypt:
		binary.BigEndian.PutUint32(buf[7:11], uint32(params.N))
		binary.BigEndian.PutUint32(buf[11:15], uint32(params.R))
		binary.BigEndian.PutUint32(buf[15:19], uint32(params.P))
	}

	binary.BigEndian.PutUint16(buf[19:21], uint16(len(params.Salt)))
	copy(buf[fixedHeaderLen:], params.Salt)

	return buf
}

// Encode serializes a container to its binary form.
func Encode(c *Container) []byte {
	header := encodeHeader(c.Version, c.Params)

	out := make([]byte, 0, len(header)+len(c.Nonce)+len(c.Sealed))
	out = append(out, header...)
	out = append(out, c.Nonce...)
	out = append(out, c.Sealed...)
	return out
}

// DecodeHeader parses the key-free header prefix. It validates magic,
// version, algorithm id and salt bounds but ignores everything after the
// salt, so it works on payload-truncated input as well. Used by vault
// info and by sync pulls to sanity-check downloaded bytes.
func DecodeHeader(data []byte) (*Header, error) {
	if len(data) < fixedHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes is too short for a container header",
			models.ErrInvalidFormat, len(data))
	}

	if !bytes.Equal(data[0:4], magic) {
		return nil, fmt.Errorf("%w: bad magic", models.ErrInvalidFormat)
	}

	version := binary.BigEndian.Uint16(data[4:6])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d", models.ErrUnsupportedVersion, version)
	}

	params := crypto.Params{Algorithm: crypto.Algorithm(data[6])}
	switch params.Algorithm {
	case crypto.AlgorithmPBKDF2:
		params.Iterations = int(binary.BigEndian.Uint32(data[7:11]))
		// Unused cost fields must be zero or the authenticated header
		// could be altered without detection.
		if binary.BigEndian.Uint32(data[11:15]) != 0 || binary.BigEndian.Uint32(data[15:19]) != 0 {
			return nil, fmt.Errorf("%w: nonzero reserved cost fields", models.ErrInvalidFormat)
		}
	case crypto.AlgorithmScrypt:
		params.N = int(binary.BigEndian.Uint32(data[7:11]))
		params.R = int(binary.BigEndian.Uint32(data[11:15]))
		params.P = int(binary.BigEndian.Uint32(data[15:19]))
	default:
		return nil, fmt.Errorf("%w: unknown kdf algorithm id %d",
			models.ErrInvalidFormat, data[6])
	}

	saltLen := int(binary.BigEndian.Uint16(data[19:21]))
	if saltLen < crypto.MinSaltSize || saltLen > crypto.MaxSaltSize {
		return nil, fmt.Errorf("%w: salt length %d", models.ErrInvalidFormat, saltLen)
	}
	if len(data) < fixedHeaderLen+saltLen {
		return nil, fmt.Errorf("%w: truncated salt", models.ErrInvalidFormat)
	}

	params.Salt = make([]byte, saltLen)
	copy(params.Salt, data[fixedHeaderLen:fixedHeaderLen+saltLen])

	return &Header{Version: version, Params: params}, nil
}

// Decode parses a full container, validating total length against the
// nonce and tag sizes. The payload may carry an empty ciphertext (an
// empty vault is tag-only).
func Decode(data []byte) (*Container, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	rest := data[fixedHeaderLen+len(header.Params.Salt):]
	if len(rest) < minPayloadLen {
		return nil, fmt.Errorf("%w: truncated payload", models.ErrInvalidFormat)
	}

	nonce := make([]byte, crypto.NonceSize)
	copy(nonce, rest[:crypto.NonceSize])

	sealed := make([]byte, len(rest)-crypto.NonceSize)
	copy(sealed, rest[crypto.NonceSize:])

	return &Container{
		Version: header.Version,
		Params:  header.Params,
		Nonce:   nonce,
		Sealed:  sealed,
	}, nil
}
