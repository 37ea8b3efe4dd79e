package richtext

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	MagicString = "RICHTEXTDOC"
	VersionV1   = uint16(1)

	headerSize = len(MagicString) + 2 + 4 + 8

	secureMagic      = "RICHTEXT_SEALED"
	secureVersionV1  = uint16(1)
	secureFlagComp   = uint16(1 << 0)
	secureFlagEnc    = uint16(1 << 1)
	secureSaltSize   = 16
	secureNonceSize  = 12
	secureHeaderSize = len(secureMagic) + 2 + 2 + secureSaltSize + secureNonceSize + 8
	kdfIterations    = 200000
)

type EncryptionOptions struct {
	Enabled  bool
	Password string
}

type SaveOptions struct {
	Compression bool
	Encryption  EncryptionOptions
}

type LoadOptions struct {
	Password string
	Defaults Props
}

type EnvelopeInfo struct {
	Wrapped     bool
	Compressed  bool
	Encrypted   bool
	EnvelopeVer uint16
}

var (
	ErrInvalidMagic      = errors.New("richtext: invalid magic")
	ErrUnsupportedVer    = errors.New("richtext: unsupported version")
	ErrChecksum          = errors.New("richtext: checksum mismatch")
	ErrPasswordRequired  = errors.New("richtext: password required")
	ErrInvalidPassword   = errors.New("richtext: invalid password")
	ErrInvalidSecureFile = errors.New("richtext: invalid secure file")
)

// Save writes c as a JSON snapshot inside a checksummed container, optionally
// compressed and encrypted. The file is replaced atomically.
func Save(path string, c *Content, opts SaveOptions) error {
	if c == nil {
		return errors.New("richtext: content is nil")
	}
	blob, err := Encode(c, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func Load(path string, opts LoadOptions) (*Content, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(b, opts)
}

func InspectEnvelope(path string) (EnvelopeInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return inspectEnvelopeBytes(b)
}

// Encode is Save without the file.
func Encode(c *Content, opts SaveOptions) ([]byte, error) {
	payload, err := ExportJSON(c)
	if err != nil {
		return nil, err
	}
	blob := encodeContainer(payload)
	if !opts.Compression && !opts.Encryption.Enabled {
		return blob, nil
	}
	if opts.Encryption.Enabled && strings.TrimSpace(opts.Encryption.Password) == "" {
		return nil, ErrPasswordRequired
	}
	return seal(blob, opts)
}

func Decode(b []byte, opts LoadOptions) (*Content, error) {
	if isSecureEnvelope(b) {
		var err error
		if b, err = unseal(b, opts.Password); err != nil {
			return nil, err
		}
	}
	payload, err := decodeContainer(b)
	if err != nil {
		return nil, err
	}
	defaults := opts.Defaults
	if defaults.MarkdownTags == (MarkdownTags{}) {
		defaults = DefaultProps()
	}
	return ImportJSON(payload, defaults)
}

func encodeContainer(payload []byte) []byte {
	out := make([]byte, headerSize, headerSize+len(payload))
	copy(out, MagicString)
	at := len(MagicString)
	binary.LittleEndian.PutUint16(out[at:], VersionV1)
	binary.LittleEndian.PutUint32(out[at+2:], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint64(out[at+6:], uint64(len(payload)))
	return append(out, payload...)
}

func decodeContainer(b []byte) ([]byte, error) {
	if len(b) < headerSize || string(b[:len(MagicString)]) != MagicString {
		return nil, ErrInvalidMagic
	}
	at := len(MagicString)
	if v := binary.LittleEndian.Uint16(b[at:]); v != VersionV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVer, v)
	}
	sum := binary.LittleEndian.Uint32(b[at+2:])
	n := binary.LittleEndian.Uint64(b[at+6:])
	payload := b[headerSize:]
	if uint64(len(payload)) != n {
		return nil, fmt.Errorf("%w: payload length %d, header says %d", ErrChecksum, len(payload), n)
	}
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, ErrChecksum
	}
	return payload, nil
}

func isSecureEnvelope(b []byte) bool {
	return len(b) >= len(secureMagic) && string(b[:len(secureMagic)]) == secureMagic
}

// IsDocument reports whether b looks like a saved document, sealed or not.
func IsDocument(b []byte) bool {
	return isSecureEnvelope(b) || (len(b) >= len(MagicString) && string(b[:len(MagicString)]) == MagicString)
}

// sealedHeader is the fixed prefix of a sealed file: magic, version,
// flags, salt, nonce and body length.
type sealedHeader struct {
	version uint16
	flags   uint16
	salt    []byte
	nonce   []byte
	size    uint64
}

func (h sealedHeader) appendTo(out []byte) []byte {
	out = append(out, secureMagic...)
	out = binary.LittleEndian.AppendUint16(out, h.version)
	out = binary.LittleEndian.AppendUint16(out, h.flags)
	out = append(out, h.salt...)
	out = append(out, h.nonce...)
	return binary.LittleEndian.AppendUint64(out, h.size)
}

func parseSealedHeader(b []byte) (sealedHeader, error) {
	if !isSecureEnvelope(b) || len(b) < secureHeaderSize {
		return sealedHeader{}, ErrInvalidSecureFile
	}
	rest := b[len(secureMagic):]
	h := sealedHeader{
		version: binary.LittleEndian.Uint16(rest),
		flags:   binary.LittleEndian.Uint16(rest[2:]),
	}
	if h.version != secureVersionV1 {
		return h, fmt.Errorf("%w: secure envelope version %d", ErrUnsupportedVer, h.version)
	}
	rest = rest[4:]
	h.salt, rest = rest[:secureSaltSize], rest[secureSaltSize:]
	h.nonce, rest = rest[:secureNonceSize], rest[secureNonceSize:]
	h.size = binary.LittleEndian.Uint64(rest)
	return h, nil
}

func inspectEnvelopeBytes(b []byte) (EnvelopeInfo, error) {
	if !isSecureEnvelope(b) {
		return EnvelopeInfo{}, nil
	}
	h, err := parseSealedHeader(b)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return EnvelopeInfo{
		Wrapped:     true,
		Compressed:  h.flags&secureFlagComp != 0,
		Encrypted:   h.flags&secureFlagEnc != 0,
		EnvelopeVer: h.version,
	}, nil
}

func deriveGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal deflates and then encrypts body as opts asks.
func seal(body []byte, opts SaveOptions) ([]byte, error) {
	h := sealedHeader{
		version: secureVersionV1,
		salt:    make([]byte, secureSaltSize),
		nonce:   make([]byte, secureNonceSize),
	}
	if opts.Compression {
		h.flags |= secureFlagComp
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(body); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		body = buf.Bytes()
	}
	if opts.Encryption.Enabled {
		h.flags |= secureFlagEnc
		if _, err := rand.Read(h.salt); err != nil {
			return nil, err
		}
		if _, err := rand.Read(h.nonce); err != nil {
			return nil, err
		}
		gcm, err := deriveGCM(opts.Encryption.Password, h.salt)
		if err != nil {
			return nil, err
		}
		body = gcm.Seal(nil, h.nonce, body, nil)
	}
	h.size = uint64(len(body))
	return append(h.appendTo(make([]byte, 0, secureHeaderSize+len(body))), body...), nil
}

// unseal reverses seal and returns the inner container.
func unseal(b []byte, password string) ([]byte, error) {
	h, err := parseSealedHeader(b)
	if err != nil {
		return nil, err
	}
	body := b[secureHeaderSize:]
	if uint64(len(body)) != h.size {
		return nil, ErrInvalidSecureFile
	}
	if h.flags&secureFlagEnc != 0 {
		if strings.TrimSpace(password) == "" {
			return nil, ErrPasswordRequired
		}
		gcm, err := deriveGCM(password, h.salt)
		if err != nil {
			return nil, err
		}
		if body, err = gcm.Open(nil, h.nonce, body, nil); err != nil {
			return nil, ErrInvalidPassword
		}
	}
	if h.flags&secureFlagComp == 0 {
		return append([]byte(nil), body...), nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecureFile, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecureFile, err)
	}
	return out, nil
}
