package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Codec turns raw bytes into text under one named encoding.
// Strict reports false when any byte sequence is invalid; Lossy never fails.
type Codec interface {
	Name() string
	Strict(b []byte) (string, bool)
	Lossy(b []byte) string
}

type utf8Codec struct{}

func (utf8Codec) Name() string { return "UTF-8" }

func (utf8Codec) Strict(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// range over a string yields U+FFFD once per invalid byte
func (utf8Codec) Lossy(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, r := range string(b) {
		sb.WriteRune(r)
	}
	return sb.String()
}

type asciiCodec struct{}

func (asciiCodec) Name() string { return "ASCII" }

func (asciiCodec) Strict(b []byte) (string, bool) {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return "", false
		}
	}
	return string(b), true
}

func (asciiCodec) Lossy(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c >= utf8.RuneSelf {
			sb.WriteRune(utf8.RuneError)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// charmapCodec covers single-byte code pages. undefined lists bytes the code page
// leaves unassigned even where x/text maps them to C1 controls.
type charmapCodec struct {
	name      string
	cm        *charmap.Charmap
	undefined [256]bool
}

func newCharmapCodec(name string, cm *charmap.Charmap, undefined ...byte) *charmapCodec {
	c := &charmapCodec{name: name, cm: cm}
	for _, u := range undefined {
		c.undefined[u] = true
	}
	return c
}

func (c *charmapCodec) Name() string { return c.name }

func (c *charmapCodec) Strict(b []byte) (string, bool) {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, x := range b {
		r := c.cm.DecodeByte(x)
		if c.undefined[x] || r == utf8.RuneError {
			return "", false
		}
		sb.WriteRune(r)
	}
	return sb.String(), true
}

func (c *charmapCodec) Lossy(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, x := range b {
		if c.undefined[x] {
			sb.WriteRune(utf8.RuneError)
			continue
		}
		sb.WriteRune(c.cm.DecodeByte(x))
	}
	return sb.String()
}

// utf16Codec honours a leading BOM when useBOM is set and defaults to order otherwise.
type utf16Codec struct {
	name   string
	order  binary.ByteOrder
	useBOM bool
}

func (c utf16Codec) Name() string { return c.name }

func (c utf16Codec) layout(b []byte) (binary.ByteOrder, []byte) {
	if c.useBOM && len(b) >= 2 {
		switch {
		case b[0] == 0xFF && b[1] == 0xFE:
			return binary.LittleEndian, b[2:]
		case b[0] == 0xFE && b[1] == 0xFF:
			return binary.BigEndian, b[2:]
		}
	}
	return c.order, b
}

func (c utf16Codec) Strict(b []byte) (string, bool) {
	order, body := c.layout(b)
	if len(body)%2 != 0 {
		return "", false
	}
	for i := 0; i < len(body); i += 2 {
		u := order.Uint16(body[i:])
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+4 > len(body) {
				return "", false
			}
			next := order.Uint16(body[i+2:])
			if next < 0xDC00 || next > 0xDFFF {
				return "", false
			}
			i += 2
		case u >= 0xDC00 && u <= 0xDFFF:
			return "", false
		}
	}
	return c.Lossy(b), true
}

func (c utf16Codec) Lossy(b []byte) string {
	order, body := c.layout(b)
	endian := unicode.LittleEndian
	if order == binary.BigEndian {
		endian = unicode.BigEndian
	}
	return lossyDecode(unicode.UTF16(endian, unicode.IgnoreBOM), body)
}

// textCodec wraps any other x/text encoding. x/text decoders substitute U+FFFD
// instead of failing, so output containing U+FFFD is only accepted when it encodes
// back to the input bytes.
type textCodec struct {
	name string
	enc  encoding.Encoding
}

func (c textCodec) Name() string { return c.name }

func (c textCodec) Strict(b []byte) (string, bool) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		back, err := c.enc.NewEncoder().Bytes(out)
		if err != nil || !bytes.Equal(back, b) {
			return "", false
		}
	}
	return string(out), true
}

func (c textCodec) Lossy(b []byte) string {
	return lossyDecode(c.enc, b)
}

func lossyDecode(enc encoding.Encoding, b []byte) string {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return utf8Codec{}.Lossy(b)
	}
	return utf8Codec{}.Lossy(out)
}

var (
	latin1  = newCharmapCodec("ISO-8859-1", charmap.ISO8859_1)
	cp1252  = newCharmapCodec("windows-1252", charmap.Windows1252, 0x81, 0x8D, 0x8F, 0x90, 0x9D)
	builtin = map[string]Codec{
		"utf-8":        utf8Codec{},
		"utf8":         utf8Codec{},
		"ascii":        asciiCodec{},
		"us-ascii":     asciiCodec{},
		"iso-8859-1":   latin1,
		"iso8859-1":    latin1,
		"latin1":       latin1,
		"latin-1":      latin1,
		"l1":           latin1,
		"windows-1252": cp1252,
		"cp1252":       cp1252,
		"utf-16":       utf16Codec{name: "UTF-16", order: binary.LittleEndian, useBOM: true},
		"utf16":        utf16Codec{name: "UTF-16", order: binary.LittleEndian, useBOM: true},
		"utf-16le":     utf16Codec{name: "UTF-16LE", order: binary.LittleEndian},
		"utf-16be":     utf16Codec{name: "UTF-16BE", order: binary.BigEndian},
		"utf-32le":     textCodec{name: "UTF-32LE", enc: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
		"utf-32be":     textCodec{name: "UTF-32BE", enc: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
	}
	// chardet spellings that the WHATWG label table does not know
	aliases = map[string]string{
		"gb-18030": "gb18030",
	}
)

// Lookup resolves an encoding name. Latin-1 and ASCII are resolved locally because
// the WHATWG label table folds both into windows-1252.
func Lookup(name string) (Codec, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if key == "" {
		return nil, fmt.Errorf("empty encoding name")
	}
	if c, ok := builtin[key]; ok {
		return c, nil
	}
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	if enc, canonical := charset.Lookup(key); enc != nil {
		return textCodec{name: canonical, enc: enc}, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err == nil && enc != nil {
		canonical, nerr := ianaindex.IANA.Name(enc)
		if nerr != nil {
			canonical = name
		}
		return textCodec{name: canonical, enc: enc}, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}
