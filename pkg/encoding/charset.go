// Package encoding transcodes names stored in legacy code pages. Meshes
// exported by older tools often carry material and skeleton names in the
// author's local code page rather than UTF-8.
package encoding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Code pages seen in exported meshes, by the names used in config files.
var charsets = map[string]encoding.Encoding{
	"euc-kr":       korean.EUCKR,
	"cp949":        korean.EUCKR,
	"shift_jis":    japanese.ShiftJIS,
	"cp932":        japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
}

// Lookup returns the encoding registered under name. Names not in the local
// table are resolved through the WHATWG index. An empty name or "utf-8"
// returns nil, meaning no transcoding.
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	if enc, ok := charsets[name]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	return enc, nil
}

// NameDecoder converts names read from a mesh file into UTF-8.
type NameDecoder struct {
	charset string
	enc     encoding.Encoding
}

// NewNameDecoder returns a decoder for charset. See Lookup for accepted names.
func NewNameDecoder(charset string) (*NameDecoder, error) {
	enc, err := Lookup(charset)
	if err != nil {
		return nil, err
	}
	return &NameDecoder{charset: charset, enc: enc}, nil
}

// Charset returns the configured charset name.
func (d *NameDecoder) Charset() string {
	return d.charset
}

// Decode returns name in UTF-8. Names that are already valid UTF-8 are
// returned unchanged, as are names the code page cannot decode.
func (d *NameDecoder) Decode(name string) string {
	if d == nil || d.enc == nil || utf8.ValidString(name) {
		return name
	}
	result, _, err := transform.String(d.enc.NewDecoder(), name)
	if err != nil {
		return name
	}
	return result
}

// Encode converts a UTF-8 name back into the code page. The name is
// returned unchanged if it cannot be represented.
func (d *NameDecoder) Encode(name string) string {
	if d == nil || d.enc == nil {
		return name
	}
	result, _, err := transform.String(d.enc.NewEncoder(), name)
	if err != nil {
		return name
	}
	return result
}
