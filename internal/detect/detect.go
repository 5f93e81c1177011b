// Package detect picks the text encoding and field delimiter of a delimited
// input file by inspecting its bytes.
//
// Encodings are tried in a fixed order (utf-8, latin-1, cp1252, utf-16) and
// the first one that decodes the whole input without error wins. A byte-order
// mark settles the question up front. The delimiter is whichever of
// ',', TAB, ';' and '|' is most frequent in the first 4096 characters of the
// decoded text, with ',' as the baseline.
package detect

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// SampleChars is how much decoded text the delimiter sniffer looks at.
const SampleChars = 4096

// ErrUndecodable is returned when no candidate encoding accepts the input.
var ErrUndecodable = errors.New("detect: no candidate encoding decodes the input")

// Candidates is the ordered list of encodings tried during detection.
var Candidates = []string{"utf-8", "latin-1", "cp1252", "utf-16"}

// Delimiters are the delimiter candidates in declaration order. The first
// entry is the baseline.
var Delimiters = []rune{',', '\t', ';', '|'}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Options pins the encoding and/or delimiter. Zero values (or "auto") let
// Detect decide.
type Options struct {
	Encoding  string
	Delimiter rune
}

// Result is the outcome of Detect.
type Result struct {
	// Encoding is the canonical name of the chosen encoding.
	Encoding string
	// Delimiter is the chosen field delimiter.
	Delimiter rune
	// Text is the decoded input, without any byte-order mark.
	Text string
}

// Detect decodes data and picks its delimiter. It returns the first
// encoding from Order that decodes data.
func Detect(data []byte, opt Options) (Result, error) {
	var lastErr error
	for _, name := range Order(data, opt.Encoding) {
		text, err := Decode(name, data)
		if err != nil {
			lastErr = fmt.Errorf("detect: decode as %s: %w", name, err)
			continue
		}
		delim := opt.Delimiter
		if delim == 0 {
			delim = Sniff(text)
		}
		return Result{Encoding: name, Delimiter: delim, Text: text}, nil
	}
	if isAuto(opt.Encoding) {
		return Result{}, ErrUndecodable
	}
	return Result{}, lastErr
}

// Order lists the encodings to try for data, most likely first. A pinned
// encoding yields just that one. Otherwise a byte-order mark moves the
// matching candidate to the front of Candidates.
func Order(data []byte, pinned string) []string {
	if !isAuto(pinned) {
		return []string{Canonical(pinned)}
	}
	first := ""
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		first = "utf-8"
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		first = "utf-16"
	}
	if first == "" {
		return append([]string(nil), Candidates...)
	}
	out := []string{first}
	for _, c := range Candidates {
		if c != first {
			out = append(out, c)
		}
	}
	return out
}

func isAuto(enc string) bool {
	enc = strings.TrimSpace(enc)
	return enc == "" || strings.EqualFold(enc, "auto")
}

// Sniff returns the most frequent delimiter candidate in the first
// SampleChars characters of text. A candidate replaces the running best only
// when it occurs strictly more often, so ties keep the earlier candidate and
// ',' wins when nothing else beats it.
func Sniff(text string) rune {
	sample := text
	n := 0
	for i := range text {
		if n == SampleChars {
			sample = text[:i]
			break
		}
		n++
	}

	best := Delimiters[0]
	bestCount := strings.Count(sample, string(best))
	for _, d := range Delimiters[1:] {
		if c := strings.Count(sample, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

// Canonical normalizes an encoding name ("UTF8", "latin_1", "Windows-1252")
// to the spelling used throughout the package. Unknown names are returned
// lower-cased.
func Canonical(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "utf8", "utf-8":
		return "utf-8"
	case "utf-8-sig", "utf8-sig":
		return "utf-8-sig"
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1", "l1":
		return "latin-1"
	case "cp1252", "windows-1252", "win1252":
		return "cp1252"
	case "utf-16", "utf16":
		return "utf-16"
	case "utf-16le", "utf16le", "utf-16-le":
		return "utf-16le"
	case "utf-16be", "utf16be", "utf-16-be":
		return "utf-16be"
	}
	return n
}

// Known reports whether name (after Canonical) is a supported encoding.
func Known(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// Lookup returns the x/text encoding for name. For "utf-16" the encoder
// writes a little-endian BOM and the decoder honours any BOM it finds.
func Lookup(name string) (encoding.Encoding, bool) {
	switch Canonical(name) {
	case "utf-8":
		return unicode.UTF8, true
	case "utf-8-sig":
		return unicode.UTF8BOM, true
	case "latin-1":
		return charmap.ISO8859_1, true
	case "cp1252":
		return charmap.Windows1252, true
	case "utf-16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), true
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), true
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), true
	}
	return nil, false
}

// Decode decodes data with the named encoding and fails on any byte
// sequence that encoding does not define. A leading byte-order mark is
// dropped from the result.
func Decode(name string, data []byte) (string, error) {
	switch Canonical(name) {
	case "utf-8", "utf-8-sig":
		data = bytes.TrimPrefix(data, bomUTF8)
		if !utf8.Valid(data) {
			return "", errors.New("invalid utf-8 sequence")
		}
		return string(data), nil
	case "cp1252":
		for i, b := range data {
			if cp1252Undefined[b] {
				return "", fmt.Errorf("byte 0x%02X at offset %d is undefined in cp1252", b, i)
			}
		}
	case "utf-16", "utf-16le", "utf-16be":
		if err := validUTF16(name, data); err != nil {
			return "", err
		}
	}
	enc, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("unknown encoding %q", name)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(out), "\uFEFF"), nil
}

// cp1252Undefined holds the five byte values with no cp1252 mapping.
var cp1252Undefined = [256]bool{0x81: true, 0x8D: true, 0x8F: true, 0x90: true, 0x9D: true}

// validUTF16 rejects odd-length input and unpaired surrogates, which the
// x/text decoder would otherwise replace silently.
func validUTF16(name string, data []byte) error {
	if len(data)%2 != 0 {
		return errors.New("odd byte count for utf-16")
	}
	bigEndian := Canonical(name) == "utf-16be"
	if Canonical(name) == "utf-16" {
		switch {
		case bytes.HasPrefix(data, bomUTF16BE):
			bigEndian = true
			data = data[2:]
		case bytes.HasPrefix(data, bomUTF16LE):
			data = data[2:]
		}
	}
	units := make([]uint16, len(data)/2)
	for i := range units {
		lo, hi := data[2*i], data[2*i+1]
		if bigEndian {
			lo, hi = hi, lo
		}
		units[i] = uint16(lo) | uint16(hi)<<8
	}
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+1 >= len(units) || !utf16.IsSurrogate(rune(units[i+1])) || units[i+1] < 0xDC00 {
				return fmt.Errorf("unpaired high surrogate at unit %d", i)
			}
			i++
		case u >= 0xDC00 && u < 0xE000:
			return fmt.Errorf("unpaired low surrogate at unit %d", i)
		}
	}
	return nil
}
