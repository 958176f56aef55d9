package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Charset names reported by Decode.
const (
	UTF8        = "UTF-8"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO88599    = "ISO-8859-9"
)

// Decoded is a UTF-8 view of an uploaded file plus the charset it was read as.
type Decoded struct {
	io.Reader
	Charset string
}

// Decode sniffs the start of r and returns a reader producing UTF-8.
//
// BOMs win first (UTF-8 BOM stripped, UTF-16 decoded), then content that is
// already valid UTF-8 passes through, then chardet decides between the
// Latin charsets spreadsheets usually export. Anything else is read as
// Windows-1252.
func Decode(r io.Reader) (*Decoded, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return &Decoded{Reader: br, Charset: UTF8}, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return decoded(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), UTF16LE), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return decoded(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM), UTF16BE), nil
	case utf8.Valid(trimPartialRune(buf)):
		return &Decoded{Reader: br, Charset: UTF8}, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		switch result.Charset {
		case "UTF-8":
			return &Decoded{Reader: br, Charset: UTF8}, nil
		case "ISO-8859-9":
			return decoded(br, charmap.ISO8859_9, ISO88599), nil
		}
	}

	return decoded(br, charmap.Windows1252, Windows1252), nil
}

func decoded(r io.Reader, enc encoding.Encoding, name string) *Decoded {
	return &Decoded{Reader: transform.NewReader(r, enc.NewDecoder()), Charset: name}
}

// trimPartialRune drops a multi-byte rune cut off at the end of a full sniff
// window.
func trimPartialRune(buf []byte) []byte {
	if len(buf) < sniffLen {
		return buf
	}

	for i := 1; i < utf8.UTFMax && i <= len(buf); i++ {
		start := len(buf) - i
		if !utf8.RuneStart(buf[start]) {
			continue
		}

		if !utf8.FullRune(buf[start:]) {
			return buf[:start]
		}

		break
	}

	return buf
}
