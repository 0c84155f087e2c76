package converter

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// SupportedEncodings lists the text codepages accepted by Options.Encoding
func SupportedEncodings() []string {
	return []string{"utf-8", "shift-jis", "windows-1252", "iso-8859-1"}
}

// textDecoder returns the decoder for a codepage name; nil keeps bytes as they are
func textDecoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "raw":
		return nil, nil
	case "shift-jis", "shift_jis", "sjis":
		return japanese.ShiftJIS.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported text encoding %q", name)
	}
}

func decodeText(d *encoding.Decoder, data []byte) []byte {
	if d == nil || len(data) == 0 {
		return data
	}
	out, err := d.Bytes(data)
	if err != nil {
		return data
	}
	return out
}
