// Package corpus loads breached-password corpora and their embeddings from
// text files, TOML embedding files or Postgres, and builds embeddings for new
// corpora.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Supported text encodings.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf8"
)

// maxLineBytes bounds a single corpus line; longer lines are an error.
const maxLineBytes = 1 << 16

// ReadPasswords reads one password per line. Surrounding whitespace is
// trimmed and blank lines are skipped. Latin-1 input is decoded to UTF-8,
// which never fails because every byte maps to a code point.
func ReadPasswords(r io.Reader, encoding string) ([]string, error) {
	switch encoding {
	case EncodingLatin1, "":
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	case EncodingUTF8:
	default:
		return nil, fmt.Errorf("unsupported corpus encoding %q", encoding)
	}

	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		pw := strings.TrimSpace(sc.Text())
		if pw == "" {
			continue
		}
		out = append(out, pw)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return out, nil
}

// ReadPasswordFile opens path and reads it with ReadPasswords.
func ReadPasswordFile(path, encoding string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()
	return ReadPasswords(f, encoding)
}
