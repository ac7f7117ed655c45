package lexicon

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// maxRemoteTableSize caps a downloaded table
const maxRemoteTableSize = 4 << 20

var remoteClient = &http.Client{
	Timeout: 30 * time.Second,
}

// IsRemote reports whether path names an http(s) location
func IsRemote(path string) bool {
	p := strings.ToLower(strings.TrimSpace(path))
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// LoadURL downloads and validates a YAML table. Bodies that are not UTF-8
// are decoded as ISO-8859-1.
func LoadURL(url string) (*Lexicon, error) {
	response, err := remoteClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download lexicon %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download lexicon %s: unexpected status %s", url, response.Status)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(response.Body, maxRemoteTableSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", url, err)
	}
	if len(bodyBytes) > maxRemoteTableSize {
		return nil, fmt.Errorf("lexicon %s exceeds %d bytes", url, maxRemoteTableSize)
	}

	if !utf8.Valid(bodyBytes) {
		decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(bodyBytes)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode lexicon %s: %w", url, err)
		}
		bodyBytes = decoded
	}

	lex, err := Parse(bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", url, err)
	}
	return lex, nil
}
