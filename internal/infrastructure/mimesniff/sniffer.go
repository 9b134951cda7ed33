package mimesniff

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const OctetStream = "application/octet-stream"

// Sniffer detects content types from magic bytes. The filename is never consulted.
type Sniffer struct{}

func New() *Sniffer {
	return &Sniffer{}
}

// Sniff returns a bare media type (parameters such as charset are dropped).
// Empty input yields application/octet-stream.
func (s *Sniffer) Sniff(data []byte) string {
	if len(data) == 0 {
		return OctetStream
	}
	detected := mimetype.Detect(data)
	if detected == nil {
		return OctetStream
	}
	mediaType, _, _ := strings.Cut(detected.String(), ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "" {
		return OctetStream
	}
	return mediaType
}
