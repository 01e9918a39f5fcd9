package voice

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
)

// oggPage is one page of an Ogg/Opus stream split into opus packets.
type oggPage struct {
	header  bool
	packets [][]byte
}

// readOggPage skips to the next capture pattern and reads a full page.
func readOggPage(r *bufio.Reader) (*oggPage, error) {
	if err := syncToOggPage(r); err != nil {
		return nil, err
	}

	// version, header type, granule (8), serial (4), sequence (4), crc (4), segment count
	var fixed [23]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, errors.Wrap(err, "read ogg page header")
	}
	headerType := fixed[1]

	segments := make([]byte, fixed[22])
	if _, err := io.ReadFull(r, segments); err != nil {
		return nil, errors.Wrap(err, "read ogg segment table")
	}

	size := 0
	for _, s := range segments {
		size += int(s)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Wrap(err, "read ogg page body")
	}

	page := &oggPage{
		header:  headerType&0x02 != 0,
		packets: splitPackets(segments, data),
	}
	if len(data) >= 8 {
		if magic := string(data[:8]); magic == "OpusHead" || magic == "OpusTags" {
			page.header = true
		}
	}
	return page, nil
}

func syncToOggPage(r *bufio.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b != 'O' {
			continue
		}

		peek, err := r.Peek(3)
		if err != nil {
			return err
		}
		if string(peek) == "ggS" {
			_, _ = r.Discard(3)
			return nil
		}
	}
}

// splitPackets rebuilds packets from the lacing values: a segment shorter than
// 255 bytes ends a packet.
func splitPackets(segments, data []byte) [][]byte {
	var (
		packets [][]byte
		current []byte
		offset  int
	)

	for _, seg := range segments {
		size := int(seg)
		if offset+size > len(data) {
			break
		}
		current = append(current, data[offset:offset+size]...)
		offset += size

		if seg < 255 && len(current) > 0 {
			packets = append(packets, current)
			current = nil
		}
	}

	if len(current) > 0 {
		packets = append(packets, current)
	}
	return packets
}
