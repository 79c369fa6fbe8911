package imaging

import (
	"bufio"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/jtejido/go-wsq"
	"github.com/pkg/errors"
)

const (
	wsqSOI = 0xffa0
	wsqSOF = 0xffa2
	wsqDTT = 0xffa4
	wsqCOM = 0xffa8
)

func init() {
	image.RegisterFormat("wsq", "\xff\xa0", wsq.Decode, decodeWSQConfig)
}

// decodeWSQConfig walks the marker segments up to the frame header without
// decoding any wavelet data.
func decodeWSQConfig(r io.Reader) (image.Config, error) {
	br := bufio.NewReader(r)
	var word [2]byte
	next := func() (int, error) {
		if _, err := io.ReadFull(br, word[:]); err != nil {
			return 0, err
		}
		return int(binary.BigEndian.Uint16(word[:])), nil
	}

	soi, err := next()
	if err != nil {
		return image.Config{}, errors.Wrap(err, "wsq: read start of image")
	}
	if soi != wsqSOI {
		return image.Config{}, errors.Errorf("wsq: missing start of image marker, got %#04x", soi)
	}

	for {
		marker, err := next()
		if err != nil {
			return image.Config{}, errors.Wrap(err, "wsq: read marker")
		}
		switch {
		case marker == wsqSOF:
			var hdr [8]byte // length, black, white, height, width
			if _, err := io.ReadFull(br, hdr[:]); err != nil {
				return image.Config{}, errors.Wrap(err, "wsq: read frame header")
			}
			return image.Config{
				ColorModel: color.GrayModel,
				Width:      int(binary.BigEndian.Uint16(hdr[6:8])),
				Height:     int(binary.BigEndian.Uint16(hdr[4:6])),
			}, nil
		case marker >= wsqDTT && marker <= wsqCOM:
			n, err := next()
			if err != nil {
				return image.Config{}, errors.Wrap(err, "wsq: read segment length")
			}
			if n < 2 {
				return image.Config{}, errors.Errorf("wsq: segment %#04x has length %d", marker, n)
			}
			if _, err := br.Discard(n - 2); err != nil {
				return image.Config{}, errors.Wrap(err, "wsq: skip segment")
			}
		default:
			return image.Config{}, errors.Errorf("wsq: unexpected marker %#04x before frame header", marker)
		}
	}
}
