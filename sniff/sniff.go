// Package sniff recovers embedded images from opaque byte blobs by
// scanning for known file signatures. The archive container wraps
// attachment bytes with undocumented metadata of variable length and no
// trustworthy length field, so the only robust recovery is to slice from
// the earliest signature to the end of the blob. Trailing bytes after
// the image survive the slice; image decoders tolerate that. If noise
// before the real image happens to contain a signature, the wrong region
// is returned — a known limitation of the source format, not a bug.
package sniff

import (
	"bytes"

	"github.com/retrochat/ichat-recover/model"
)

type signature struct {
	magic []byte
	mime  string
}

var signatures = []signature{
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
	{[]byte("GIF8"), "image/gif"}, // covers GIF87a and GIF89a
}

// FindImage scans blob for the earliest occurrence of any registered
// image signature. It returns the sub-blob from the signature start to
// the end of blob tagged with its MIME type, or ok=false when no
// signature occurs anywhere in blob.
func FindImage(blob []byte) (model.ImageAttachment, bool) {
	best := -1
	mime := ""
	for _, sig := range signatures {
		idx := bytes.Index(blob, sig.magic)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			mime = sig.mime
		}
	}
	if best < 0 {
		return model.ImageAttachment{}, false
	}
	return model.ImageAttachment{Bytes: blob[best:], MIMEType: mime}, true
}
