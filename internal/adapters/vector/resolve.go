package vector

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/webp"
)

type decoder func(io.Reader) (image.Image, error)

var dataDecoders = map[string]decoder{
	"image/png":  png.Decode,
	"image/jpeg": jpeg.Decode,
	"image/jpg":  jpeg.Decode,
	"image/webp": webp.Decode,
}

// DataURI resolves base64 data: URIs carrying PNG, JPEG or WebP. Other
// mime types, non-base64 payloads and undecodable data are unresolved.
var DataURI = ResolverFunc(resolveData)

func resolveData(href string) (image.Image, bool) {
	rest, ok := strings.CutPrefix(href, "data:")
	if !ok {
		return nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, false
	}
	params := strings.Split(meta, ";")
	mime := strings.ToLower(strings.TrimSpace(params[0]))
	dec, known := dataDecoders[mime]
	if !known || !hasParam(params[1:], "base64") {
		return nil, false
	}

	// Accept padded and unpadded payloads alike.
	payload = strings.TrimRight(strings.TrimSpace(payload), "=")
	raw, err := base64.RawStdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	img, err := dec(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	return img, true
}

func hasParam(params []string, want string) bool {
	for _, p := range params {
		if strings.EqualFold(strings.TrimSpace(p), want) {
			return true
		}
	}
	return false
}
