// File: httpwriter/compress.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Response body compression. Grounded on spec.md §4.7's three named
// codecs (br, deflate, zstd). klauspost/compress supplies deflate/zstd;
// brotli has no ecosystem-standard stdlib-adjacent equivalent, so
// andybalholm/brotli is added as the one out-of-pack dependency (see
// DESIGN.md).

package httpwriter

import (
	"bytes"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
)

// Encoding identifies a Content-Encoding compression policy.
type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingBrotli
	EncodingDeflate
	EncodingZstd
)

// HeaderValue returns the Content-Encoding token for e, or "" for
// EncodingNone.
func (e Encoding) HeaderValue() string {
	switch e {
	case EncodingBrotli:
		return "br"
	case EncodingDeflate:
		return "deflate"
	case EncodingZstd:
		return "zstd"
	default:
		return ""
	}
}

// NegotiateEncoding picks the first codec in acceptEncoding (in the
// client's listed order) that htcore supports, falling back to
// EncodingNone. Quality values play no part (see
// header.Collection.AcceptEncoding).
func NegotiateEncoding(acceptEncoding []string) Encoding {
	for _, tok := range acceptEncoding {
		switch strings.ToLower(tok) {
		case "br":
			return EncodingBrotli
		case "deflate":
			return EncodingDeflate
		case "zstd":
			return EncodingZstd
		}
	}
	return EncodingNone
}

// compressBody compresses body under e, returning it unchanged for
// EncodingNone.
func compressBody(e Encoding, body []byte) ([]byte, error) {
	if e == EncodingNone || len(body) == 0 {
		return body, nil
	}
	var buf bytes.Buffer
	switch e {
	case EncodingBrotli:
		bw := brotli.NewWriter(&buf)
		if _, err := bw.Write(body); err != nil {
			return nil, err
		}
		if err := bw.Close(); err != nil {
			return nil, err
		}
	case EncodingDeflate:
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(body); err != nil {
			return nil, err
		}
		if err := fw.Close(); err != nil {
			return nil, err
		}
	case EncodingZstd:
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(body); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	default:
		return body, nil
	}
	return buf.Bytes(), nil
}
