package compressorservice

import (
	"bytes"
	"compress/gzip"
	"io"
	"strconv"
	"strings"
)

func Compress(data []byte, level int) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// IsGzipEncoding reports whether a Content-Encoding or Accept-Encoding
// header lists gzip.
func IsGzipEncoding(enc string) bool {
	for _, part := range strings.Split(enc, ",") {
		token, _, _ := strings.Cut(part, ";")
		if strings.EqualFold(strings.TrimSpace(token), "gzip") {
			return true
		}
	}
	return false
}

// AcceptsGzip reports whether an Accept-Encoding header allows a gzip reply.
// An explicit "gzip;q=0" refuses it.
func AcceptsGzip(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		token, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(token), "gzip") {
			continue
		}
		name, value, found := strings.Cut(strings.TrimSpace(params), "=")
		if !found || strings.TrimSpace(name) != "q" {
			return true
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return err == nil && q > 0
	}
	return false
}
