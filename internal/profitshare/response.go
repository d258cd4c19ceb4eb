package profitshare

import (
	"fmt"
	"io"
	"net/http"

	"github.com/shopmindai/profitshare/internal/service/compressorservice"
)

// maxBodySize caps how much of an upstream reply is read.
const maxBodySize = 16 << 20

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	if compressorservice.IsGzipEncoding(resp.Header.Get("Content-Encoding")) {
		decompressed, err := compressorservice.Decompress(rawBody)
		if err != nil {
			return nil, fmt.Errorf("decompressing response body failed: %w", err)
		}
		return decompressed, nil
	}

	return rawBody, nil
}
