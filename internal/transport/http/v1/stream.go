package v1

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

const streamChunkSize = 4096

// streamText writes body as a chunked text/plain response, flushing after
// every chunk. Readers that can write themselves out are sent as one chunk.
func streamText(c echo.Context, body io.Reader) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	resp.Header().Set("X-Content-Type-Options", "nosniff")
	resp.WriteHeader(http.StatusOK)

	if wt, ok := body.(io.WriterTo); ok {
		if _, err := wt.WriteTo(resp); err != nil {
			slog.Warn("stream write failed", "error", err)
			return nil
		}
		resp.Flush()
		return nil
	}

	buf := make([]byte, streamChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := resp.Write(buf[:n]); werr != nil {
				slog.Warn("stream write failed", "error", werr)
				return nil
			}
			resp.Flush()
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// Headers are already sent, so the client sees a truncated body.
			slog.Warn("stream aborted", "error", err)
			return nil
		}
	}
}
