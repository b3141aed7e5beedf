package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

var gzipWriterPool = sync.Pool{
	New: func() any { return gzip.NewWriter(io.Discard) },
}

var brotliWriterPool = sync.Pool{
	New: func() any { return brotli.NewWriter(io.Discard) },
}

type compressionResponseWriter struct {
	http.ResponseWriter
	writer io.Writer
}

func (w *compressionResponseWriter) Write(b []byte) (int, error) {
	return w.writer.Write(b)
}

type encodingPreference struct {
	name string
	q    float64
}

// parseAcceptEncoding ranks the client's Accept-Encoding entries by
// q-value, preferring brotli over gzip on a tie since it compresses
// smaller for the same CPU budget.
func parseAcceptEncoding(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	prefs := make([]encodingPreference, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name := part
		q := 1.0
		if idx := strings.Index(part, ";"); idx >= 0 {
			name = strings.TrimSpace(part[:idx])
			params := part[idx+1:]
			if qIdx := strings.Index(params, "q="); qIdx >= 0 {
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(params[qIdx+2:]), 64); err == nil {
					q = parsed
				}
			}
		}
		prefs = append(prefs, encodingPreference{name: strings.ToLower(name), q: q})
	}

	sort.SliceStable(prefs, func(i, j int) bool {
		if prefs[i].q != prefs[j].q {
			return prefs[i].q > prefs[j].q
		}
		return prefs[i].name == "br"
	})

	out := make([]string, 0, len(prefs))
	for _, p := range prefs {
		if p.q > 0 {
			out = append(out, p.name)
		}
	}
	return out
}

func preferredEncoding(header string) string {
	for _, enc := range parseAcceptEncoding(header) {
		if enc == "br" || enc == "gzip" {
			return enc
		}
	}
	return ""
}

// Gzip compresses response bodies with brotli or gzip, chosen by the
// client's Accept-Encoding preference.
func Gzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch preferredEncoding(r.Header.Get("Accept-Encoding")) {
		case "br":
			bw := brotliWriterPool.Get().(*brotli.Writer)
			bw.Reset(w)
			defer func() {
				bw.Close()
				brotliWriterPool.Put(bw)
			}()
			w.Header().Set("Content-Encoding", "br")
			w.Header().Add("Vary", "Accept-Encoding")
			next.ServeHTTP(&compressionResponseWriter{ResponseWriter: w, writer: bw}, r)

		case "gzip":
			gw := gzipWriterPool.Get().(*gzip.Writer)
			gw.Reset(w)
			defer func() {
				gw.Close()
				gzipWriterPool.Put(gw)
			}()
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Add("Vary", "Accept-Encoding")
			next.ServeHTTP(&compressionResponseWriter{ResponseWriter: w, writer: gw}, r)

		default:
			next.ServeHTTP(w, r)
		}
	})
}
