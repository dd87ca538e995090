package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// minGzipSize is the smallest response body worth compressing.
const minGzipSize = 256

// GzipMiddleware compresses JSON and text responses when the client accepts gzip.
// The response is buffered so that small bodies can be sent as is.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		buffered := &bufferedResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(buffered, r)

		w.Header().Add("Vary", "Accept-Encoding")

		if !compressible(w.Header().Get("Content-Type")) || buffered.body.Len() < minGzipSize {
			w.WriteHeader(buffered.statusCode)
			w.Write(buffered.body.Bytes())
			return
		}

		var compressed bytes.Buffer
		gz, err := gzip.NewWriterLevel(&compressed, gzip.BestSpeed)
		if err == nil {
			_, err = gz.Write(buffered.body.Bytes())
		}
		if err == nil {
			err = gz.Close()
		}
		if err != nil {
			w.WriteHeader(buffered.statusCode)
			w.Write(buffered.body.Bytes())
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Length", strconv.Itoa(compressed.Len()))
		w.WriteHeader(buffered.statusCode)
		w.Write(compressed.Bytes())
	})
}

func compressible(contentType string) bool {
	return strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "text/plain")
}

type bufferedResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

// WriteHeader captures the status code without immediately writing it.
func (w *bufferedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
}

// Write appends the byte slice to the body buffer.
func (w *bufferedResponseWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

// GzipReader transparently decompresses gzipped request bodies.
func GzipReader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") != "gzip" {
			next.ServeHTTP(w, r)
			return
		}

		gzReader, err := gzip.NewReader(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Malformed request", "failed to read gzipped request body")
			return
		}
		defer gzReader.Close()

		r.Body = io.NopCloser(gzReader)
		r.ContentLength = -1
		r.Header.Del("Content-Encoding")

		next.ServeHTTP(w, r)
	})
}
