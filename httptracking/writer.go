package httptracking

import (
	"log/slog"
	"net/http"

	"github.com/cloudharbor/s3front/requestctx"
)

//Writers can report whether a status line already went out. The response
//dispatching in s3api uses this to guarantee a request is answered at most once.
type ResponseStartTracker interface {
	//Whether WriteHeader or a body write already happened for this response
	Started() bool
}

// A writer that updates a requestCtx with the details of the response
type trackingResponseWriter struct {
	rWriter    http.ResponseWriter
	requestCtx *requestctx.RequestCtx
	started    bool
}

// NewTrackingResponseWriter creates a new writer that delegates writes to the wrapped writer
// but that keeps track of the written bytes, the status code and whether the
// response has been started.
func NewTrackingResponseWriter(w http.ResponseWriter, rCtx *requestctx.RequestCtx) *trackingResponseWriter {
	return &trackingResponseWriter{
		rWriter:    w,
		requestCtx: rCtx,
	}
}

const trackingBytesCeiling uint64 = 1000000000000000

func (w *trackingResponseWriter) Write(b []byte) (int, error) {
	w.started = true
	n, err := w.rWriter.Write(b)
	if uint64(n) < trackingBytesCeiling && w.requestCtx.BytesSent < trackingBytesCeiling {
		w.requestCtx.BytesSent += uint64(n)
	} else {
		slog.Warn("trackingResponseWriter wrote more than 1 peta-bytes request size will be wrong")
	}
	return n, err
}

func (w *trackingResponseWriter) Header() http.Header {
	return w.rWriter.Header()
}

func (w *trackingResponseWriter) WriteHeader(statusCode int) {
	if w.started {
		//net/http would log superfluous calls, we guard against them upfront
		return
	}
	w.started = true
	w.requestCtx.HTTPStatus = statusCode
	w.rWriter.WriteHeader(statusCode)
}

func (w *trackingResponseWriter) Started() bool {
	return w.started
}

//Pass through flushes for streamed response bodies if the wrapped writer
//supports them.
func (w *trackingResponseWriter) Flush() {
	if f, ok := w.rWriter.(http.Flusher); ok {
		f.Flush()
	}
}
