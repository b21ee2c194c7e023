// Copyright (c) 2015-2021 MinIO, Inc.
//
// This file is part of MinIO Object Storage stack
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

//Original source: https://github.com/minio/minio/blob/master/cmd/api-response.go

package s3api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cloudharbor/s3front/constants"
	"github.com/cloudharbor/s3front/httptracking"
	"github.com/cloudharbor/s3front/requestctx"
	"github.com/cloudharbor/s3front/utils"
	"github.com/go-http-utils/headers"
)

// mimeType represents various MIME type used API responses.
type mimeType string

const (
	// Means no response type.
	mimeNone mimeType = ""
	// Means response type is XML.
	mimeXML mimeType = "application/xml"
)

//Every response carries the server identification and the request id twice.
//Real S3 derives x-amz-id-2 differently but tooling only checks presence.
func setCommonHeaders(ctx context.Context, w http.ResponseWriter) {
	w.Header().Set(headers.Server, constants.AmzServerName)
	reqID := requestctx.GetRequestID(ctx)
	w.Header().Set(constants.AmzRequestIDKey, reqID)
	w.Header().Set(constants.AmzID2Key, reqID)
}

//Headers without a value are dropped rather than sent empty.
func setHeaders(w http.ResponseWriter, hdrs map[string]string) {
	for headerName, headerValue := range hdrs {
		if headerValue == "" {
			continue
		}
		w.Header().Set(headerName, headerValue)
	}
}

func checkStatusCode(ctx context.Context, statusCode int) int {
	if statusCode == 0 {
		return http.StatusOK
	}
	// Similar check to http.checkWriteHeaderCode
	if statusCode < 100 || statusCode > 999 {
		slog.ErrorContext(ctx, "Internal server error", "error", "invalid WriteHeader code", "statusCode", statusCode)
		return http.StatusInternalServerError
	}
	return statusCode
}

//The shared tail of every buffered response: headers, status line, payload.
func writeResponse(ctx context.Context, w http.ResponseWriter, hdrs map[string]string, statusCode int, response []byte, mType mimeType) {
	statusCode = checkStatusCode(ctx, statusCode)
	setHeaders(w, hdrs)
	setCommonHeaders(ctx, w)
	if mType != mimeNone {
		w.Header().Set(headers.ContentType, string(mType))
	}
	//Metadata-only retrievals announce the length of the object, not of this
	//empty payload, so an explicit Content-Length wins.
	if w.Header().Get(headers.ContentLength) == "" {
		w.Header().Set(headers.ContentLength, strconv.Itoa(len(response)))
	}
	w.WriteHeader(statusCode)
	if response != nil {
		utils.WriteButLogOnError(ctx, w, response)
	}
}

//Like writeResponse but without payload or Content-Length, used to start a
//streamed response. The body follows from the stream pump.
func writeResponseHead(ctx context.Context, w http.ResponseWriter, hdrs map[string]string, statusCode int) {
	statusCode = checkStatusCode(ctx, statusCode)
	setHeaders(w, hdrs)
	setCommonHeaders(ctx, w)
	w.WriteHeader(statusCode)
}

//Whether a response has already been started for this request. Only writers
//wrapped by httptracking can tell; for bare writers we assume a fresh response.
func responseStarted(w http.ResponseWriter) bool {
	tracker, ok := w.(httptracking.ResponseStartTracker)
	if !ok {
		return false
	}
	return tracker.Started()
}

//All respond operations are no-ops when an earlier layer already started
//writing, a request is answered at most once.
func skipBecauseStarted(ctx context.Context, w http.ResponseWriter, operation string) bool {
	if !responseStarted(w) {
		return false
	}
	slog.WarnContext(ctx, "Response already started, dropping dispatch", "operation", operation)
	return true
}

// RespondBody answers with a buffered XML payload or, when errCode is given,
// with the translated error document for that code.
func RespondBody(ctx context.Context, w http.ResponseWriter, errCode string, err error, xmlBody []byte) {
	if skipBecauseStarted(ctx, w, "RespondBody") {
		return
	}
	if errCode != "" {
		writeErrorResponse(ctx, w, errCode, err)
		return
	}
	writeResponse(ctx, w, nil, http.StatusOK, xmlBody, mimeXML)
}

// RespondNoBody answers with just headers and a status code, or with the
// error document for errCode. A zero statusCode means 200.
func RespondNoBody(ctx context.Context, w http.ResponseWriter, errCode string, err error, hdrs map[string]string, statusCode int) {
	if skipBecauseStarted(ctx, w, "RespondNoBody") {
		return
	}
	if errCode != "" {
		writeErrorResponse(ctx, w, errCode, err)
		return
	}
	writeResponse(ctx, w, hdrs, statusCode, nil, mimeNone)
}

// RespondContentHeaders answers a metadata-only retrieval (e.g. HeadObject):
// the computed base headers merged with the request's response-* overrides,
// status 200 and no body.
func RespondContentHeaders(ctx context.Context, w http.ResponseWriter, errCode string, err error, overrideParams url.Values, baseHeaders map[string]string) {
	if skipBecauseStarted(ctx, w, "RespondContentHeaders") {
		return
	}
	if errCode != "" {
		writeErrorResponse(ctx, w, errCode, err)
		return
	}
	merged := MergeContentHeaderOverrides(overrideParams, baseHeaders)
	writeResponse(ctx, w, merged, http.StatusOK, nil, mimeNone)
}

// RespondStream answers an object retrieval with a streamed body: merged
// headers and status 200 go out first, then the stream is pumped to the
// client. The returned channel receives exactly one value once the stream
// reached end-of-data (nil) or was cut short (the error), and only then is
// the response complete. The stream is always closed, also on failure.
func RespondStream(ctx context.Context, w http.ResponseWriter, errCode string, err error, overrideParams url.Values, baseHeaders map[string]string, stream io.ReadCloser) <-chan error {
	done := make(chan error, 1)
	if skipBecauseStarted(ctx, w, "RespondStream") {
		closeStreamButLogOnError(ctx, stream)
		done <- nil
		return done
	}
	if errCode != "" {
		closeStreamButLogOnError(ctx, stream)
		writeErrorResponse(ctx, w, errCode, err)
		done <- nil
		return done
	}
	merged := MergeContentHeaderOverrides(overrideParams, baseHeaders)
	writeResponseHead(ctx, w, merged, http.StatusOK)
	go func() {
		done <- pumpStream(ctx, w, stream)
	}()
	return done
}

func closeStreamButLogOnError(ctx context.Context, stream io.ReadCloser) {
	if stream == nil {
		return
	}
	if err := stream.Close(); err != nil {
		slog.WarnContext(ctx, "Could not close response stream", "error", err)
	}
}

//Copy the stream to the client, flushing as data arrives. An aborted request
//context or a failing client write releases the source instead of pumping
//into the void.
func pumpStream(ctx context.Context, w http.ResponseWriter, stream io.ReadCloser) error {
	defer closeStreamButLogOnError(ctx, stream)
	flusher, canFlush := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	var written int64
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			slog.WarnContext(ctx, "Request context ended during streaming", "error", ctxErr, "bytes", written)
			return ctxErr
		}
		n, readErr := stream.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				slog.WarnContext(ctx, "Could not stream response body", "error", writeErr, "bytes", written)
				return writeErr
			}
			written += int64(n)
			if canFlush {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			slog.DebugContext(ctx, "End of streamed response", "bytes", written)
			return nil
		}
		if readErr != nil {
			slog.WarnContext(ctx, "Response stream failed before end of data", "error", readErr, "bytes", written)
			return readErr
		}
	}
}
