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

//Original source: https://github.com/minio/minio/blob/master/cmd/api-errors.go

package s3api

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/http"

	"github.com/cloudharbor/s3front/requestctx"
	"github.com/cloudharbor/s3front/usererror"
	"github.com/cloudharbor/s3front/utils"
)

//The error document that is sent to clients when a request failed.
//Element order matters for protocol conformance tooling so keep it stable.
type ErrorResponse struct {
	XMLName   xml.Name `xml:"Error" json:"-"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	Resource  string   `xml:"Resource"`
	RequestID string   `xml:"RequestId"`
}

type APIError struct {
	Description    string
	HTTPStatusCode int
}

//The error codes this gateway knows how to describe. Handlers pass these as
//plain strings so that upstream error codes can flow through unmodified.
const (
	ErrAccessDenied       = "AccessDenied"
	ErrInternalError      = "InternalError"
	ErrInvalidArgument    = "InvalidArgument"
	ErrInvalidBucketName  = "InvalidBucketName"
	ErrInvalidRange       = "InvalidRange"
	ErrMethodNotAllowed   = "MethodNotAllowed"
	ErrNoSuchBucket       = "NoSuchBucket"
	ErrNoSuchKey          = "NoSuchKey"
	ErrPreconditionFailed = "PreconditionFailed"
	ErrSlowDown           = "SlowDown"
)

type apiErrorMap map[string]APIError

//Descriptions and status codes per error code.
//https://docs.aws.amazon.com/AmazonS3/latest/API/ErrorResponses.html
//Loaded once at process start and never mutated afterwards.
var apiErrCodes = apiErrorMap{
	ErrAccessDenied: {
		Description:    "Access Denied",
		HTTPStatusCode: http.StatusForbidden,
	},
	ErrInternalError: {
		Description:    "We encountered an internal error, please try again.",
		HTTPStatusCode: http.StatusInternalServerError,
	},
	ErrInvalidArgument: {
		Description:    "Invalid Argument",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrInvalidBucketName: {
		Description:    "The specified bucket is not valid.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrInvalidRange: {
		Description:    "The requested range is not satisfiable",
		HTTPStatusCode: http.StatusRequestedRangeNotSatisfiable,
	},
	ErrMethodNotAllowed: {
		Description:    "The specified method is not allowed against this resource.",
		HTTPStatusCode: http.StatusMethodNotAllowed,
	},
	ErrNoSuchBucket: {
		Description:    "The specified bucket does not exist",
		HTTPStatusCode: http.StatusNotFound,
	},
	ErrNoSuchKey: {
		Description:    "The specified key does not exist.",
		HTTPStatusCode: http.StatusNotFound,
	},
	ErrPreconditionFailed: {
		Description:    "At least one of the pre-conditions you specified did not hold",
		HTTPStatusCode: http.StatusPreconditionFailed,
	},
	ErrSlowDown: {
		Description:    "Please reduce your request rate.",
		HTTPStatusCode: http.StatusServiceUnavailable,
	},
}

func (m apiErrorMap) lookup(errCode string) (APIError, bool) {
	apiErr, ok := m[errCode]
	if !ok {
		apiErr, ok = m[ErrInternalError]
		if !ok {
			//A table without an InternalError entry is a build defect, still
			//answer something protocol compliant.
			return APIError{
				Description:    "We encountered an internal error, please try again.",
				HTTPStatusCode: http.StatusInternalServerError,
			}, false
		}
		return apiErr, false
	}
	return apiErr, true
}

// Translate resolves an internal error code to the error document that should
// go out and the HTTP status to use. Unknown codes get the InternalError
// description and status but the document keeps the code the caller asked
// for, so the client still sees what the request was classified as.
func Translate(errCode string) (ErrorResponse, int) {
	apiErr, _ := apiErrCodes.lookup(errCode)
	errResp := ErrorResponse{
		Code:    errCode,
		Message: apiErr.Description,
	}
	return errResp, apiErr.HTTPStatusCode
}

// writeErrorResponse writes error headers and an XML error document.
// If err is a UserError then its user facing message replaces the description.
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, errCode string, err error) {
	requestctx.SetErrorCode(ctx, errCode)
	errResp, statusCode := Translate(errCode)
	errResp.RequestID = requestctx.GetRequestID(ctx)

	if userFacing := usererror.Get(err); userFacing != nil {
		//Golang doesn't like capitalized error strings but AWS errors seem to prefer it
		errResp.Message = utils.CapitalizeFirstLetter(userFacing.Error())
	}
	if statusCode >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Sending error response", "errorCode", errCode, "error", usererror.AsFlatSensitiveString(err))
	} else {
		slog.InfoContext(ctx, "Sending error response", "errorCode", errCode, "error", usererror.AsFlatSensitiveString(err))
	}
	encodedErrorResponse := EncodeResponse(ctx, errResp)
	writeResponse(ctx, w, nil, statusCode, encodedErrorResponse, mimeXML)
}
