package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudharbor/s3front/s3api"
	"github.com/go-http-utils/headers"
)

//Sentinel errors backends use to report the reason of a failed operation.
//The handlers translate these into protocol error codes.
var (
	errNoSuchBucket = errors.New("no such bucket")
	errNoSuchKey    = errors.New("no such key")
	errAccessDenied = errors.New("access denied by backing store")
)

//Metadata of a single object as known by a backend.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
	ContentType  string
}

//A backend serves the object operations for one or more buckets.
type Backend interface {
	//A short type name used in logging
	Kind() string

	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}

//Translate a backend failure to the protocol error code to send out.
func errCodeForBackendError(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, errNoSuchBucket):
		return s3api.ErrNoSuchBucket
	case errors.Is(err, errNoSuchKey):
		return s3api.ErrNoSuchKey
	case errors.Is(err, errAccessDenied):
		return s3api.ErrAccessDenied
	default:
		return s3api.ErrInternalError
	}
}

//The computed response headers for a retrieval of the given object. These are
//the baseline which response-* override parameters can replace.
func objectResponseHeaders(info ObjectInfo) map[string]string {
	hdrs := map[string]string{
		headers.ContentType: info.ContentType,
		headers.ETag:        info.ETag,
		headers.AcceptRanges: "bytes",
	}
	if info.Size >= 0 {
		hdrs[headers.ContentLength] = strconv.FormatInt(info.Size, 10)
	}
	if !info.LastModified.IsZero() {
		hdrs[headers.LastModified] = info.LastModified.UTC().Format(http.TimeFormat)
	}
	return hdrs
}
