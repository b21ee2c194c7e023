package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cloudharbor/s3front/gateway/api"
	"github.com/cloudharbor/s3front/requestctx"
	"github.com/cloudharbor/s3front/s3api"
)

func getRoutedOperation(r *http.Request) api.S3Operation {
	operation, operationOk := requestctx.GetOperation(r).(api.S3Operation)
	if !operationOk {
		slog.WarnContext(r.Context(), "Could not get operation for request")
		operation = api.UnknownOperation
	}
	return operation
}

//Split the request path in bucket and key. Paths always start with a slash
//because the router only matches below the root.
func parseObjectPath(r *http.Request) (bucket string, key string) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		key = parts[1]
	}
	return bucket, key
}

func addS3AccessLogInfo(ctx context.Context, bucket, key string) {
	rCtx, ok := requestctx.FromContext(ctx)
	if !ok {
		return
	}
	attrs := []slog.Attr{slog.String("Bucket", bucket)}
	if key != "" {
		attrs = append(attrs, slog.String("Key", key))
	}
	rCtx.AddAccessLogInfo("s3", attrs...)
}

func (s *GatewayServer) handleOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operation := getRoutedOperation(r)
	switch operation {
	case api.ListBuckets:
		s.listBuckets(ctx, w)
	case api.ListObjectsV2:
		s.listObjects(ctx, w, r)
	case api.GetObject:
		s.getObject(ctx, w, r)
	case api.HeadBucket:
		s.headBucket(ctx, w, r)
	case api.HeadObject:
		s.headObject(ctx, w, r)
	case api.DeleteObject:
		s.deleteObject(ctx, w, r)
	default:
		slog.InfoContext(ctx, "Unknown/Unsupported type of operation")
		s3api.RespondBody(ctx, w, s3api.ErrMethodNotAllowed, nil, nil)
	}
}

func (s *GatewayServer) listBuckets(ctx context.Context, w http.ResponseWriter) {
	doc := newListAllMyBucketsResult(s.catalog.Buckets())
	s3api.RespondBody(ctx, w, "", nil, s3api.EncodeResponse(ctx, doc))
}

func (s *GatewayServer) listObjects(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	bucket, _ := parseObjectPath(r)
	addS3AccessLogInfo(ctx, bucket, "")
	backend, err := s.catalog.Resolve(bucket)
	if err != nil {
		s3api.RespondBody(ctx, w, errCodeForBackendError(err), err, nil)
		return
	}
	prefix := r.URL.Query().Get("prefix")
	objects, err := backend.ListObjects(ctx, bucket, prefix)
	if err != nil {
		slog.ErrorContext(ctx, "Could not list objects", "error", err, "bucket", bucket, "backend", backend.Kind())
		s3api.RespondBody(ctx, w, errCodeForBackendError(err), err, nil)
		return
	}
	doc := newListBucketResult(bucket, prefix, objects)
	s3api.RespondBody(ctx, w, "", nil, s3api.EncodeResponse(ctx, doc))
}

func (s *GatewayServer) getObject(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	bucket, key := parseObjectPath(r)
	addS3AccessLogInfo(ctx, bucket, key)
	backend, err := s.catalog.Resolve(bucket)
	if err != nil {
		<-s3api.RespondStream(ctx, w, errCodeForBackendError(err), err, r.URL.Query(), nil, nil)
		return
	}
	stream, info, err := backend.GetObject(ctx, bucket, key)
	if err != nil {
		slog.InfoContext(ctx, "Could not get object", "error", err, "bucket", bucket, "key", key, "backend", backend.Kind())
		<-s3api.RespondStream(ctx, w, errCodeForBackendError(err), err, r.URL.Query(), nil, nil)
		return
	}
	//The handler must only return once the stream was pumped completely
	done := s3api.RespondStream(ctx, w, "", nil, r.URL.Query(), objectResponseHeaders(info), stream)
	if err := <-done; err != nil {
		slog.WarnContext(ctx, "Object download was cut short", "error", err, "bucket", bucket, "key", key)
		return
	}
	slog.InfoContext(ctx, "End of object download", "bucket", bucket, "key", key, "bytes", info.Size)
}

func (s *GatewayServer) headBucket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	bucket, _ := parseObjectPath(r)
	addS3AccessLogInfo(ctx, bucket, "")
	_, err := s.catalog.Resolve(bucket)
	if err != nil {
		s3api.RespondNoBody(ctx, w, errCodeForBackendError(err), err, nil, 0)
		return
	}
	s3api.RespondNoBody(ctx, w, "", nil, nil, http.StatusOK)
}

func (s *GatewayServer) headObject(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	bucket, key := parseObjectPath(r)
	addS3AccessLogInfo(ctx, bucket, key)
	backend, err := s.catalog.Resolve(bucket)
	if err != nil {
		s3api.RespondContentHeaders(ctx, w, errCodeForBackendError(err), err, r.URL.Query(), nil)
		return
	}
	info, err := backend.HeadObject(ctx, bucket, key)
	if err != nil {
		s3api.RespondContentHeaders(ctx, w, errCodeForBackendError(err), err, r.URL.Query(), nil)
		return
	}
	s3api.RespondContentHeaders(ctx, w, "", nil, r.URL.Query(), objectResponseHeaders(info))
}

func (s *GatewayServer) deleteObject(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	bucket, key := parseObjectPath(r)
	addS3AccessLogInfo(ctx, bucket, key)
	backend, err := s.catalog.Resolve(bucket)
	if err != nil {
		s3api.RespondNoBody(ctx, w, errCodeForBackendError(err), err, nil, 0)
		return
	}
	err = backend.DeleteObject(ctx, bucket, key)
	//Deleting what is already gone is a success for S3
	if err != nil && !errors.Is(err, errNoSuchKey) {
		slog.ErrorContext(ctx, "Could not delete object", "error", err, "bucket", bucket, "key", key, "backend", backend.Kind())
		s3api.RespondNoBody(ctx, w, errCodeForBackendError(err), err, nil, 0)
		return
	}
	s3api.RespondNoBody(ctx, w, "", nil, nil, http.StatusNoContent)
}
