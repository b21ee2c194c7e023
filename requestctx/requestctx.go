package requestctx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

//Information tracked per incoming request. It is created by the log middleware
//and travels with the request context so that response writing and logging
//can correlate everything that happened for one request.
type RequestCtx struct {
	//A request ID which is used to correlate log entries to a request. Each request gets a random ID
	//which will be most likely a globally unique ID. The Requester could however chose a Request ID
	//in case they want to do multiple requests with a single ID (e.g. for troubleshooting).
	RequestID string

	//When the request came in
	Time time.Time

	RemoteIP   string
	RequestURI string
	Referer    string
	UserAgent  string
	Host       string

	//Filled in by the httptracking wrappers
	BytesSent     uint64
	BytesReceived uint64
	HTTPStatus    int

	//The API operation the router recognized for this request
	Operation fmt.Stringer

	//The error code sent to the client if the request failed
	ErrorCode string

	mu            sync.Mutex
	accessLogInfo map[string][]slog.Attr
}

type key int

var requestCtxKey key

func getRandomRequestId() string {
	return uuid.New().String()
}

const XRequestID string = "X-Request-ID"

//A heuristic to cheaply check whether a structure is UUID4-like
//version info is not checked as the goal is mostly to have consistent
//logging format and lengths
func hasUUID4Format(s string) bool {
	if len(s) != 36 {
		return false
	}
	if s[8] != '-' || s[13] != '-' || s[23] != '-' {
		return false
	}
	return true
}

//Get the RequestId for a request. If none is provided a Unique uuid4
//will be generated and provided lower case. If the request provided
//it via the X-Request-ID header it is forced to be upper case.
func getRequestIdFromHttpRequest(req *http.Request) string {
	reqId := req.Header.Get(XRequestID)
	if reqId == "" || !hasUUID4Format(reqId) {
		return getRandomRequestId()
	}
	return strings.ToUpper(reqId)
}

func NewContextFromHttpRequest(req *http.Request) context.Context {
	return NewContextFromHttpRequestWithStartTime(req, time.Now().UTC())
}

func NewContextFromHttpRequestWithStartTime(req *http.Request, startTime time.Time) context.Context {
	rCtx := RequestCtx{
		RequestID:     getRequestIdFromHttpRequest(req),
		Time:          startTime,
		RemoteIP:      req.RemoteAddr,
		RequestURI:    req.RequestURI,
		Referer:       req.Referer(),
		UserAgent:     req.UserAgent(),
		Host:          req.Host,
		accessLogInfo: map[string][]slog.Attr{},
	}
	return NewContext(req.Context(), &rCtx)
}

func NewContext(ctx context.Context, rCtx *RequestCtx) context.Context {
	return context.WithValue(ctx, requestCtxKey, rCtx)
}

func FromContext(ctx context.Context) (*RequestCtx, bool) {
	rCtx, ok := ctx.Value(requestCtxKey).(*RequestCtx)
	return rCtx, ok
}

func GetRequestID(ctx context.Context) string {
	rCtx, ok := FromContext(ctx)
	if ok {
		return rCtx.RequestID
	}
	return ""
}

//Register which API operation a request maps to. Requests without a
//requestctx are tolerated because routing can run against bare test requests.
func SetOperation(r *http.Request, operation fmt.Stringer) {
	rCtx, ok := FromContext(r.Context())
	if !ok {
		return
	}
	rCtx.Operation = operation
}

func GetOperation(r *http.Request) fmt.Stringer {
	rCtx, ok := FromContext(r.Context())
	if !ok {
		return nil
	}
	return rCtx.Operation
}

//Track the error code that was sent back such that it ends up in the access log
func SetErrorCode(ctx context.Context, errCode string) {
	rCtx, ok := FromContext(ctx)
	if !ok {
		return
	}
	rCtx.ErrorCode = errCode
}

//Add extra information under a group name that should make it into the final
//access log entry of the request (e.g. Bucket and Key for the s3 group).
func (r *RequestCtx) AddAccessLogInfo(group string, attrs ...slog.Attr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accessLogInfo == nil {
		r.accessLogInfo = map[string][]slog.Attr{}
	}
	r.accessLogInfo[group] = append(r.accessLogInfo[group], attrs...)
}

func (r *RequestCtx) GetAccessLogInfo() (logAttrs []slog.Attr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for group, attrs := range r.accessLogInfo {
		anyAttrs := make([]any, 0, len(attrs))
		for _, attr := range attrs {
			anyAttrs = append(anyAttrs, attr)
		}
		logAttrs = append(logAttrs, slog.Group(group, anyAttrs...))
	}
	return logAttrs
}

//Lookup a string value that was added via AddAccessLogInfo. Returns the empty
//string when the group or key was never set.
func GetAccessLogStringInfo(r *http.Request, group string, key string) string {
	rCtx, ok := FromContext(r.Context())
	if !ok {
		return ""
	}
	rCtx.mu.Lock()
	defer rCtx.mu.Unlock()
	for _, attr := range rCtx.accessLogInfo[group] {
		if attr.Key == key {
			return attr.Value.String()
		}
	}
	return ""
}
