package constants

//Amazon specific headers and query parameters that are not exported by
//github.com/go-http-utils/headers because they are not standard HTTP.
const (
	// AmzRequestIDKey is the primary request id header of an S3 response
	AmzRequestIDKey = "x-amz-request-id"

	// AmzID2Key is the extended request id header. Real S3 derives it from
	// the host, we mirror the request id for client/tooling compatibility.
	AmzID2Key = "x-amz-id-2"

	// AmzServerName is the value S3-compatible endpoints report in the
	// Server header of every response.
	AmzServerName = "AmazonS3"
)

//Query parameters a client can send on object retrieval to override the
//headers computed for the response.
//https://docs.aws.amazon.com/AmazonS3/latest/API/API_GetObject.html
const (
	ResponseContentType        = "response-content-type"
	ResponseContentLanguage    = "response-content-language"
	ResponseExpires            = "response-expires"
	ResponseCacheControl       = "response-cache-control"
	ResponseContentDisposition = "response-content-disposition"
	ResponseContentEncoding    = "response-content-encoding"
)
