package s3api

import (
	"net/url"

	"github.com/cloudharbor/s3front/constants"
	"github.com/go-http-utils/headers"
)

//Which query parameter overrides which response header on object retrieval.
//Parameters outside of this set never make it into response headers.
var contentHeaderOverrides = map[string]string{
	constants.ResponseContentType:        headers.ContentType,
	constants.ResponseContentLanguage:    headers.ContentLanguage,
	constants.ResponseExpires:            headers.Expires,
	constants.ResponseCacheControl:       headers.CacheControl,
	constants.ResponseContentDisposition: headers.ContentDisposition,
	constants.ResponseContentEncoding:    headers.ContentEncoding,
}

// MergeContentHeaderOverrides combines the headers computed for a retrieval
// response with the response-* override parameters of the request. The
// caller's map is never modified. An override only wins when it has a value.
func MergeContentHeaderOverrides(overrideParams url.Values, baseHeaders map[string]string) map[string]string {
	merged := make(map[string]string, len(baseHeaders)+len(contentHeaderOverrides))
	for headerName, headerValue := range baseHeaders {
		merged[headerName] = headerValue
	}
	for param, headerName := range contentHeaderOverrides {
		if value := overrideParams.Get(param); value != "" {
			merged[headerName] = value
		}
	}
	return merged
}
