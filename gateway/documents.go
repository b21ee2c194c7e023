package gateway

import (
	"encoding/xml"
	"time"
)

//XML documents of the list operations.
//https://docs.aws.amazon.com/AmazonS3/latest/API/API_ListBuckets.html
//https://docs.aws.amazon.com/AmazonS3/latest/API/API_ListObjectsV2.html

type bucketEntry struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate"`
}

type listAllMyBucketsResult struct {
	XMLName xml.Name      `xml:"ListAllMyBucketsResult"`
	Buckets []bucketEntry `xml:"Buckets>Bucket"`
}

type objectEntry struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

type listBucketResult struct {
	XMLName     xml.Name      `xml:"ListBucketResult"`
	Name        string        `xml:"Name"`
	Prefix      string        `xml:"Prefix"`
	KeyCount    int           `xml:"KeyCount"`
	IsTruncated bool          `xml:"IsTruncated"`
	Contents    []objectEntry `xml:"Contents"`
}

func newListAllMyBucketsResult(buckets []string) listAllMyBucketsResult {
	doc := listAllMyBucketsResult{}
	for _, bucket := range buckets {
		doc.Buckets = append(doc.Buckets, bucketEntry{
			Name: bucket,
			//We do not track bucket creation, report the epoch
			CreationDate: time.Unix(0, 0).UTC().Format(time.RFC3339),
		})
	}
	return doc
}

func newListBucketResult(bucket, prefix string, objects []ObjectInfo) listBucketResult {
	doc := listBucketResult{
		Name:     bucket,
		Prefix:   prefix,
		KeyCount: len(objects),
	}
	for _, info := range objects {
		entry := objectEntry{
			Key:          info.Key,
			ETag:         info.ETag,
			Size:         info.Size,
			StorageClass: "STANDARD",
		}
		if !info.LastModified.IsZero() {
			entry.LastModified = info.LastModified.UTC().Format(time.RFC3339)
		}
		doc.Contents = append(doc.Contents, entry)
	}
	return doc
}
