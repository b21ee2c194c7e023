package api

type S3Operation int

//go:generate stringer -type=S3Operation $GOFILE
const (
	UnknownOperation S3Operation = iota
	ListBuckets
	ListObjectsV2
	GetObject
	HeadBucket
	HeadObject
	DeleteObject
)
