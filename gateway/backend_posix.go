package gateway

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudharbor/s3front/usererror"
)

//A backend that serves a bucket from a directory on the local filesystem.
//Object keys map to file paths below the bucket root.
type posixBackend struct {
	//Directory that holds one sub-directory per bucket
	root string
}

func newPosixBackend(root string) (*posixBackend, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot use %s as posix backend root; %w", root, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("posix backend root %s is not a directory", root)
	}
	return &posixBackend{root: root}, nil
}

func (b *posixBackend) Kind() string {
	return "posix"
}

//Keys are untrusted input, never let them escape the bucket directory.
//The client gets a generic message, the log keeps the offending key.
func (b *posixBackend) safePath(bucket, key string) (string, error) {
	bucketDir := filepath.Join(b.root, bucket)
	objectPath := filepath.Join(bucketDir, filepath.FromSlash(key))
	if !strings.HasPrefix(objectPath, bucketDir+string(os.PathSeparator)) && objectPath != bucketDir {
		return "", usererror.New(
			fmt.Errorf("key %q escapes the directory of bucket %s: %w", key, bucket, errAccessDenied),
			"the key is not a valid object path")
	}
	return objectPath, nil
}

func (b *posixBackend) bucketDir(bucket string) (string, error) {
	bucketDir := filepath.Join(b.root, bucket)
	fi, err := os.Stat(bucketDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errNoSuchBucket
		}
		return "", err
	}
	if !fi.IsDir() {
		return "", errNoSuchBucket
	}
	return bucketDir, nil
}

func (b *posixBackend) statObject(bucket, key string) (string, fs.FileInfo, error) {
	if _, err := b.bucketDir(bucket); err != nil {
		return "", nil, err
	}
	objectPath, err := b.safePath(bucket, key)
	if err != nil {
		return "", nil, err
	}
	fi, err := os.Stat(objectPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, errNoSuchKey
		}
		return "", nil, err
	}
	if fi.IsDir() {
		//Directories are not objects
		return "", nil, errNoSuchKey
	}
	return objectPath, fi, nil
}

func objectInfoFromFileInfo(key string, fi fs.FileInfo) ObjectInfo {
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		ETag:         fmt.Sprintf("\"%x-%x\"", fi.ModTime().UnixNano(), fi.Size()),
		LastModified: fi.ModTime(),
		ContentType:  contentType,
	}
}

func (b *posixBackend) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	objectPath, fi, err := b.statObject(bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(objectPath)
	if err != nil {
		if os.IsPermission(err) {
			return nil, ObjectInfo{}, errAccessDenied
		}
		return nil, ObjectInfo{}, err
	}
	return f, objectInfoFromFileInfo(key, fi), nil
}

func (b *posixBackend) HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	_, fi, err := b.statObject(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	return objectInfoFromFileInfo(key, fi), nil
}

func (b *posixBackend) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	bucketDir, err := b.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	var objects []ObjectInfo
	err = filepath.WalkDir(bucketDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(bucketDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(relPath)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, objectInfoFromFileInfo(key, fi))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (b *posixBackend) DeleteObject(ctx context.Context, bucket, key string) error {
	objectPath, _, err := b.statObject(bucket, key)
	if err != nil {
		return err
	}
	err = os.Remove(objectPath)
	if err != nil {
		if os.IsPermission(err) {
			return errAccessDenied
		}
		return err
	}
	return nil
}
