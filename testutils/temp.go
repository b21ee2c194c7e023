package testutils

import (
	"os"
	"path/filepath"
	"testing"
)

func tempFile(t testing.TB, content, filePattern string) (fileName string) {
	tmpDir := t.TempDir()
	f, err := os.CreateTemp(tmpDir, filePattern)
	if err != nil {
		t.Error("Could not create temp file", "error", err)
		t.FailNow()
	}
	defer f.Close()
	fileName = f.Name()
	_, err = f.Write([]byte(content))
	if err != nil {
		t.Error("Problem when writing file content", "error", err)
	}
	return fileName
}

func TempYamlFile(t testing.TB, content string) (fileName string) {
	return tempFile(t, content, "*.yaml")
}

// Overwrite an existing file in place, as a config reload would see it.
func OverwriteFile(t testing.TB, fileName, content string) {
	err := os.WriteFile(fileName, []byte(content), 0644)
	if err != nil {
		t.Error("Problem when overwriting file", "error", err, "fileName", fileName)
		t.FailNow()
	}
}

// Stage a bucket directory tree for posix backend testing. The keys of
// objects map to file paths relative to the bucket directory.
func StageBucketInTempDir(t testing.TB, bucketName string, objects map[string]string) (rootDir string) {
	rootDir = t.TempDir()
	bucketDir := filepath.Join(rootDir, bucketName)
	if err := os.MkdirAll(bucketDir, 0755); err != nil {
		t.Error("Could not create bucket dir", "error", err)
		t.FailNow()
	}
	for key, content := range objects {
		fullFilename := filepath.Join(bucketDir, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(fullFilename), 0755); err != nil {
			t.Error("Could not create object parent dir", "error", err, "key", key)
			t.FailNow()
		}
		if err := os.WriteFile(fullFilename, []byte(content), 0644); err != nil {
			t.Error("Problem when writing object content", "error", err, "key", key)
			t.FailNow()
		}
	}
	return rootDir
}
