package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudharbor/s3front/testutils"
)

func bucketConfigForRoot(bucketName, rootDir string) string {
	return fmt.Sprintf("buckets:\n- name: %s\n  type: posix\n  root: %s\n", bucketName, rootDir)
}

func TestLoadBackendCatalog(t *testing.T) {
	rootDir := testutils.StageBucketInTempDir(t, "my-bucket", testBucketObjects)
	configFile := testutils.TempYamlFile(t, bucketConfigForRoot("my-bucket", rootDir))

	catalog, err := LoadBackendCatalog(context.Background(), configFile)
	if err != nil {
		t.Fatalf("Could not load backend catalog: %s", err)
	}
	defer catalog.Close()

	backend, err := catalog.Resolve("my-bucket")
	if err != nil {
		t.Fatalf("Could not resolve bucket: %s", err)
	}
	if backend.Kind() != "posix" {
		t.Errorf("Expected posix backend got %s", backend.Kind())
	}
	_, err = catalog.Resolve("unknown-bucket")
	if !errors.Is(err, errNoSuchBucket) {
		t.Errorf("Expected errNoSuchBucket got %v", err)
	}
	buckets := catalog.Buckets()
	if len(buckets) != 1 || buckets[0] != "my-bucket" {
		t.Errorf("Unexpected bucket listing %v", buckets)
	}
}

func TestBuildBucketMapRejectsBrokenConfig(t *testing.T) {
	testCases := []struct {
		description string
		config      string
	}{
		{"bucket without name", "buckets:\n- type: posix\n  root: /tmp\n"},
		{"duplicate buckets", "buckets:\n- name: b\n  type: posix\n  root: /tmp\n- name: b\n  type: posix\n  root: /tmp\n"},
		{"unsupported type", "buckets:\n- name: b\n  type: carrier-pigeon\n"},
		{"posix without root", "buckets:\n- name: b\n  type: posix\n"},
		{"not yaml at all", "}{"},
	}
	for _, tc := range testCases {
		_, err := buildBucketMap(context.Background(), []byte(tc.config))
		if err == nil {
			t.Errorf("Expected error for config with %s", tc.description)
		}
	}
}

func awaitBucketKnown(t testing.TB, catalog *BackendCatalog, bucketName string) {
	for i := 0; i < 100; i++ {
		if _, err := catalog.Resolve(bucketName); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Bucket %s did not appear in catalog in time", bucketName)
}

func TestBackendCatalogHotReload(t *testing.T) {
	rootDir := testutils.StageBucketInTempDir(t, "my-bucket", testBucketObjects)
	otherRootDir := testutils.StageBucketInTempDir(t, "other-bucket", testBucketObjects)
	configFile := testutils.TempYamlFile(t, bucketConfigForRoot("my-bucket", rootDir))

	catalog, err := LoadBackendCatalog(context.Background(), configFile)
	if err != nil {
		t.Fatalf("Could not load backend catalog: %s", err)
	}
	defer catalog.Close()

	testutils.OverwriteFile(t, configFile, bucketConfigForRoot("other-bucket", otherRootDir))
	awaitBucketKnown(t, catalog, "other-bucket")
	if _, err := catalog.Resolve("my-bucket"); !errors.Is(err, errNoSuchBucket) {
		t.Errorf("Expected old bucket to be gone got %v", err)
	}

	//A broken config file must not take down the last good mapping
	testutils.OverwriteFile(t, configFile, "}{ not yaml")
	time.Sleep(200 * time.Millisecond)
	if _, err := catalog.Resolve("other-bucket"); err != nil {
		t.Errorf("Expected last good mapping to survive broken config got %v", err)
	}
}
