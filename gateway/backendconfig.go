package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/fsnotify/fsnotify"
	"sigs.k8s.io/yaml"
)

type bucketConfigFileEntry struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`

	//posix backends
	Root string `yaml:"root,omitempty" json:"root,omitempty"`

	//s3 backends
	Endpoint    string            `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Region      string            `yaml:"region,omitempty" json:"region,omitempty"`
	Credentials map[string]string `yaml:"credentials,omitempty" json:"credentials,omitempty"`
}

type awsBackendCredentialFile struct {
	AccessKey    string `yaml:"aws_access_key_id" json:"aws_access_key_id"`
	SecretKey    string `yaml:"aws_secret_access_key" json:"aws_secret_access_key"`
	SessionToken string `yaml:"aws_session_token,omitempty" json:"aws_session_token,omitempty"`
}

//The config file could host different types of credentials. Check cases 1 by one
//and fail if there was no valid type of credentials found
func (entry bucketConfigFileEntry) getCredentials() (creds aws.Credentials, err error) {
	filePath, ok := entry.Credentials["file"]
	if ok {
		buf, err := os.ReadFile(filePath)
		if err != nil {
			return creds, fmt.Errorf("could not read credentials file %s; %s", filePath, err)
		}

		c := &awsBackendCredentialFile{}
		err = yaml.Unmarshal(buf, c)
		if err != nil {
			return creds, fmt.Errorf("error unmarshalling file %s; %s", filePath, err)
		}
		if c.AccessKey == "" {
			return creds, errors.New("invalid credentials file, missing access key")
		}
		creds.AccessKeyID = c.AccessKey
		if c.SecretKey == "" {
			return creds, errors.New("invalid credentials file, missing secret key")
		}
		creds.SecretAccessKey = c.SecretKey
		if c.SessionToken != "" {
			creds.SessionToken = c.SessionToken
			creds.CanExpire = true
		}
		return creds, nil
	}
	return creds, errors.New("unable to find a valid type of credentials")
}

type bucketsConfigFile struct {
	Buckets []bucketConfigFileEntry `yaml:"buckets" json:"buckets"`
}

func (entry bucketConfigFileEntry) buildBackend(ctx context.Context) (Backend, error) {
	switch entry.Type {
	case "posix":
		if entry.Root == "" {
			return nil, fmt.Errorf("posix bucket %s misses a root", entry.Name)
		}
		return newPosixBackend(entry.Root)
	case "s3":
		creds, err := entry.getCredentials()
		if err != nil {
			return nil, fmt.Errorf("invalid credentials for bucket %s; %s", entry.Name, err)
		}
		return newS3Backend(ctx, entry.Endpoint, entry.Region, creds)
	default:
		return nil, fmt.Errorf("unsupported backend type %s for bucket %s", entry.Type, entry.Name)
	}
}

//Knows which backend serves which bucket. The mapping can be swapped at
//runtime when the config file changes so all access goes through Resolve.
type BackendCatalog struct {
	configFilePath string

	mu       sync.RWMutex
	byBucket map[string]Backend

	//To monitor file system changes
	watcher *fsnotify.Watcher
}

func buildBucketMap(ctx context.Context, inputBytes []byte) (map[string]Backend, error) {
	c := &bucketsConfigFile{}
	err := yaml.Unmarshal(inputBytes, c)
	if err != nil {
		return nil, err
	}
	byBucket := map[string]Backend{}
	for _, entry := range c.Buckets {
		if entry.Name == "" {
			return nil, errors.New("bucket entry without a name")
		}
		if _, exists := byBucket[entry.Name]; exists {
			return nil, fmt.Errorf("duplicate bucket %s", entry.Name)
		}
		backend, err := entry.buildBackend(ctx)
		if err != nil {
			return nil, fmt.Errorf("invalid config %v resulted in %s", entry, err)
		}
		byBucket[entry.Name] = backend
	}
	return byBucket, nil
}

// LoadBackendCatalog reads the bucket config file and starts watching it for
// changes. A broken updated file keeps the last good mapping in place.
func LoadBackendCatalog(ctx context.Context, configFilePath string) (*BackendCatalog, error) {
	buf, err := os.ReadFile(configFilePath)
	if err != nil {
		return nil, err
	}
	byBucket, err := buildBucketMap(ctx, buf)
	if err != nil {
		return nil, err
	}
	catalog := &BackendCatalog{
		configFilePath: configFilePath,
		byBucket:       byBucket,
	}
	catalog.watcher = catalog.startWatching(ctx)
	return catalog, nil
}

func (c *BackendCatalog) Resolve(bucket string) (Backend, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	backend, ok := c.byBucket[bucket]
	if !ok {
		return nil, errNoSuchBucket
	}
	return backend, nil
}

func (c *BackendCatalog) Buckets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	buckets := make([]string, 0, len(c.byBucket))
	for bucket := range c.byBucket {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)
	return buckets
}

func (c *BackendCatalog) reload(ctx context.Context) {
	buf, err := os.ReadFile(c.configFilePath)
	if err != nil {
		slog.Error("Could not re-read bucket config, keeping old mapping", "error", err, "filepath", c.configFilePath)
		return
	}
	byBucket, err := buildBucketMap(ctx, buf)
	if err != nil {
		slog.Error("Invalid bucket config, keeping old mapping", "error", err, "filepath", c.configFilePath)
		return
	}
	c.mu.Lock()
	c.byBucket = byBucket
	c.mu.Unlock()
	slog.Info("Reloaded bucket config", "filepath", c.configFilePath, "buckets", len(byBucket))
}

//See https://github.com/fsnotify/fsnotify
//We watch the directory because editors replace files rather than write them.
func (c *BackendCatalog) startWatching(ctx context.Context) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("Could not create watcher for bucket config, hot reload disabled", "error", err)
		return nil
	}
	configFileName := filepath.Base(c.configFilePath)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != configFileName {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					c.reload(ctx)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Error while watching bucket config", "error", err)
			}
		}
	}()
	err = watcher.Add(filepath.Dir(c.configFilePath))
	if err != nil {
		slog.Error("Could not watch bucket config dir, hot reload disabled", "error", err)
		watcher.Close()
		return nil
	}
	return watcher
}

// Close stops watching the config file.
func (c *BackendCatalog) Close() {
	if c.watcher != nil {
		c.watcher.Close()
	}
}
