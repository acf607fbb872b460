package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ClientConfig holds configuration for S3Client
type S3ClientConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// S3Client pulls corpus snapshots from S3-compatible storage (e.g.
// MinIO). The scraper publishes the center's pages and event listings
// to one bucket; the kiosk mirrors it to local disk before a rebuild.
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client creates a new S3Client with the given configuration
func NewS3Client(ctx context.Context, cfg S3ClientConfig) (*S3Client, error) {
	// Create custom resolver for S3-compatible endpoints
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	// Load AWS config
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create S3 client with path-style addressing for S3-compatible services
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Client{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// ListCorpusKeys returns the keys of every corpus object in the bucket,
// skipping anything that is not a .txt or .json file.
func (c *S3Client) ListCorpusKeys(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list corpus objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			ext := strings.ToLower(filepath.Ext(key))
			if ext == ".txt" || ext == ".json" {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// DownloadObject writes one object's contents to destPath, creating
// parent directories as needed.
func (c *S3Client) DownloadObject(ctx context.Context, key, destPath string) error {
	output, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer output.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", destPath, err)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, output.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

// SyncResult summarizes one corpus sync.
type SyncResult struct {
	Downloaded int
	Removed    int
}

// SyncCorpus mirrors the bucket's corpus into destDir: every remote
// .txt/.json object is downloaded, and local files no longer present
// remotely are removed so deleted pages drop out of the index on the
// next rebuild.
func (c *S3Client) SyncCorpus(ctx context.Context, destDir string) (*SyncResult, error) {
	keys, err := c.ListCorpusKeys(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory: %w", err)
	}

	remote := make(map[string]struct{}, len(keys))
	result := &SyncResult{}
	for _, key := range keys {
		rel := filepath.FromSlash(key)
		remote[rel] = struct{}{}
		if err := c.DownloadObject(ctx, key, filepath.Join(destDir, rel)); err != nil {
			log.Printf("storage: skipping %s: %v", key, err)
			continue
		}
		result.Downloaded++
	}

	err = filepath.Walk(destDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(destDir, path)
		if err != nil {
			return err
		}
		if _, ok := remote[rel]; !ok {
			if err := os.Remove(path); err != nil {
				return err
			}
			result.Removed++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prune corpus directory: %w", err)
	}

	log.Printf("storage: corpus sync downloaded %d objects, removed %d stale files", result.Downloaded, result.Removed)
	return result, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (c *S3Client) EnsureBucket(ctx context.Context) error {
	// Check if bucket exists
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err == nil {
		return nil // Bucket exists
	}

	// Create bucket
	_, err = c.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}
