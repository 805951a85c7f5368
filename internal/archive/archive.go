package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"companybot/pkg/models"
)

// Config holds S3/MinIO archive configuration.
type Config struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Archive keeps a copy of each company's cleaned crawl output in object
// storage, one object per page plus a manifest.
type Archive struct {
	minioClient *minio.Client
	bucket      string
}

// New creates a new crawl archive client.
func New(config Config) (*Archive, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Archive{
		minioClient: minioClient,
		bucket:      config.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.minioClient.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := a.minioClient.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Manifest describes one archived crawl.
type Manifest struct {
	CompanyURL string         `json:"company_url"`
	Timestamp  string         `json:"timestamp"`
	PageCount  int            `json:"page_count"`
	Pages      []ManifestPage `json:"pages"`
}

// ManifestPage is one archived page entry.
type ManifestPage struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// StoreCrawl writes every page and a manifest under
// companies/<host>/<timestamp>-<shortid>/ and returns the prefix used.
func (a *Archive) StoreCrawl(ctx context.Context, companyURL string, pages []models.Page) (string, error) {
	parsed, err := url.Parse(companyURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse company URL: %w", err)
	}

	now := time.Now().UTC()
	shortID := models.PageID(fmt.Sprintf("%s-%d", companyURL, now.UnixNano()))[:8]
	prefix := fmt.Sprintf("companies/%s/%s-%s", parsed.Host, now.Format("2006-01-02T15-04-05"), shortID)

	manifest := Manifest{
		CompanyURL: companyURL,
		Timestamp:  now.Format(time.RFC3339),
		PageCount:  len(pages),
	}

	for _, page := range pages {
		objectName := path.Join(prefix, "pages", models.PageID(page.URL)+".txt")
		reader := strings.NewReader(page.Markdown)
		_, err := a.minioClient.PutObject(ctx, a.bucket, objectName, reader, int64(len(page.Markdown)), minio.PutObjectOptions{
			ContentType: "text/plain",
		})
		if err != nil {
			return "", fmt.Errorf("failed to archive page %q: %w", page.URL, err)
		}
		manifest.Pages = append(manifest.Pages, ManifestPage{URL: page.URL, Title: page.Title})
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	_, err = a.minioClient.PutObject(ctx, a.bucket, path.Join(prefix, "manifest.json"),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	return prefix, nil
}
