// internal/storage/storage.go
package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/pricebot/pricebot/internal/config"
)

// Service writes uploaded and WhatsApp-media artefacts under
// ingestion_storage_dir/<yyyy>/<mm>/<uuid>-<sanitized_filename>, per spec
// §6. S3 is optional — adapted from the teacher's S3-only
// storage_service.go; this repo adds the local-disk backend, makes it the
// default and keeps S3 as the alternate, since spec §6 names
// ingestion_storage_dir as the primary config key.
type Service struct {
	rootDir  string
	s3Client *s3.S3
	bucket   string
	region   string
	cdnURL   string
}

// UploadResult describes where an artefact landed.
type UploadResult struct {
	StorageURI string
	Size       int64
}

var sanitizePattern = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func New(cfg *config.Config) (*Service, error) {
	s := &Service{
		rootDir: cfg.Storage.RootDir,
		bucket:  cfg.Storage.S3Bucket,
		region:  cfg.Storage.AWSRegion,
		cdnURL:  cfg.Storage.CloudFrontURL,
	}

	if cfg.Storage.AWSAccessKeyID == "" {
		if err := os.MkdirAll(s.rootDir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage root: %w", err)
		}
		return s, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Storage.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.Storage.AWSAccessKeyID, cfg.Storage.AWSSecretKey, "",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	s.s3Client = s3.New(sess)
	return s, nil
}

// SanitizeFileName replaces characters outside [A-Za-z0-9._-] with "_" and
// truncates to 120 bytes, per spec §6's storage layout rule.
func SanitizeFileName(name string) string {
	clean := sanitizePattern.ReplaceAllString(name, "_")
	if len(clean) > 120 {
		clean = clean[:120]
	}
	if clean == "" {
		clean = "file"
	}
	return clean
}

// Key builds the <yyyy>/<mm>/<uuid>-<sanitized_filename> key for an
// artefact, per spec §6.
func Key(originalName string) string {
	now := time.Now().UTC()
	return fmt.Sprintf("%04d/%02d/%s-%s", now.Year(), now.Month(), uuid.New().String(), SanitizeFileName(originalName))
}

// Write persists data under key and returns the storage URI recorded on
// SourceDocument.StorageURI.
func (s *Service) Write(key string, data []byte) (*UploadResult, error) {
	if s.s3Client != nil {
		return s.writeS3(key, data)
	}
	return s.writeLocal(key, data)
}

func (s *Service) writeLocal(key string, data []byte) (*UploadResult, error) {
	fullPath := filepath.Join(s.rootDir, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("create artefact directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write artefact: %w", err)
	}
	return &UploadResult{StorageURI: "file://" + fullPath, Size: int64(len(data))}, nil
}

func (s *Service) writeS3(key string, data []byte) (*UploadResult, error) {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 put object: %w", err)
	}
	return &UploadResult{StorageURI: s.s3URI(key), Size: int64(len(data))}, nil
}

func (s *Service) s3URI(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

// Open returns a local file path for a previously written artefact, plus a
// cleanup func, used by the job runner to hand the path to processors. For the S3 backend, the
// object is first materialized to a temp file since the ingestion
// processors (excelize, ledongthuc/pdf) read from a path, not a stream.
func (s *Service) Open(storageURI string) (string, func(), error) {
	if s.s3Client == nil {
		return storageURI[len("file://"):], func() {}, nil
	}
	return s.downloadToTemp(storageURI)
}

func (s *Service) downloadToTemp(storageURI string) (string, func(), error) {
	key := storageURI
	if len(storageURI) > 5 && storageURI[:5] == "s3://" {
		key = storageURI[5+len(s.bucket)+1:]
	}
	out, err := s.s3Client.GetObject(&s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return "", nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer out.Body.Close()

	tmp, err := os.CreateTemp("", "pricebot-artefact-*")
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, err
	}
	tmp.Close()
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

// Delete removes a previously written artefact.
func (s *Service) Delete(storageURI string) error {
	if s.s3Client == nil {
		return os.Remove(storageURI[len("file://"):])
	}
	key := storageURI[5+len(s.bucket)+1:]
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	return err
}
