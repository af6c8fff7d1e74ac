package oss

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/strataops/strata-triage/model/config"
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// Service archives finished conversation transcripts to object storage.
type Service interface {
	// UploadTranscript stores a transcript and returns the object key.
	UploadTranscript(conversationID uint, content []byte) (string, error)
	// GetURL builds the public URL for an object key.
	GetURL(objectKey string) string
	Close() error
}

type aliyunOssService struct {
	client   *oss.Client
	config   config.Oss
	location *time.Location
}

func NewClient(cfg config.Oss, location *time.Location) (Service, error) {
	// The SDK wants a bare endpoint, without scheme.
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")

	client, err := oss.New(endpoint, cfg.AccessKeyId, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("create OSS client: %w", err)
	}

	return &aliyunOssService{
		client:   client,
		config:   cfg,
		location: location,
	}, nil
}

func (s *aliyunOssService) UploadTranscript(conversationID uint, content []byte) (string, error) {
	bucket, err := s.client.Bucket(s.config.Bucket)
	if err != nil {
		return "", fmt.Errorf("open OSS bucket: %w", err)
	}

	// Keyed by date and ticket so re-archiving the same conversation on the
	// same day overwrites instead of accumulating.
	objectKey := fmt.Sprintf("%stranscripts/%s/conv-%d.json",
		s.config.StoragePath,
		time.Now().In(s.location).Format("20060102"),
		conversationID,
	)

	if err := bucket.PutObject(objectKey, bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("upload transcript to OSS: %w", err)
	}

	return objectKey, nil
}

func (s *aliyunOssService) GetURL(objectKey string) string {
	if s.config.CdnDomain != "" {
		cdnURL, err := url.Parse(s.config.CdnDomain)
		if err == nil {
			cdnURL.Path = strings.TrimSuffix(cdnURL.Path, "/") + "/" + strings.TrimPrefix(objectKey, "/")
			return cdnURL.String()
		}
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.CdnDomain, "/"), strings.TrimPrefix(objectKey, "/"))
	}
	return fmt.Sprintf("https://%s.%s/%s", s.config.Bucket, s.config.Endpoint, objectKey)
}

func (s *aliyunOssService) Close() error {
	return nil
}
