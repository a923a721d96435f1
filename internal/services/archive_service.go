// internal/services/archive_service.go
package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pricepulse/pricepulse-backend/internal/config"
	"github.com/pricepulse/pricepulse-backend/internal/models"
)

// ArchiveService exports a product's price history as a CSV snapshot to
// S3, or to local disk when AWS is not configured.
type ArchiveService struct {
	s3Client *s3.S3
	config   *config.Config
	products *ProductService
}

type ArchiveResult struct {
	Key     string `json:"key"`
	Entries int    `json:"entries"`
	Size    int    `json:"size"`
}

// NewArchiveService never fails: without AWS credentials, or when the AWS
// session cannot be built, exports fall back to local disk.
func NewArchiveService(config *config.Config, products *ProductService) *ArchiveService {
	svc := &ArchiveService{config: config, products: products}
	if config.AWS.AccessKeyID == "" {
		return svc
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		logrus.WithError(err).Warn("AWS session unavailable, archive exports fall back to local disk")
		return svc
	}

	svc.s3Client = s3.New(sess)
	return svc
}

// ExportPriceHistory writes the full audit trail for one product, oldest
// entry first, and returns where it landed.
func (s *ArchiveService) ExportPriceHistory(productID uuid.UUID) (*ArchiveResult, error) {
	entries, err := s.products.GetPriceHistory(productID)
	if err != nil {
		return nil, err
	}

	data, err := encodeHistoryCSV(entries)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("price-history/%s/%s.csv",
		productID, time.Now().UTC().Format("20060102T150405Z"))

	if s.s3Client != nil {
		if err := s.uploadToS3(key, data); err != nil {
			return nil, err
		}
	} else {
		if err := s.writeLocal(key, data); err != nil {
			return nil, err
		}
	}

	return &ArchiveResult{Key: key, Entries: len(entries), Size: len(data)}, nil
}

func (s *ArchiveService) uploadToS3(key string, data []byte) error {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.ArchiveBucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("text/csv"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}
	return nil
}

func (s *ArchiveService) writeLocal(key string, data []byte) error {
	path := filepath.Join("exports", key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

func encodeHistoryCSV(entries []models.PriceHistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"timestamp", "action", "price", "total_purchases", "total_cashouts"}); err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			string(e.ActionType),
			strconv.FormatFloat(e.Price, 'f', 2, 64),
			strconv.FormatInt(e.TotalPurchases, 10),
			strconv.FormatInt(e.TotalCashouts, 10),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to encode archive: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}

	return buf.Bytes(), nil
}
