package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"FableStudio/config"
	"FableStudio/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

const assetPrefix = "assets/"

// InitMinio initializes the MinIO client and ensures the asset bucket exists.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO client initialized",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return nil
}

// GetMinioClient returns the initialized MinIO client, or nil.
func GetMinioClient() *minio.Client {
	return minioClient
}

func assetObjectName(assetID string) string {
	return assetPrefix + assetID
}

// PutAsset uploads the bytes of an audio asset under its asset ID.
func PutAsset(ctx context.Context, bucket, assetID string, r io.Reader, size int64, contentType string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := minioClient.PutObject(ctx, bucket, assetObjectName(assetID), r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload asset %s: %w", assetID, err)
	}
	return nil
}

// FetchAsset returns a readable stream of an asset's bytes plus its size.
// The caller must close the returned reader.
func FetchAsset(ctx context.Context, bucket, assetID string) (io.ReadCloser, int64, error) {
	if minioClient == nil {
		return nil, 0, fmt.Errorf("MinIO client not initialized")
	}

	object, err := minioClient.GetObject(ctx, bucket, assetObjectName(assetID), minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get asset %s: %w", assetID, err)
	}

	stat, err := object.Stat()
	if err != nil {
		object.Close()
		return nil, 0, fmt.Errorf("failed to stat asset %s: %w", assetID, err)
	}

	return object, stat.Size, nil
}
