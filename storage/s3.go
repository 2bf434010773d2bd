package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"shreddit/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// uploaderMetadataKey taggt jedes hochgeladene Objekt mit seinem Besitzer.
const uploaderMetadataKey = "uploaded-by"

// NewS3Client erstellt einen S3-Client für MinIO bzw. jedes andere
// S3-kompatible Object-Storage.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.MinioEndpoint,
				SigningRegion:     cfg.MinioRegion,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.MinioRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.MinioAccessKey, cfg.MinioSecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// MinIO erwartet Path-Style-Adressierung
		o.UsePathStyle = true
	}), nil
}

// S3Store ist der Blob-Store-Adapter der Pipeline.
type S3Store struct {
	Client *s3.Client
}

// NewS3Store erstellt einen Adapter über einem bestehenden Client.
func NewS3Store(client *s3.Client) *S3Store {
	return &S3Store{Client: client}
}

// Upload legt das Objekt ab und taggt es mit dem Besitzer, falls gesetzt.
func (s *S3Store) Upload(ctx context.Context, bucket, key string, data []byte, contentType, username string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if username != "" {
		input.Metadata = map[string]string{uploaderMetadataKey: username}
	}
	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Download lädt das Objekt vollständig in den Speicher.
func (s *S3Store) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("object %s/%s not found: %w", bucket, key, err)
		}
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Uploader liest den Besitzer aus den Objekt-Metadaten. Ein leerer
// Rückgabewert bedeutet Legacy-Objekt ohne Tag; der Zugriff bleibt
// aus Kompatibilitätsgründen erlaubt.
func (s *S3Store) Uploader(ctx context.Context, bucket, key string) (string, error) {
	out, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}
	return out.Metadata[uploaderMetadataKey], nil
}
