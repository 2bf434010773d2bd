package services

import (
	"context"
	"errors"
	"fmt"

	"shreddit/models"

	"gorm.io/gorm"
)

// ErrDocumentNotFound signalisiert eine referentielle Inkonsistenz:
// eine Queue-Message verweist auf ein Dokument, das der Primärspeicher
// nicht kennt.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore ist der Zugriff der Pipeline auf den Primärspeicher.
type DocumentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
	FindAll(ctx context.Context) ([]models.Document, error)
}

// BlobStore ist der Zugriff der Pipeline auf das Object-Storage.
type BlobStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType, username string) error
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Uploader(ctx context.Context, bucket, key string) (string, error)
}

// GormDocumentStore implementiert DocumentStore über gorm/Postgres.
type GormDocumentStore struct {
	DB *gorm.DB
}

// NewGormDocumentStore erstellt den Store über einer bestehenden Verbindung.
func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{DB: db}
}

func (s *GormDocumentStore) FindByID(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	if err := s.DB.WithContext(ctx).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrDocumentNotFound, id)
		}
		return nil, err
	}
	return &doc, nil
}

func (s *GormDocumentStore) Save(ctx context.Context, doc *models.Document) error {
	return s.DB.WithContext(ctx).Save(doc).Error
}

func (s *GormDocumentStore) FindAll(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	if err := s.DB.WithContext(ctx).Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}
