package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/dmitrijs2005/productkeeper/internal/common"
	"github.com/dmitrijs2005/productkeeper/internal/dbx"
	"github.com/dmitrijs2005/productkeeper/internal/filex"
	"github.com/dmitrijs2005/productkeeper/internal/logging"
	"github.com/dmitrijs2005/productkeeper/internal/server/auth"
	"github.com/dmitrijs2005/productkeeper/internal/server/config"
	"github.com/dmitrijs2005/productkeeper/internal/server/models"
	"github.com/dmitrijs2005/productkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/productkeeper/internal/server/storage"
	"github.com/dmitrijs2005/productkeeper/internal/server/validation"
	"github.com/google/uuid"
)

const imageKeyPrefix = "products/"

// ProductService manages products and their images.
type ProductService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	storage      storage.ImageStorage
	validator    *validation.Validator
	logger       logging.Logger
	maxImageSize int64
}

func NewProductService(db *sql.DB, m repomanager.RepositoryManager, st storage.ImageStorage, cfg *config.Config, l logging.Logger) *ProductService {
	return &ProductService{
		db:           db,
		repomanager:  m,
		storage:      st,
		validator:    validation.New(nil),
		logger:       l.With("module", "products"),
		maxImageSize: cfg.MaxImageSize,
	}
}

// ImageKey builds the storage key for an uploaded file name.
func ImageKey(filename string) (string, error) {
	prefix, err := common.MakeRandHexString(8)
	if err != nil {
		return "", err
	}
	name := filex.SanitizeFileName(filename)
	if name == "" {
		name = "image"
	}
	return imageKeyPrefix + prefix + "_" + name, nil
}

// Create validates req and image, stores the image and inserts the product
// owned by id. If the insert fails the stored image is removed again.
func (s *ProductService) Create(ctx context.Context, id auth.Identity, req models.CreateProductRequest, image *multipart.FileHeader) (models.PublicProduct, error) {
	errs := &validation.Errors{}
	if err := s.validator.Struct(ctx, req); err != nil {
		var verrs *validation.Errors
		if !errors.As(err, &verrs) {
			return models.PublicProduct{}, err
		}
		errs = verrs
	}
	contentType := validation.Image(errs, "image", image, s.maxImageSize)
	if err := errs.Err(); err != nil {
		return models.PublicProduct{}, err
	}

	key, err := ImageKey(image.Filename)
	if err != nil {
		return models.PublicProduct{}, fmt.Errorf("error generating image key: %w", err)
	}

	f, err := image.Open()
	if err != nil {
		return models.PublicProduct{}, fmt.Errorf("error opening image: %w", err)
	}
	defer f.Close()

	if err := s.storage.Save(ctx, key, contentType, f); err != nil {
		return models.PublicProduct{}, fmt.Errorf("error storing image: %w", err)
	}

	p, err := s.repomanager.Products(s.db).Create(ctx, &models.Product{
		Name:        req.Name,
		UserID:      id.UserID,
		Description: req.Description,
		Price:       req.Price,
		Image:       key,
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Error(ctx, "orphaned image cleanup failed", "image", key, "error", delErr)
		}
		return models.PublicProduct{}, fmt.Errorf("error creating product: %w", err)
	}

	return p.Public(s.imageURL(ctx, p.Image)), nil
}

// List returns every product ordered by creation time.
func (s *ProductService) List(ctx context.Context) ([]models.PublicProduct, error) {
	items, err := s.repomanager.Products(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}

	result := make([]models.PublicProduct, 0, len(items))
	for _, p := range items {
		result = append(result, p.Public(s.imageURL(ctx, p.Image)))
	}
	return result, nil
}

// Delete removes productID inside one transaction and returns the removed
// product. A missing or malformed id yields common.ErrorNotFound. The image
// object is removed after commit; failures there are only logged.
func (s *ProductService) Delete(ctx context.Context, id auth.Identity, productID string) (models.PublicProduct, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return models.PublicProduct{}, common.ErrorNotFound
	}

	var deleted *models.Product
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Products(tx)
		p, err := repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, productID); err != nil {
			return err
		}
		deleted = p
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.PublicProduct{}, common.ErrorNotFound
		}
		return models.PublicProduct{}, fmt.Errorf("error deleting product: %w", err)
	}

	if err := s.storage.Delete(ctx, deleted.Image); err != nil {
		s.logger.Warn(ctx, "image delete failed", "product_id", deleted.ID, "image", deleted.Image, "error", err)
	}

	s.logger.Debug(ctx, "product deleted", "product_id", deleted.ID, "user_id", id.UserID)

	return deleted.Public(""), nil
}

// Update is routed but not supported.
func (s *ProductService) Update(ctx context.Context, id auth.Identity, productID string) error {
	return common.ErrorNotImplemented
}

func (s *ProductService) imageURL(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	url, err := s.storage.URL(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "image url failed", "image", key, "error", err)
		return ""
	}
	return url
}
