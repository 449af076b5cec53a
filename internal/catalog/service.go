package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/pkg/cache"
	"github.com/calebmonroe/printhaus-backend/pkg/config"
	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
)

type itemFinder interface {
	FindItemByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
}

// ItemDTO is the cached catalog item projection served to buyers.
type ItemDTO struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	BaseRate       string    `json:"base_rate"`
	AvailableStock int       `json:"available_stock"`
}

// ItemTag returns the cache tag under which an item's entries are indexed.
// Invalidating this tag drops every cached projection of the item.
func ItemTag(itemID uuid.UUID) string {
	return "catalog_item:" + itemID.String()
}

func itemKey(itemID uuid.UUID) string {
	return "catalog_item:" + itemID.String()
}

// Service serves catalog reads through the tag-indexed cache.
type Service interface {
	GetItem(ctx context.Context, itemID uuid.UUID) (*ItemDTO, bool, error)
}

type service struct {
	repo  itemFinder
	cache *cache.Cache
	cfg   config.CacheConfig
}

// NewService builds a cached catalog read service.
func NewService(repo itemFinder, c *cache.Cache, cfg config.CacheConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache required")
	}
	return &service{repo: repo, cache: c, cfg: cfg}, nil
}

// GetItem returns the item projection and whether it was served from cache.
func (s *service) GetItem(ctx context.Context, itemID uuid.UUID) (*ItemDTO, bool, error) {
	if itemID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	payload, hit, err := s.cache.GetOrSet(ctx, itemKey(itemID), func(ctx context.Context) (string, error) {
		item, err := s.repo.FindItemByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
		}
		dto := ItemDTO{
			ID:             item.ID,
			Title:          item.Title,
			BaseRate:       item.BaseRate.String(),
			AvailableStock: item.AvailableStock,
		}
		raw, err := json.Marshal(dto)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode catalog item")
		}
		return string(raw), nil
	}, s.cfg.CatalogTTL, []string{ItemTag(itemID)})
	if err != nil {
		return nil, false, err
	}

	var dto ItemDTO
	if err := json.Unmarshal([]byte(payload), &dto); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cached catalog item")
	}
	return &dto, hit, nil
}
