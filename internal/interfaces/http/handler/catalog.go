package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/product"
	"github.com/marketsync/backend/internal/interfaces/http/dto"
)

// ReferenceReplacer swaps the stored reference catalog for a fresh feed.
type ReferenceReplacer interface {
	Replace(ctx context.Context, entries []catalog.ReferenceEntry) error
}

// CatalogHandler handles reference catalog and product properties ingestion
type CatalogHandler struct {
	BaseHandler
	store      string
	reference  ReferenceReplacer
	properties product.Repository
	logger     *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(store string, reference ReferenceReplacer, properties product.Repository, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{
		store:      store,
		reference:  reference,
		properties: properties,
		logger:     logger,
	}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/catalog")
	{
		grp.PUT("/reference", h.ReplaceReference)
		grp.POST("/properties", h.UpsertProperties)
	}
}

// ReferenceEntryRequest is one reference catalog row
type ReferenceEntryRequest struct {
	Vendor     string `json:"vendor" binding:"required"`
	Model      string `json:"model" binding:"required"`
	MemorySize string `json:"memory_size"`
	RAMSize    string `json:"ram_size"`
	Color      string `json:"color" binding:"required"`
}

// ReplaceReferenceRequest is the full reference feed
type ReplaceReferenceRequest struct {
	Entries []ReferenceEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// ReplaceReference swaps the whole reference catalog for the posted feed.
// The feed is replaced atomically; a failed upload leaves the old catalog
// in place.
func (h *CatalogHandler) ReplaceReference(c *gin.Context) {
	var req ReplaceReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeValidation), dto.ErrCodeValidation, err.Error())
		return
	}

	entries := make([]catalog.ReferenceEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, catalog.ReferenceEntry{
			Vendor:     e.Vendor,
			Model:      e.Model,
			MemorySize: e.MemorySize,
			RAMSize:    e.RAMSize,
			Color:      e.Color,
		})
	}

	if err := h.reference.Replace(c.Request.Context(), entries); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.logger.Info("reference catalog replaced", zap.Int("entries", len(entries)))
	h.Success(c, gin.H{"entries": len(entries)})
}

// PropertiesRequest is one declared product properties row
type PropertiesRequest struct {
	Article    string `json:"article" binding:"required"`
	Brand      string `json:"brand" binding:"required"`
	Category   string `json:"category" binding:"required"`
	MemorySize string `json:"memory_size"`
	RAMSize    string `json:"ram_size"`
}

// UpsertPropertiesRequest is a batch of properties rows
type UpsertPropertiesRequest struct {
	Items []PropertiesRequest `json:"items" binding:"required,min=1,dive"`
}

// UpsertProperties upserts declared properties for the handler's store
func (h *CatalogHandler) UpsertProperties(c *gin.Context) {
	var req UpsertPropertiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeValidation), dto.ErrCodeValidation, err.Error())
		return
	}

	rows := make([]product.Properties, 0, len(req.Items))
	for _, item := range req.Items {
		p, err := product.New(h.store, item.Article, item.Brand, item.Category)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		p.SetSizes(item.MemorySize, item.RAMSize)
		rows = append(rows, *p)
	}

	if err := h.properties.SaveBatch(c.Request.Context(), rows); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.logger.Info("product properties upserted", zap.Int("items", len(rows)))
	h.Success(c, gin.H{"items": len(rows)})
}
