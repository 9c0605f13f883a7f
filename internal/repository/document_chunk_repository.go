package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"gopherai-docchat/internal/model"
)

type DocumentChunkRepository struct {
	db *gorm.DB
}

func NewDocumentChunkRepository(db *gorm.DB) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: db}
}

func (r *DocumentChunkRepository) CreateBatch(ctx context.Context, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&chunks, 100).Error; err != nil {
		return fmt.Errorf("create document chunks batch failed: %w", err)
	}
	return nil
}

func (r *DocumentChunkRepository) ListByCollection(ctx context.Context, collection string) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	if err := r.db.WithContext(ctx).Where("collection_name = ?", collection).Order("chunk_index ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list document chunks failed: %w", err)
	}
	return chunks, nil
}

func (r *DocumentChunkRepository) CountByCollection(ctx context.Context, collection string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).Where("collection_name = ?", collection).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count document chunks failed: %w", err)
	}
	return count, nil
}

func (r *DocumentChunkRepository) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).Distinct().Pluck("collection_name", &names).Error; err != nil {
		return nil, fmt.Errorf("list chunk collections failed: %w", err)
	}
	return names, nil
}

func (r *DocumentChunkRepository) DeleteByCollection(ctx context.Context, collection string) (int64, error) {
	res := r.db.WithContext(ctx).Where("collection_name = ?", collection).Delete(&model.DocumentChunk{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete document chunks failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
