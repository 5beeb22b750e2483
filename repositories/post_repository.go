package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/inkpost/inkpost/models"
)

// PostFields carries the author-editable part of a post.
type PostFields struct {
	Title   string
	Summary string
	Content string
	Cover   string
}

// PostRepository persists posts. Posts are created and edited, never deleted.
type PostRepository interface {
	Create(ctx context.Context, authorID uint, fields PostFields) (*models.Post, error)
	// FindByID loads a post with its author resolved.
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	// Update applies last-writer-wins field changes to an existing post.
	Update(ctx context.Context, id uint, fields PostFields) (*models.Post, error)
	// List returns at most limit posts, newest first, authors resolved.
	List(ctx context.Context, limit int) ([]models.Post, error)
	// ListByAuthor pages through one author's posts, newest first.
	ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, int64, error)
}

type gormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a MySQL backed PostRepository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &gormPostRepository{db: db}
}

func (r *gormPostRepository) Create(ctx context.Context, authorID uint, fields PostFields) (*models.Post, error) {
	post := models.Post{
		UserID:  authorID,
		Title:   fields.Title,
		Summary: fields.Summary,
		Content: fields.Content,
		Cover:   fields.Cover,
	}
	if err := r.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, storeErr("create post", err)
	}
	// Reload with the author attached so responses can project it.
	return r.FindByID(ctx, post.ID)
}

func (r *gormPostRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr("find post", err)
	}
	return &post, nil
}

func (r *gormPostRepository) Update(ctx context.Context, id uint, fields PostFields) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr("update post", err)
	}

	post.Title = fields.Title
	post.Summary = fields.Summary
	post.Content = fields.Content
	post.Cover = fields.Cover
	if err := r.db.WithContext(ctx).Save(&post).Error; err != nil {
		return nil, storeErr("update post", err)
	}
	return r.FindByID(ctx, id)
}

func (r *gormPostRepository) List(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	return posts, nil
}

func (r *gormPostRepository) ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", authorID)

	var total int64
	if err := q.Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, storeErr("count posts by author", err)
	}

	var posts []models.Post
	err := q.Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, storeErr("list posts by author", err)
	}
	return posts, total, nil
}
