package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkpost/inkpost/config"
	"github.com/inkpost/inkpost/middleware"
	"github.com/inkpost/inkpost/models"
	"github.com/inkpost/inkpost/repositories"
	"github.com/inkpost/inkpost/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	posts repositories.PostRepository
}

// NewPostController creates a new PostController instance.
func NewPostController(posts repositories.PostRepository) *PostController {
	return &PostController{posts: posts}
}

type postRequest struct {
	Title   string `json:"title" binding:"required,min=1"`
	Summary string `json:"summary"`
	Content string `json:"content" binding:"required"`
	Cover   string `json:"cover"`
}

// fields sanitizes the payload into store fields. An empty title after
// sanitization is rejected by the callers.
func (r postRequest) fields() repositories.PostFields {
	return repositories.PostFields{
		Title:   utils.Sanitize(strings.TrimSpace(r.Title)),
		Summary: utils.Sanitize(strings.TrimSpace(r.Summary)),
		Content: utils.Sanitize(r.Content),
		Cover:   strings.TrimSpace(r.Cover),
	}
}

// CreatePost allows authenticated users to create new posts. The author is
// always the authenticated identity.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	fields := req.fields()
	if fields.Title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), userID, fields)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":posts:")

	utils.Success(ctx, gin.H{"post": postResponse(*post)})
}

// UpdatePost allows the author to update their post. Ownership is checked
// before the payload so a non-author is always rejected with 403, even on
// a malformed body.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	postID, err := repositories.ParseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40026, "invalid post id")
		return
	}

	post, err := p.posts.FindByID(ctx.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own posts")
		return
	}

	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	fields := req.fields()
	if fields.Title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40025, "title cannot be empty")
		return
	}

	updated, err := p.posts.Update(ctx.Request.Context(), postID, fields)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(postID)))
	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(post.UserID)) + ":posts:")

	utils.Success(ctx, gin.H{"post": postResponse(*updated)})
}

// GetPost returns a single post with its author resolved.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, err := repositories.ParseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid post id")
		return
	}

	cacheKey := "cache:post:detail:" + strconv.Itoa(int(postID))
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	post, err := p.posts.FindByID(ctx.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	payload := gin.H{"post": postResponse(*post)}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// ListPosts returns the newest posts, at most the requested limit.
func (p *PostController) ListPosts(ctx *gin.Context) {
	limit := parseLimit(ctx.Query("limit"))

	cacheKey := fmt.Sprintf("cache:posts:list:limit=%d", limit)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, err := p.posts.List(ctx.Request.Context(), limit)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	payload := gin.H{"items": postResponses(posts)}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// ListUserPosts returns paginated posts created by a specific user.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	authorID, err := repositories.ParseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:user:%d:posts:page=%d:size=%d", authorID, page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, total, err := p.posts.ListByAuthor(ctx.Request.Context(), authorID, (page-1)*pageSize, pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to list user posts")
		return
	}

	payload := gin.H{
		"items": postResponses(posts),
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// postResponse projects a post with its author reduced to {id, username}.
func postResponse(post models.Post) gin.H {
	return gin.H{
		"id":         post.ID,
		"title":      post.Title,
		"summary":    post.Summary,
		"content":    post.Content,
		"cover":      post.Cover,
		"created_at": post.CreatedAt,
		"updated_at": post.UpdatedAt,
		"author": gin.H{
			"id":       post.UserID,
			"username": post.User.Username,
		},
	}
}

func postResponses(posts []models.Post) []gin.H {
	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, postResponse(p))
	}
	return out
}

func parseLimit(raw string) int {
	cfg := config.Get()
	limit := cfg.ListDefaultLimit
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		limit = n
	}
	if limit > cfg.ListMaxLimit {
		limit = cfg.ListMaxLimit
	}
	return limit
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
