// Package service holds the business logic between HTTP handlers and the
// repositories.
package service

import (
	"context"
	"strings"

	"pronet/internal/models"
	"pronet/internal/repository"
)

// FeedPageSize is the default number of posts per feed page.
const FeedPageSize = 20

const maxPostContentLen = 10000
const maxCommentLen = 2000

// PostService implements feed business logic.
type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

type CreatePostInput struct {
	UserID   uint
	Content  string
	MediaURL string
}

type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Content  string
	MediaURL string
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
}

type AddCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

// ToggleLikeResult carries the post-mutation state clients patch into their
// local copy of the post.
type ToggleLikeResult struct {
	PostID     uint `json:"post_id"`
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// NewPostService creates a PostService.
func NewPostService(postRepo repository.PostRepository, commentRepo repository.CommentRepository) *PostService {
	return &PostService{postRepo: postRepo, commentRepo: commentRepo}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && in.MediaURL == "" {
		return nil, models.NewValidationError("Post content is required")
	}
	if len(content) > maxPostContentLen {
		return nil, models.NewValidationError("Post content too long (max 10000 characters)")
	}

	post := &models.Post{
		UserID:   in.UserID,
		Content:  content,
		MediaURL: in.MediaURL,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, currentUserID)
}

// ListFeed returns the newest posts first with counts and the viewer's like
// state resolved in the listing query.
func (s *PostService) ListFeed(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit := clampLimit(in.Limit, FeedPageSize, 100)
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	return s.postRepo.List(ctx, limit, offset, in.CurrentUserID)
}

func (s *PostService) ListUserPosts(ctx context.Context, userID uint, in ListPostsInput) ([]*models.Post, error) {
	limit := clampLimit(in.Limit, FeedPageSize, 100)
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	return s.postRepo.GetByUserID(ctx, userID, limit, offset, in.CurrentUserID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	content := strings.TrimSpace(in.Content)
	if content == "" && in.MediaURL == "" {
		return nil, models.NewValidationError("Post content is required")
	}
	if len(content) > maxPostContentLen {
		return nil, models.NewValidationError("Post content too long (max 10000 characters)")
	}

	post.Content = content
	post.MediaURL = in.MediaURL
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, in.PostID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, postID)
}

// ToggleLike flips the viewer's like on a post and returns the fresh count so
// clients can reconcile optimistic updates.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*ToggleLikeResult, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, userID); err != nil {
		return nil, err
	}

	liked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if liked {
		err = s.postRepo.Unlike(ctx, userID, postID)
	} else {
		err = s.postRepo.Like(ctx, userID, postID)
	}
	if err != nil {
		return nil, err
	}

	likes, _, nowLiked, err := s.postRepo.Counts(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &ToggleLikeResult{PostID: postID, Liked: nowLiked, LikesCount: likes}, nil
}

func (s *PostService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.UserID,
		Content: content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *PostService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	limit = clampLimit(limit, 50, 200)
	if offset < 0 {
		offset = 0
	}
	return s.commentRepo.GetByPostID(ctx, postID, limit, offset)
}

func (s *PostService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *PostService) DeleteComment(ctx context.Context, commentID, userID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return nil, err
	}
	return comment, nil
}

// PostCounts exposes fresh counts for event payloads.
func (s *PostService) PostCounts(ctx context.Context, postID, currentUserID uint) (likes, comments int, liked bool, err error) {
	return s.postRepo.Counts(ctx, postID, currentUserID)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
