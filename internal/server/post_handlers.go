package server

import (
	"pronet/internal/models"
	"pronet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/posts — newest-first, counts and liked flag
// resolved in the listing query.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	limit, offset := pagination(c, service.FeedPageSize)
	posts, err := s.posts.ListFeed(c.UserContext(), service.ListPostsInput{
		Limit:         limit,
		Offset:        offset,
		CurrentUserID: currentUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.posts.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content  string `json:"content"`
		MediaURL string `json:"media_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:   currentUserID(c),
		Content:  req.Content,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), EventPostCreated, post)

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Content  string `json:"content"`
		MediaURL string `json:"media_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:   currentUserID(c),
		PostID:   id,
		Content:  req.Content,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), EventPostUpdated, post)

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.posts.DeletePost(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), EventPostDeleted, fiber.Map{"post_id": id})

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// ToggleLike handles POST /api/posts/:id/like — insert if absent, delete if
// present. The response carries the server-derived state so a double toggle
// lands clients back where they started.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	result, err := s.posts.ToggleLike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), EventPostReaction, fiber.Map{
		"post_id":     result.PostID,
		"likes_count": result.LikesCount,
	})

	return c.JSON(result)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	limit, offset := pagination(c, 50)
	comments, err := s.posts.ListComments(c.UserContext(), id, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.posts.AddComment(c.UserContext(), service.AddCommentInput{
		UserID:  currentUserID(c),
		PostID:  id,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}

	_, commentsCount, _, cerr := s.posts.PostCounts(c.UserContext(), id, currentUserID(c))
	payload := fiber.Map{"post_id": id, "comment": comment}
	if cerr == nil {
		payload["comments_count"] = commentsCount
	}
	s.publishBroadcastEvent(c.UserContext(), EventCommentCreated, payload)

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/posts/:id/comments/:commentId
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.posts.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), EventCommentUpdated, comment)

	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return respondError(c, err)
	}

	comment, err := s.posts.DeleteComment(c.UserContext(), commentID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), EventCommentDeleted, fiber.Map{
		"post_id":    comment.PostID,
		"comment_id": comment.ID,
	})

	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
