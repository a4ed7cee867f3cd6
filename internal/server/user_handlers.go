package server

import (
	"pronet/internal/models"
	"pronet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id — the full profile aggregate:
// user, skills, projects, job history and rating summary.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	profile, err := s.users.GetProfile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetMe handles GET /api/users/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	profile, err := s.users.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMe handles PUT /api/users/me
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req struct {
		FullName string `json:"full_name"`
		Headline string `json:"headline"`
		Bio      string `json:"bio"`
		Location string `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	user, err := s.users.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   userID,
		FullName: req.FullName,
		Headline: req.Headline,
		Bio:      req.Bio,
		Location: req.Location,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), userID, EventProfileUpdated, user)

	return c.JSON(user)
}

// SearchUsers handles GET /api/users?q=
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	limit, offset := pagination(c, 20)
	users, err := s.users.SearchUsers(c.UserContext(), c.Query("q"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	limit, offset := pagination(c, service.FeedPageSize)
	posts, err := s.posts.ListUserPosts(c.UserContext(), id, service.ListPostsInput{
		Limit:         limit,
		Offset:        offset,
		CurrentUserID: currentUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}
