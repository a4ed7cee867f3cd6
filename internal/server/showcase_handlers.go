package server

import (
	"strings"
	"time"

	"pronet/internal/models"
	"pronet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateProject handles POST /api/projects
func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Link        string `json:"link"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	project, err := s.showcase.CreateProject(c.UserContext(), service.CreateProjectInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), userID, EventProjectCreated, project)

	return c.Status(fiber.StatusCreated).JSON(project)
}

// UpdateProject handles PUT /api/projects/:id
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Link        string `json:"link"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	project, err := s.showcase.UpdateProject(c.UserContext(), service.UpdateProjectInput{
		UserID:      userID,
		ProjectID:   id,
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), userID, EventProjectUpdated, project)

	return c.JSON(project)
}

// DeleteProject handles DELETE /api/projects/:id
func (s *Server) DeleteProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	userID := currentUserID(c)
	if err := s.showcase.DeleteProject(c.UserContext(), id, userID); err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), userID, EventProjectDeleted, fiber.Map{"project_id": id})

	return c.JSON(fiber.Map{"message": "Project deleted"})
}

// GetUserProjects handles GET /api/users/:id/projects
func (s *Server) GetUserProjects(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	projects, err := s.showcase.ListProjects(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// GetSkills handles GET /api/skills?q= — the full catalogue, filtered by an
// optional case-insensitive prefix for typeahead.
func (s *Server) GetSkills(c *fiber.Ctx) error {
	skills, err := s.showcase.ListSkills(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "" {
		return c.JSON(skills)
	}

	filtered := make([]models.Skill, 0, len(skills))
	for _, skill := range skills {
		if strings.HasPrefix(strings.ToLower(skill.Name), q) {
			filtered = append(filtered, skill)
		}
	}
	return c.JSON(filtered)
}

// GetUserSkills handles GET /api/users/:id/skills
func (s *Server) GetUserSkills(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	skills, err := s.showcase.ListUserSkills(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(skills)
}

// AddSkill handles POST /api/users/me/skills
func (s *Server) AddSkill(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	skill, err := s.showcase.AddSkill(c.UserContext(), userID, req.Name)
	if err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), userID, EventSkillAdded, skill)

	return c.Status(fiber.StatusCreated).JSON(skill)
}

// RemoveSkill handles DELETE /api/users/me/skills/:skillId
func (s *Server) RemoveSkill(c *fiber.Ctx) error {
	skillID, err := parseID(c, "skillId")
	if err != nil {
		return respondError(c, err)
	}

	userID := currentUserID(c)
	if err := s.showcase.RemoveSkill(c.UserContext(), userID, skillID); err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), userID, EventSkillRemoved, fiber.Map{"skill_id": skillID})

	return c.JSON(fiber.Map{"message": "Skill removed"})
}

// CreateJob handles POST /api/jobs
func (s *Server) CreateJob(c *fiber.Ctx) error {
	var req struct {
		ClientID    uint       `json:"client_id"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		CompletedAt *time.Time `json:"completed_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	in := service.CreateJobInput{
		UserID:      userID,
		ClientID:    req.ClientID,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.CompletedAt != nil {
		in.CompletedAt = *req.CompletedAt
	}

	job, err := s.showcase.CreateJob(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), userID, EventJobAdded, job)

	return c.Status(fiber.StatusCreated).JSON(job)
}

// AddFeedback handles POST /api/jobs/:id/feedback — client only, once per job.
func (s *Server) AddFeedback(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	feedback, err := s.showcase.AddFeedback(c.UserContext(), service.AddFeedbackInput{
		UserID:  currentUserID(c),
		JobID:   id,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(feedback)
}

// GetUserJobs handles GET /api/users/:id/jobs — job history with feedback and
// the rating summary.
func (s *Server) GetUserJobs(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	jobs, err := s.showcase.ListJobs(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	avg, count, err := s.showcase.RatingSummary(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"jobs":           jobs,
		"average_rating": avg,
		"rating_count":   count,
	})
}
