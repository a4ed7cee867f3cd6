package server

import (
	"errors"
	"strings"

	"pronet/internal/middleware"
	"pronet/internal/models"
	"pronet/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Headline string `json:"headline"`
		Location string `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidateFullName(req.FullName); err != nil {
		return respondError(c, err)
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return respondError(c, err)
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return respondError(c, err)
	}

	existing, err := s.userRepo.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
			return respondError(c, err)
		}
	}
	if existing != nil {
		return respondError(c, models.NewConflictError("An account with this email already exists"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	user := &models.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    req.Email,
		Password: string(hashedPassword),
		Headline: strings.TrimSpace(req.Headline),
		Location: strings.TrimSpace(req.Location),
	}
	if err := s.userRepo.Create(c.UserContext(), user); err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, models.NewUnauthorizedError("Invalid credentials"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return respondError(c, models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Refresh handles POST /api/auth/refresh: issues a new token and revokes the
// presented one so each jti is used for at most one refresh.
func (s *Server) Refresh(c *fiber.Ctx) error {
	userID := currentUserID(c)

	token, err := s.generateToken(userID)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	if jti, ok := c.Locals("jti").(string); ok {
		if exp, expOk := c.Locals("exp").(int64); expOk {
			s.blacklistToken(c.UserContext(), jti, exp)
		}
	}

	return c.JSON(fiber.Map{"token": token})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	if jti, ok := c.Locals("jti").(string); ok {
		if exp, expOk := c.Locals("exp").(int64); expOk {
			s.blacklistToken(c.UserContext(), jti, exp)
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Session handles GET /api/auth/session
func (s *Server) Session(c *fiber.Ctx) error {
	user, err := s.users.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// ForgotPassword handles POST /api/auth/forgot-password. The response is the
// same whether or not the email exists.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	response := fiber.Map{"message": "If that email is registered, a reset link has been sent"}

	if s.redis == nil {
		return c.JSON(response)
	}

	user, err := s.userRepo.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		return c.JSON(response)
	}

	token := uuid.New().String()
	if err := s.redis.Set(c.UserContext(), resetTokenPrefix+token, user.ID, resetTokenTTL).Err(); err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	// TODO: deliver via email once an outbound mail provider is wired up.
	middleware.Logger.InfoContext(c.UserContext(), "password reset token issued", "user_id", user.ID)

	return c.JSON(response)
}

// ResetPassword handles POST /api/auth/reset-password
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return respondError(c, err)
	}
	if s.redis == nil {
		return respondError(c, models.NewInternalError(errors.New("reset token store unavailable")))
	}

	val, err := s.redis.GetDel(c.UserContext(), resetTokenPrefix+req.Token).Uint64()
	if err != nil {
		return respondError(c, models.NewUnauthorizedError("Invalid or expired reset token"))
	}

	user, err := s.userRepo.GetByID(c.UserContext(), uint(val))
	if err != nil {
		return respondError(c, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	user.Password = string(hashedPassword)
	if err := s.userRepo.Update(c.UserContext(), user); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// IssueWSTicket handles POST /api/ws/ticket
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket, err := s.issueWSTicket(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}
