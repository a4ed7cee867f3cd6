package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"pronet/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "pronet-api"
	tokenAudience = "pronet-client"
	tokenTTL      = 7 * 24 * time.Hour

	wsTicketTTL      = 30 * time.Second
	resetTokenTTL    = 15 * time.Minute
	blacklistPrefix  = "jwt:blacklist:"
	wsTicketPrefix   = "wsticket:"
	resetTokenPrefix = "pwreset:"
)

// AuthRequired authenticates requests via a Bearer JWT, or via a single-use
// websocket ticket passed as a query parameter (browsers cannot set headers
// on websocket upgrades).
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			if ticket := c.Query("ticket"); ticket != "" {
				userID, err := s.consumeWSTicket(c.Context(), ticket)
				if err != nil {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Invalid or expired ticket"))
				}
				c.Locals("userID", userID)
				return c.Next()
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		jti, _ := claims["jti"].(string)
		if jti != "" && s.isTokenBlacklisted(c.Context(), jti) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals("userID", uint(userID))
		c.Locals("jti", jti)
		if exp, expOk := claims["exp"].(float64); expOk {
			c.Locals("exp", int64(exp))
		}

		return c.Next()
	}
}

// generateToken creates a signed JWT for the given user ID.
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(tokenTTL).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// blacklistToken marks a jti as revoked until the token's own expiry. Without
// Redis revocation degrades to expiry-only.
func (s *Server) blacklistToken(ctx context.Context, jti string, exp int64) {
	if s.redis == nil || jti == "" {
		return
	}
	ttl := time.Until(time.Unix(exp, 0))
	if ttl <= 0 {
		return
	}
	if err := s.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		log.Printf("blacklist token error: %v", err)
	}
}

func (s *Server) isTokenBlacklisted(ctx context.Context, jti string) bool {
	if s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, blacklistPrefix+jti).Result()
	return err == nil && n > 0
}

// issueWSTicket stores a single-use websocket ticket mapped to the user.
func (s *Server) issueWSTicket(ctx context.Context, userID uint) (string, error) {
	if s.redis == nil {
		return "", models.NewInternalError(fmt.Errorf("ticket store unavailable"))
	}
	ticket := uuid.New().String()
	if err := s.redis.Set(ctx, wsTicketPrefix+ticket,
		strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err(); err != nil {
		return "", models.NewInternalError(err)
	}
	return ticket, nil
}

// consumeWSTicket redeems a ticket exactly once.
func (s *Server) consumeWSTicket(ctx context.Context, ticket string) (uint, error) {
	if s.redis == nil {
		return 0, fmt.Errorf("ticket store unavailable")
	}
	val, err := s.redis.GetDel(ctx, wsTicketPrefix+ticket).Result()
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(userID), nil
}
