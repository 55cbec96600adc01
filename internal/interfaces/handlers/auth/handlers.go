package auth

import (
	"context"

	authsvc "carbon-ledger/internal/application/auth"
	"carbon-ledger/internal/ledger"
	"carbon-ledger/internal/middleware"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const orgSessionsPrefix = "org_sessions:"

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Credentials authsvc.CredentialStore
	Ledger      *ledger.Ledger
	Rdb         *redis.Client
	Config      middleware.SessionConfig
}

// Login POST /api/v1/auth/login: verify the secret, start a session and track it under org_sessions:<identity>.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.Credentials == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if h.Rdb == nil {
		return response.Error(c, "Sessions are not available", fiber.StatusServiceUnavailable, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, authsvc.ErrIdentitySecretRequired.Error())
	}

	cred, err := h.Credentials.Verify(c.UserContext(), req)
	if err != nil {
		switch err {
		case authsvc.ErrIdentitySecretRequired:
			return response.BadRequest(c, err.Error())
		case authsvc.ErrInvalidIdentity, authsvc.ErrIncorrectSecret:
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			log.Error().Err(err).Msg("login failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	org := h.Ledger.Organization(ledger.Identity(cred.Identity))
	if !org.Registered {
		return response.Error(c, "Organization is not registered", fiber.StatusForbidden, nil)
	}

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionOrg(c, middleware.SessionOrg{Identity: cred.Identity, Name: org.Name})

	if err := h.Rdb.SAdd(context.Background(), orgSessionsPrefix+cred.Identity, sessionID).Err(); err != nil {
		log.Error().Err(err).Msg("login: track session")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = middleware.SignSessionID(h.Config.Secret, sessionID)
	c.Cookie(&cookie)

	return response.Success(c, "Login successful", fiber.Map{
		"org": fiber.Map{
			"identity": cred.Identity,
			"name":     org.Name,
		},
	}, nil)
}

// Me GET /api/v1/auth/me: the organization in the current session.
func (h *Handlers) Me(c *fiber.Ctx) error {
	org, err := authsvc.VerifySession(middleware.GetSessionOrg(c))
	if err != nil {
		log.Debug().Str("path", "/auth/me").
			Bool("session_id_present", middleware.GetSessionID(c) != "").
			Msg("auth/me: not authenticated")
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{"org": org}, nil)
}

// Logout DELETE /api/v1/auth/logout: drop the session from Redis and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	identity := middleware.GetIdentity(c)
	ctx := context.Background()

	if h.Rdb != nil && sessionID != "" {
		if identity != "" {
			_ = h.Rdb.SRem(ctx, orgSessionsPrefix+string(identity), sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}

	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}
