package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed session cookie.
type SessionConfig struct {
	Secret            string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "ledger.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour

	sessionDataLocal = "session_data"
	sessionIDLocal   = "session_id"
)

// SessionOrg is the shape stored in session under "org".
type SessionOrg struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

// Session returns a Fiber middleware that loads the session from Redis before
// the handler and saves it afterwards. With a nil client every request is anonymous.
// When secret is set only cookies signed by SignSessionID are accepted.
func Session(rdb *redis.Client, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := parseSessionCookie(c.Cookies(SessionCookieName), secret)

		var data map[string]interface{}
		if sessionID != "" && rdb != nil {
			b, err := rdb.Get(c.UserContext(), SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, &data)
			} else if err != redis.Nil {
				log.Warn().Err(err).Msg("session load failed")
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals(sessionDataLocal, data)
		c.Locals(orgLocal, data["org"])
		c.Locals(sessionIDLocal, sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		if rdb == nil {
			return nil
		}
		if sid, _ := c.Locals(sessionIDLocal).(string); sid != "" {
			updated, _ := c.Locals(sessionDataLocal).(map[string]interface{})
			if len(updated) > 0 {
				b, _ := json.Marshal(updated)
				if err := rdb.Set(context.Background(), SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
					log.Warn().Err(err).Msg("session save failed")
				}
			}
		}
		return nil
	}
}

// SignSessionID returns the cookie value for id: "s:id.signature", or "s:id"
// when no secret is configured.
func SignSessionID(secret, id string) string {
	if secret == "" {
		return "s:" + id
	}
	return "s:" + id + "." + sessionSignature(secret, id)
}

func sessionSignature(secret, id string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

// parseSessionCookie returns the session id in v, or "" when v is not a valid
// cookie. Without a secret, "s:id" and a bare id are accepted unsigned.
func parseSessionCookie(v, secret string) string {
	if secret == "" {
		if strings.HasPrefix(v, "s:") {
			return strings.SplitN(v[2:], ".", 2)[0]
		}
		return v
	}
	if !strings.HasPrefix(v, "s:") {
		return ""
	}
	id, sig, ok := strings.Cut(v[2:], ".")
	if !ok || id == "" {
		return ""
	}
	if !hmac.Equal([]byte(sig), []byte(sessionSignature(secret, id))) {
		return ""
	}
	return id
}

// GetSessionID returns the current session ID from context (for login/logout).
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// SetSessionOrg stores the organization in the session and marks it for save.
// Call RegenerateSessionID first to get a new id.
func SetSessionOrg(c *fiber.Ctx, org SessionOrg) {
	data, _ := c.Locals(sessionDataLocal).(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	data["org"] = map[string]interface{}{
		"identity": org.Identity,
		"name":     org.Name,
	}
	c.Locals(sessionDataLocal, data)
	c.Locals(orgLocal, data["org"])
}

// RegenerateSessionID creates a new session ID and sets it in Locals (cookie set by handler).
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals(sessionIDLocal, newID)
	return newID
}

// DestroySession clears org and session data from Locals; caller must clear cookie and Redis.
func DestroySession(c *fiber.Ctx) {
	c.Locals(sessionDataLocal, make(map[string]interface{}))
	c.Locals(orgLocal, nil)
	c.Locals(sessionIDLocal, "")
}

// SessionCookieConfig returns the cookie options for setting or clearing the session cookie.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}
