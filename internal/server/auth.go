package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/cargoyard/internal/config"
	"github.com/gravitas-games/cargoyard/pkg/models"
)

// Blacklist is the part of a Redis client used to reject revoked users.
type Blacklist interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// JWTValidator handles JWT token validation
type JWTValidator struct {
	config    *config.Config
	publicKey *ecdsa.PublicKey
	keyMu     sync.RWMutex
	blacklist Blacklist
	client    *http.Client
	log       logrus.FieldLogger
}

// Claims represents JWT token claims from the login server
type Claims struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Permissions int64  `json:"permissions"`
	Activated   int64  `json:"activated"`
	jwt.RegisteredClaims
}

// NewJWTValidator creates a validator and fetches the signing key. blacklist
// may be nil when Redis is disabled.
func NewJWTValidator(cfg *config.Config, blacklist Blacklist, log logrus.FieldLogger) (*JWTValidator, error) {
	v := &JWTValidator{
		config:    cfg,
		blacklist: blacklist,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.WithField("component", "jwt"),
	}
	if err := v.RefreshPublicKey(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}
	v.log.Info("JWT validator initialized")
	return v, nil
}

// RefreshPublicKey fetches the PEM encoded ECDSA key
func (v *JWTValidator) RefreshPublicKey(ctx context.Context) error {
	url := v.config.JWT.PublicKeyURL
	v.log.WithField("url", url).Debug("fetching public key")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("public key endpoint returned status %d", resp.StatusCode)
	}

	keyData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}
	key, err := parsePublicKey(keyData)
	if err != nil {
		return err
	}

	v.keyMu.Lock()
	v.publicKey = key
	v.keyMu.Unlock()

	v.log.Info("public key refreshed")
	return nil
}

func parsePublicKey(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	ecdsaKey, ok := pubKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not ECDSA")
	}
	return ecdsaKey, nil
}

// RefreshLoop refreshes the key until ctx is done
func (v *JWTValidator) RefreshLoop(ctx context.Context) {
	if v.config.JWT.PublicKeyRefreshHrs <= 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(v.config.JWT.PublicKeyRefreshHrs) * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.RefreshPublicKey(ctx); err != nil {
				v.log.WithError(err).Warn("failed to refresh public key")
			}
		}
	}
}

// ValidateToken validates a JWT token and returns the observer it identifies
func (v *JWTValidator) ValidateToken(ctx context.Context, tokenString string) (*models.Observer, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		v.keyMu.RLock()
		defer v.keyMu.RUnlock()
		return v.publicKey, nil
	}, jwt.WithIssuer(v.config.JWT.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	observer := &models.Observer{
		ID:          strconv.FormatInt(claims.UserID, 10),
		Username:    claims.Username,
		Permissions: claims.Permissions,
		Activated:   claims.Activated,
	}
	if observer.IsBanned() {
		return nil, errors.New("user is banned")
	}
	if !observer.IsActive() {
		return nil, errors.New("user not activated")
	}

	if v.blacklist != nil {
		key := v.config.Redis.BlacklistPrefix + observer.ID
		n, err := v.blacklist.Exists(ctx, key).Result()
		if err != nil {
			// A failed lookup admits the token.
			v.log.WithError(err).Warn("failed to check blacklist")
		} else if n > 0 {
			return nil, errors.New("token is blacklisted")
		}
	}

	return observer, nil
}

// extractToken reads the token from the websocket subprotocol, the
// Authorization header or the token query parameter, in that order
func extractToken(r *http.Request) string {
	if protocols := r.Header.Get("Sec-WebSocket-Protocol"); protocols != "" {
		parts := strings.Split(protocols, ",")
		if len(parts) == 2 && strings.TrimSpace(parts[0]) == "access_token" {
			return strings.TrimSpace(parts[1])
		}
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
