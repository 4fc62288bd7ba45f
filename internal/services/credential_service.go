package services

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/qontak"
	"github.com/remindhub/remindhub-api/internal/repo"
)

// TokenRefresher exchanges a refresh token for a new token pair.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (qontak.TokenPair, error)
}

// CredentialService reads provider credentials from the settings table,
// falling back to static configuration. Values are cached for a short TTL
// because every legacy API call needs the token.
type CredentialService struct {
	DB *gorm.DB
	// API performs the refresh grant; only Refresh needs it.
	API TokenRefresher

	// Fallbacks used when the settings table has no value.
	FallbackToken                string
	FallbackChannelIntegrationID string

	cache *cache.Cache
}

// NewCredentialService builds a CredentialService. ttl <= 0 disables caching.
func NewCredentialService(db *gorm.DB, api TokenRefresher, ttl time.Duration) *CredentialService {
	s := &CredentialService{DB: db, API: api}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// AccessToken returns the current bearer token, or ErrTokenMissing.
func (s *CredentialService) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.lookup(ctx, domain.SettingAccessToken, s.FallbackToken)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrTokenMissing
	}
	return tok, nil
}

// ChannelIntegrationID returns the WhatsApp channel integration id, or
// ErrChannelIntegrationMissing.
func (s *CredentialService) ChannelIntegrationID(ctx context.Context) (string, error) {
	id, err := s.lookup(ctx, domain.SettingChannelIntegrationID, s.FallbackChannelIntegrationID)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrChannelIntegrationMissing
	}
	return id, nil
}

func (s *CredentialService) lookup(ctx context.Context, key, fallback string) (string, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.(string), nil
		}
	}
	v, err := repo.GetSetting(ctx, s.DB, key)
	if err != nil {
		return "", err
	}
	v = strings.TrimSpace(v)
	if v == "" {
		v = strings.TrimSpace(fallback)
	}
	if v != "" && s.cache != nil {
		s.cache.SetDefault(key, v)
	}
	return v, nil
}

// Credentials is a partial update; nil fields are left unchanged.
type Credentials struct {
	AccessToken          *string
	RefreshToken         *string
	ChannelIntegrationID *string
}

// Update stores the non-nil fields and drops cached values.
func (s *CredentialService) Update(ctx context.Context, c Credentials) error {
	ctx, span := otel.Tracer("services/CredentialService").Start(ctx, "Update")
	defer span.End()

	pairs := []struct {
		key string
		val *string
	}{
		{domain.SettingAccessToken, c.AccessToken},
		{domain.SettingRefreshToken, c.RefreshToken},
		{domain.SettingChannelIntegrationID, c.ChannelIntegrationID},
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range pairs {
			if p.val == nil {
				continue
			}
			if err := repo.PutSetting(ctx, tx, p.key, strings.TrimSpace(*p.val)); err != nil {
				return err
			}
		}
		return nil
	})
	s.invalidate()
	return err
}

// Refresh exchanges the stored refresh token and stores the new pair.
func (s *CredentialService) Refresh(ctx context.Context) (qontak.TokenPair, error) {
	ctx, span := otel.Tracer("services/CredentialService").Start(ctx, "Refresh")
	defer span.End()

	rt, err := repo.GetSetting(ctx, s.DB, domain.SettingRefreshToken)
	if err != nil {
		return qontak.TokenPair{}, err
	}
	if strings.TrimSpace(rt) == "" {
		return qontak.TokenPair{}, ErrRefreshTokenMissing
	}

	tp, err := s.API.RefreshToken(ctx, rt)
	if err != nil {
		return qontak.TokenPair{}, err
	}

	upd := Credentials{AccessToken: &tp.AccessToken}
	if tp.RefreshToken != "" {
		upd.RefreshToken = &tp.RefreshToken
	}
	if err := s.Update(ctx, upd); err != nil {
		return qontak.TokenPair{}, err
	}
	logger(ctx).Info().Int("expires_in", tp.ExpiresIn).Msg("qontak token refreshed")
	return tp, nil
}

func (s *CredentialService) invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}
