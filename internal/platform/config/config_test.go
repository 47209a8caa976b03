package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiryDuration)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenExpiryDuration)
	assert.Equal(t, time.Hour, cfg.PasswordResetExpiryDuration)
	assert.Equal(t, "session-auth-service", cfg.JWTIssuer)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "5-M", cfg.AuthRateLimit)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("JWT_EXPIRY_DURATION", "5m")
	v.Set("REFRESH_TOKEN_EXPIRY_DURATION", "not-a-duration")
	v.Set("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	v.Set("FRONTEND_BASE_URL", "https://app.example/")

	cfg := fromViper(v)

	assert.Equal(t, 5*time.Minute, cfg.JWTExpiryDuration)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenExpiryDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://app.example", cfg.FrontendBaseURL)
}
