package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/joho/godotenv"

	"github.com/agendadocs/agenda-server/internal/models"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Uploads  UploadsConfig
	Auth     AuthConfig
	Defaults DefaultAccounts
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Path string
}

// UploadsConfig holds the uploads directory configuration
type UploadsConfig struct {
	Dir string
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret  string
	Production bool
}

// AccountDefaults is the desired default credential for one role tier.
// PasswordFromEnv distinguishes an operator-supplied password from the
// hardcoded fallback.
type AccountDefaults struct {
	Username        string
	Password        string
	PasswordFromEnv bool
}

// DefaultAccounts holds the default credential per role tier.
type DefaultAccounts struct {
	Superadmin AccountDefaults
	Admin      AccountDefaults
	Reader     AccountDefaults
}

// ByRole returns the defaults in reconciliation order: superadmin, admin,
// reader.
func (d *DefaultAccounts) ByRole() []struct {
	Role     string
	Defaults AccountDefaults
} {
	return []struct {
		Role     string
		Defaults AccountDefaults
	}{
		{models.RoleSuperadmin, d.Superadmin},
		{models.RoleAdmin, d.Admin},
		{models.RoleReader, d.Reader},
	}
}

// LoadConfig loads the configuration from environment variables. A .env file
// next to the binary is honored when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 3001),
		},
		Database: DatabaseConfig{
			Path: resolvePath(getEnv("DB_PATH", ""), "database.sqlite"),
		},
		Uploads: UploadsConfig{
			Dir: resolvePath(getEnv("UPLOADS_DIR", ""), "uploads"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "dev-only-jwt-secret-change-me-for-production"),
			Production: strings.EqualFold(getEnv("APP_ENV", ""), "production"),
		},
		Defaults: DefaultAccounts{
			Superadmin: accountDefaults("DEFAULT_SUPERADMIN_USERNAME", "superadmin", "DEFAULT_SUPERADMIN_PASSWORD", "superadmin123"),
			Admin:      accountDefaults("DEFAULT_ADMIN_USERNAME", "admin", "DEFAULT_ADMIN_PASSWORD", "admin123"),
			Reader:     accountDefaults("DEFAULT_READER_USERNAME", "Director", "DEFAULT_READER_PASSWORD", "director123"),
		},
	}
}

// Validate enforces the production startup contract: a real JWT secret and,
// for every operator-supplied default password, the strong-password policy.
func (c *Config) Validate() error {
	if !c.Auth.Production {
		return nil
	}

	if len(strings.TrimSpace(c.Auth.JWTSecret)) < 32 ||
		c.Auth.JWTSecret == "dev-only-jwt-secret-change-me-for-production" {
		return models.NewStartupConfigError("in production, JWT_SECRET is required and must be at least 32 characters")
	}

	for _, target := range c.Defaults.ByRole() {
		if target.Defaults.PasswordFromEnv {
			if err := RequireStrongPassword(target.Defaults.Password, "default "+target.Role+" password"); err != nil {
				return err
			}
		}
	}

	return nil
}

// RequireStrongPassword checks the production password policy: at least 12
// characters including upper, lower, digit and symbol.
func RequireStrongPassword(password, label string) error {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if len([]rune(password)) < 12 || !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return models.NewStartupConfigError(
			"%s must be at least 12 characters and include upper case, lower case, digits and symbols", label)
	}
	return nil
}

func accountDefaults(userKey, userFallback, passKey, passFallback string) AccountDefaults {
	password := strings.TrimSpace(getEnv(passKey, ""))
	fromEnv := password != ""
	if !fromEnv {
		password = passFallback
	}

	username := strings.TrimSpace(getEnv(userKey, ""))
	if username == "" {
		username = userFallback
	}

	return AccountDefaults{
		Username:        username,
		Password:        password,
		PasswordFromEnv: fromEnv,
	}
}

func resolvePath(raw, fallback string) string {
	if strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	wd, err := os.Getwd()
	if err != nil {
		return raw
	}
	return filepath.Join(wd, raw)
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
