package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 8000)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("storage.prefix", "images")
	v.SetDefault("storage.legacyHostMarker", models.DefaultLegacyHostMarker)
	v.SetDefault("tables.images", "images")
	v.SetDefault("tables.imagesByUser", "user_id-created_at-index")
	v.SetDefault("tables.guestUsage", "guest_usage")
	v.SetDefault("tables.userUsage", "users")
	v.SetDefault("tables.otpCodes", "otp_codes")
	v.SetDefault("limits.guestLifetime", 10)
	v.SetDefault("limits.userDaily", 25)
	v.SetDefault("vision.model", "gemini-2.0-flash")
	v.SetDefault("vision.maxTokens", 300)
	v.SetDefault("otp.expiry", 10*time.Minute)
	v.SetDefault("upload.maxSizeMB", 10)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setDefaults(v)

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.BindEnv("logger.level", "SG_LOG_LEVEL")
	v.BindEnv("webServer.port", "PORT")
	v.BindEnv("aws.region", "SG_AWS_REGION", "AWS_REGION")
	v.BindEnv("aws.endpoint", "SG_AWS_ENDPOINT")
	v.BindEnv("storage.bucket", "SG_BUCKET")
	v.BindEnv("tables.images", "SG_IMAGES_TABLE")
	v.BindEnv("auth.audience", "SG_AUTH_AUDIENCE")
	v.BindEnv("auth.issuer", "SG_AUTH_ISSUER")
	v.BindEnv("vision.apiKey", "SG_VISION_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("otp.smtp.password", "SG_SMTP_PASSWORD")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "SmartGallery"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
