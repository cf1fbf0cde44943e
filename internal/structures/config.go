package structures

import "time"

type Server struct {
	Host       string `yaml:"host" validate:"required"`
	Port       int    `yaml:"port" validate:"required|uint|min:1"`
	TrustProxy bool   `yaml:"trustProxy"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type AwsConfig struct {
	Region   string `yaml:"region" validate:"required"`
	Endpoint string `yaml:"endpoint"`
}

type StorageConfig struct {
	Bucket           string `yaml:"bucket" validate:"required"`
	Prefix           string `yaml:"prefix" validate:"required"`
	LegacyHostMarker string `yaml:"legacyHostMarker" validate:"required"`
}

type TablesConfig struct {
	Images       string `yaml:"images" validate:"required"`
	ImagesByUser string `yaml:"imagesByUser" validate:"required"`
	GuestUsage   string `yaml:"guestUsage" validate:"required"`
	UserUsage    string `yaml:"userUsage" validate:"required"`
	OtpCodes     string `yaml:"otpCodes" validate:"required"`
}

type LimitsConfig struct {
	GuestLifetime int  `yaml:"guestLifetime" validate:"required|int|min:1"`
	UserDaily     int  `yaml:"userDaily" validate:"required|int|min:1"`
	Strict        bool `yaml:"strict"`
}

type AuthConfig struct {
	JwksURL  string `yaml:"jwksURL" validate:"required|fullUrl"`
	Issuer   string `yaml:"issuer" validate:"required"`
	Audience string `yaml:"audience" validate:"required"`
}

type VisionConfig struct {
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"maxTokens"`
}

type SmtpConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type OtpConfig struct {
	Expiry time.Duration `yaml:"expiry" validate:"required"`
	Smtp   SmtpConfig    `yaml:"smtp"`
}

type UploadConfig struct {
	MaxSizeMB int `yaml:"maxSizeMB" validate:"required|int|min:1"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Logger    LoggerConfig  `yaml:"logger"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
	Aws       AwsConfig     `yaml:"aws"`
	Storage   StorageConfig `yaml:"storage"`
	Tables    TablesConfig  `yaml:"tables"`
	Limits    LimitsConfig  `yaml:"limits"`
	Auth      AuthConfig    `yaml:"auth"`
	Vision    VisionConfig  `yaml:"vision"`
	Otp       OtpConfig     `yaml:"otp"`
	Upload    UploadConfig  `yaml:"upload"`
}
