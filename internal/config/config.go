package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	Log      LogConfig
	OCR      OCRConfig
	Vision   VisionConfig
	Parser   ParserConfig
	Matcher  MatcherConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds settings for the receipt image archive.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Enabled   bool   `mapstructure:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OCRConfig holds text recognition settings.
type OCRConfig struct {
	Provider    string   `mapstructure:"provider"`
	Languages   []string `mapstructure:"languages"`
	TimeoutSecs int      `mapstructure:"timeout_secs"`
	StaticText  string   `mapstructure:"static_text"`
}

// Timeout returns the per-call OCR bound.
func (o *OCRConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSecs) * time.Second
}

// VisionConfig holds image validation and preprocessing settings.
type VisionConfig struct {
	MaxImageSizeMB        int64 `mapstructure:"max_image_size_mb"`
	TargetWidth           int   `mapstructure:"target_width"`
	ReferencePixels       int   `mapstructure:"reference_pixels"`
	StandardThreshold     uint8 `mapstructure:"standard_threshold"`
	HighContrastThreshold uint8 `mapstructure:"high_contrast_threshold"`
	DenoisedThreshold     uint8 `mapstructure:"denoised_threshold"`
}

// MaxImageBytes returns the upload size limit in bytes.
func (v *VisionConfig) MaxImageBytes() int64 {
	return v.MaxImageSizeMB * 1024 * 1024
}

// ParserConfig holds store grammar settings.
type ParserConfig struct {
	GenericMinMatchRatio float64 `mapstructure:"generic_min_match_ratio"`
	SplitLineLength      int     `mapstructure:"split_line_length"`
}

// MatcherConfig holds catalog matching settings.
type MatcherConfig struct {
	MinScore       float64 `mapstructure:"min_score"`
	MinMatchLength int     `mapstructure:"min_match_length"`
	PerItem        int     `mapstructure:"per_item"`
	PerReceipt     int     `mapstructure:"per_receipt"`
	// RefreshInterval rebuilds the catalog index periodically; 0 disables it.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// PipelineConfig holds receipt pipeline settings.
type PipelineConfig struct {
	ReviewThreshold float64 `mapstructure:"review_threshold"`
}

// Load reads configuration from environment variables with the FRIGO_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FRIGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", "*")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "frigo")
	v.SetDefault("db.password", "frigo_secret")
	v.SetDefault("db.name", "frigo_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "eu-west-3")
	v.SetDefault("s3.bucket", "frigo-receipts")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.enabled", false)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// OCR defaults
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.languages", "fra")
	v.SetDefault("ocr.timeout_secs", 30)
	v.SetDefault("ocr.static_text", "")

	// Vision defaults
	v.SetDefault("vision.max_image_size_mb", 10)
	v.SetDefault("vision.target_width", 1200)
	v.SetDefault("vision.reference_pixels", 2000000)
	v.SetDefault("vision.standard_threshold", 140)
	v.SetDefault("vision.high_contrast_threshold", 120)
	v.SetDefault("vision.denoised_threshold", 160)

	// Parser defaults
	v.SetDefault("parser.generic_min_match_ratio", 0.2)
	v.SetDefault("parser.split_line_length", 60)

	// Matcher defaults
	v.SetDefault("matcher.min_score", 0.4)
	v.SetDefault("matcher.min_match_length", 3)
	v.SetDefault("matcher.per_item", 3)
	v.SetDefault("matcher.per_receipt", 10)
	v.SetDefault("matcher.refresh_interval", "30m")

	// Pipeline defaults
	v.SetDefault("pipeline.review_threshold", 0.5)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "FRIGO_SERVER_PORT",
		"server.read_timeout":            "FRIGO_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "FRIGO_SERVER_WRITE_TIMEOUT",
		"server.environment":             "FRIGO_SERVER_ENVIRONMENT",
		"server.cors_origins":            "FRIGO_SERVER_CORS_ORIGINS",
		"db.host":                        "FRIGO_DB_HOST",
		"db.port":                        "FRIGO_DB_PORT",
		"db.user":                        "FRIGO_DB_USER",
		"db.password":                    "FRIGO_DB_PASSWORD",
		"db.name":                        "FRIGO_DB_NAME",
		"db.sslmode":                     "FRIGO_DB_SSLMODE",
		"db.max_open":                    "FRIGO_DB_MAX_OPEN",
		"db.max_idle":                    "FRIGO_DB_MAX_IDLE",
		"s3.region":                      "FRIGO_S3_REGION",
		"s3.bucket":                      "FRIGO_S3_BUCKET",
		"s3.endpoint":                    "FRIGO_S3_ENDPOINT",
		"s3.access_key":                  "FRIGO_S3_ACCESS_KEY",
		"s3.secret_key":                  "FRIGO_S3_SECRET_KEY",
		"s3.enabled":                     "FRIGO_S3_ENABLED",
		"log.level":                      "FRIGO_LOG_LEVEL",
		"log.format":                     "FRIGO_LOG_FORMAT",
		"ocr.provider":                   "FRIGO_OCR_PROVIDER",
		"ocr.languages":                  "FRIGO_OCR_LANGUAGES",
		"ocr.timeout_secs":               "FRIGO_OCR_TIMEOUT_SECS",
		"ocr.static_text":                "FRIGO_OCR_STATIC_TEXT",
		"vision.max_image_size_mb":       "FRIGO_VISION_MAX_IMAGE_SIZE_MB",
		"vision.target_width":            "FRIGO_VISION_TARGET_WIDTH",
		"vision.reference_pixels":        "FRIGO_VISION_REFERENCE_PIXELS",
		"vision.standard_threshold":      "FRIGO_VISION_STANDARD_THRESHOLD",
		"vision.high_contrast_threshold": "FRIGO_VISION_HIGH_CONTRAST_THRESHOLD",
		"vision.denoised_threshold":      "FRIGO_VISION_DENOISED_THRESHOLD",
		"parser.generic_min_match_ratio": "FRIGO_PARSER_GENERIC_MIN_MATCH_RATIO",
		"parser.split_line_length":       "FRIGO_PARSER_SPLIT_LINE_LENGTH",
		"matcher.min_score":              "FRIGO_MATCHER_MIN_SCORE",
		"matcher.min_match_length":       "FRIGO_MATCHER_MIN_MATCH_LENGTH",
		"matcher.per_item":               "FRIGO_MATCHER_PER_ITEM",
		"matcher.per_receipt":            "FRIGO_MATCHER_PER_RECEIPT",
		"matcher.refresh_interval":       "FRIGO_MATCHER_REFRESH_INTERVAL",
		"pipeline.review_threshold":      "FRIGO_PIPELINE_REVIEW_THRESHOLD",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Container platforms set PORT. Use it if FRIGO_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FRIGO_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  splitList(v.GetString("server.cors_origins")),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
		Enabled:   v.GetBool("s3.enabled"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.OCR = OCRConfig{
		Provider:    v.GetString("ocr.provider"),
		Languages:   splitList(v.GetString("ocr.languages")),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
		StaticText:  v.GetString("ocr.static_text"),
	}
	cfg.Vision = VisionConfig{
		MaxImageSizeMB:        v.GetInt64("vision.max_image_size_mb"),
		TargetWidth:           v.GetInt("vision.target_width"),
		ReferencePixels:       v.GetInt("vision.reference_pixels"),
		StandardThreshold:     uint8(v.GetUint("vision.standard_threshold")),
		HighContrastThreshold: uint8(v.GetUint("vision.high_contrast_threshold")),
		DenoisedThreshold:     uint8(v.GetUint("vision.denoised_threshold")),
	}
	cfg.Parser = ParserConfig{
		GenericMinMatchRatio: v.GetFloat64("parser.generic_min_match_ratio"),
		SplitLineLength:      v.GetInt("parser.split_line_length"),
	}
	cfg.Matcher = MatcherConfig{
		MinScore:        v.GetFloat64("matcher.min_score"),
		MinMatchLength:  v.GetInt("matcher.min_match_length"),
		PerItem:         v.GetInt("matcher.per_item"),
		PerReceipt:      v.GetInt("matcher.per_receipt"),
		RefreshInterval: v.GetDuration("matcher.refresh_interval"),
	}
	cfg.Pipeline = PipelineConfig{
		ReviewThreshold: v.GetFloat64("pipeline.review_threshold"),
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
