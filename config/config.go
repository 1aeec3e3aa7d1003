package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// CONFIG_FILE_KEY names an optional YAML file holding any of the settings.
const CONFIG_FILE_KEY = "config_file"

type Sink string

const (
	SinkLocal Sink = "local"
	SinkS3    Sink = "s3"
)

var DefaultSearchTerms = []string{
	"beauty", "makeup", "skincare", "cosmetics", "kbeauty",
	"oliveyoung", "glowup", "skincareroutine", "makeuptutorial", "grwm",
}

// Config is read once at startup and never mutated afterwards.
type Config struct {
	Sink        Sink     `mapstructure:"sink"`
	SearchTerms []string `mapstructure:"search_terms"`

	OutDir             string `mapstructure:"out_dir"`
	S3Bucket           string `mapstructure:"s3_bucket"`
	S3DataKey          string `mapstructure:"s3_data_key"`
	S3ThumbnailsPrefix string `mapstructure:"s3_thumbnails_prefix"`
	AWSRegion          string `mapstructure:"aws_region"`
	AWSEndpoint        string `mapstructure:"aws_endpoint"`

	VideosPerTag     int           `mapstructure:"videos_per_tag"`
	RequestCap       int           `mapstructure:"request_cap"`
	BatchSize        int           `mapstructure:"batch_size"`
	FeedOverfetch    int           `mapstructure:"feed_overfetch"`
	MaxExecutionTime time.Duration `mapstructure:"max_execution_time"`
	RecencyWindow    time.Duration `mapstructure:"recency_window"`
	RecencyMode      string        `mapstructure:"recency_mode"`

	MinDelay   time.Duration `mapstructure:"min_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	PauseEvery int           `mapstructure:"pause_every"`
	LongPause  time.Duration `mapstructure:"long_pause"`

	ThumbnailTimeout time.Duration `mapstructure:"thumbnail_timeout"`
	CommentPageSize  int           `mapstructure:"comment_page_size"`
	TopComments      int           `mapstructure:"top_comments"`
	MaxSessions      int           `mapstructure:"max_sessions"`
	CookiesFile      string        `mapstructure:"cookies_file"`

	ValkeyAddress  string        `mapstructure:"valkey_init_address"`
	ValkeyPassword string        `mapstructure:"valkey_password"`
	ValkeyTLS      bool          `mapstructure:"valkey_tls"`
	RunLockTTL     time.Duration `mapstructure:"run_lock_ttl"`

	KafkaBroker   string `mapstructure:"kafka_broker"`
	RunsTableName string `mapstructure:"runs_table_name"`

	LogLevel string `mapstructure:"log_level"`
}

var defaults = map[string]any{
	"sink":         string(SinkLocal),
	"search_terms": DefaultSearchTerms,

	"out_dir":              "tiktok_data",
	"s3_bucket":            "socialmediaanalyzer",
	"s3_data_key":          "raw/data/tiktok_data.parquet",
	"s3_thumbnails_prefix": "raw/thumbnails/",
	"aws_region":           "ap-northeast-2",
	"aws_endpoint":         "",

	"videos_per_tag":     50,
	"request_cap":        200,
	"batch_size":         25,
	"feed_overfetch":     2,
	"max_execution_time": time.Duration(0),
	"recency_window":     365 * 24 * time.Hour,
	"recency_mode":       "rolling",

	"min_delay":   time.Second,
	"max_delay":   3 * time.Second,
	"pause_every": 20,
	"long_pause":  10 * time.Second,

	"thumbnail_timeout": 10 * time.Second,
	"comment_page_size": 50,
	"top_comments":      5,
	"max_sessions":      3,
	"cookies_file":      "cookies.txt",

	"valkey_init_address": "",
	"valkey_password":     "",
	"valkey_tls":          false,
	"run_lock_ttl":        20 * time.Minute,

	"kafka_broker":    "",
	"runs_table_name": "",

	"log_level": "info",
}

// Load builds a Config from the process environment, layered over the
// optional YAML file named by CONFIG_FILE.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return LoadFrom(v)
}

// LoadFrom applies the defaults to v, merges CONFIG_FILE when set and decodes
// the result. Keys are the lower-case forms of the environment variables.
func LoadFrom(v *viper.Viper) (Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := v.GetString(CONFIG_FILE_KEY); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("[Config] failed to read config file %s: %w", path, err)
		}
		slog.Info("[Config] Loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(secondsOrDurationHook),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return Config{}, fmt.Errorf("[Config] failed to decode configuration: %w", err)
	}

	cfg.Sink = Sink(strings.ToLower(strings.TrimSpace(string(cfg.Sink))))
	cfg.SearchTerms = ParseTerms(strings.Join(cfg.SearchTerms, ","))
	return cfg, cfg.Validate()
}

// secondsOrDurationHook accepts Go duration strings and bare numbers of seconds.
func secondsOrDurationHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

// ParseTerms splits a comma separated list, trimming blanks, leading '#' and duplicates.
func ParseTerms(raw string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

func (c Config) Validate() error {
	var errs []error
	switch c.Sink {
	case SinkLocal:
		if c.OutDir == "" {
			errs = append(errs, errors.New("OUT_DIR is required for the local sink"))
		}
	case SinkS3:
		if c.S3Bucket == "" || c.S3DataKey == "" {
			errs = append(errs, errors.New("S3_BUCKET and S3_DATA_KEY are required for the s3 sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SINK %q", c.Sink))
	}
	if len(c.SearchTerms) == 0 {
		errs = append(errs, errors.New("at least one search term is required"))
	}
	if c.VideosPerTag <= 0 {
		errs = append(errs, errors.New("VIDEOS_PER_TAG must be positive"))
	}
	if c.RequestCap <= 0 {
		errs = append(errs, errors.New("REQUEST_CAP must be positive"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, errors.New("BATCH_SIZE must be positive"))
	}
	if c.RecencyWindow < 0 {
		errs = append(errs, errors.New("RECENCY_WINDOW must not be negative"))
	}
	if c.MaxDelay < c.MinDelay {
		errs = append(errs, errors.New("MAX_DELAY must not be below MIN_DELAY"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("[Config] invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
