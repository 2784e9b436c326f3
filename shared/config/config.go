package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Config struct {
	Env              string
	ServiceName      string
	HTTPPort         int
	LogLevel         string
	ConfigPath       string
	RequestTimeoutMS int
	RequestTimeout   time.Duration

	DatabaseURL      string
	DBMaxConns       int
	DBMinConns       int
	DBConnMaxIdleSec int
	DBConnMaxLifeSec int

	SupabaseURL           string
	SupabaseAnonKey       string
	EnableTracking        bool
	EnableDebug           bool
	TrackAnonymousUsers   bool
	TrackScrollDepth      bool
	TrackTimeOnPage       bool
	TrackFormInteractions bool

	WebhookSecret string

	SinkProbeTimeoutMS int
	SinkPushTimeoutMS  int
	SyncBatchLimit     int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTLSec int

	AsynqRedisAddr   string
	AsynqRedisPass   string
	AsynqRedisDB     int
	AsynqQueue       string
	AsynqConcurrency int
	RelayScanSec     int
	RelayBatchSize   int

	KafkaBrokers    []string
	KafkaClientID   string
	KafkaWriteMS    int
	KafkaEventTopic string

	OtelEnabled     bool
	OtelEndpoint    string
	OtelInsecure    bool
	OtelSampleRatio float64
}

// SinkConfigured reports whether remote delivery may be attempted at all.
// A missing endpoint or credential means "tracking disabled", not an error.
func (c Config) SinkConfigured() bool {
	return c.EnableTracking &&
		strings.TrimSpace(c.SupabaseURL) != "" &&
		strings.TrimSpace(c.SupabaseAnonKey) != ""
}

func Load(serviceNameDefault string, httpPortDefault int) (Config, []Problem) {
	envRaw := strings.TrimSpace(os.Getenv("ENV"))
	cfg := Config{
		Env:                   envRaw,
		ServiceName:           serviceNameDefault,
		HTTPPort:              httpPortDefault,
		LogLevel:              "info",
		ConfigPath:            strings.TrimSpace(os.Getenv("CONFIG_PATH")),
		RequestTimeoutMS:      30000,
		DatabaseURL:           strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:            10,
		DBMinConns:            1,
		DBConnMaxIdleSec:      300,
		DBConnMaxLifeSec:      1800,
		SupabaseURL:           strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		SupabaseAnonKey:       strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY")),
		EnableTracking:        true,
		EnableDebug:           false,
		TrackAnonymousUsers:   true,
		TrackScrollDepth:      true,
		TrackTimeOnPage:       true,
		TrackFormInteractions: true,
		WebhookSecret:         strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
		SinkProbeTimeoutMS:    10000,
		SinkPushTimeoutMS:     30000,
		SyncBatchLimit:        100,
		RedisAddr:             "",
		RedisPassword:         "",
		RedisDB:               0,
		SessionTTLSec:         86400,
		AsynqRedisAddr:        "",
		AsynqRedisPass:        "",
		AsynqRedisDB:          0,
		AsynqQueue:            "default",
		AsynqConcurrency:      10,
		RelayScanSec:          30,
		RelayBatchSize:        100,
		KafkaBrokers:          nil,
		KafkaClientID:         "",
		KafkaWriteMS:          5000,
		KafkaEventTopic:       "storefront.events",
		OtelEnabled:           false,
		OtelEndpoint:          "",
		OtelInsecure:          true,
		OtelSampleRatio:       1.0,
	}

	problems := make([]Problem, 0, 4)
	envProvided := envRaw != ""

	if repoRoot, ok := findRepoRoot(); ok && cfg.Env != "" && cfg.ConfigPath == "" {
		cfg.ConfigPath = filepath.Join(repoRoot, "configs", cfg.Env+".json")
	}

	if fileData, fileProblems, ok := loadConfigFile(cfg.ConfigPath, strings.TrimSpace(os.Getenv("CONFIG_PATH")) != ""); ok {
		problems = append(problems, fileProblems...)
		if fileEnv, ok := readStringKey(fileData, "ENV"); ok && strings.TrimSpace(fileEnv) != "" {
			envProvided = true
		}
		applyConfigMap(&cfg, fileData, &problems)
	} else {
		problems = append(problems, fileProblems...)
	}

	applyEnv(&cfg, &problems)

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if !envProvided {
		problems = append(problems, Problem{Field: "ENV", Message: "ENV is required"})
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		problems = append(problems, Problem{Field: "HTTP_PORT", Message: "HTTP_PORT must be 1-65535"})
		cfg.HTTPPort = httpPortDefault
	}
	if cfg.RequestTimeoutMS <= 0 {
		problems = append(problems, Problem{Field: "REQUEST_TIMEOUT_MS", Message: "REQUEST_TIMEOUT_MS must be > 0"})
		cfg.RequestTimeoutMS = 30000
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if cfg.DBMaxConns <= 0 {
		problems = append(problems, Problem{Field: "DB_MAX_CONNS", Message: "DB_MAX_CONNS must be > 0"})
		cfg.DBMaxConns = 10
	}
	if cfg.DBMinConns < 0 {
		problems = append(problems, Problem{Field: "DB_MIN_CONNS", Message: "DB_MIN_CONNS must be >= 0"})
		cfg.DBMinConns = 1
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		problems = append(problems, Problem{Field: "DB_MIN_CONNS", Message: "DB_MIN_CONNS must be <= DB_MAX_CONNS"})
		cfg.DBMinConns = cfg.DBMaxConns
	}
	if cfg.DBConnMaxIdleSec <= 0 {
		problems = append(problems, Problem{Field: "DB_CONN_MAX_IDLE_SECONDS", Message: "DB_CONN_MAX_IDLE_SECONDS must be > 0"})
		cfg.DBConnMaxIdleSec = 300
	}
	if cfg.DBConnMaxLifeSec <= 0 {
		problems = append(problems, Problem{Field: "DB_CONN_MAX_LIFETIME_SECONDS", Message: "DB_CONN_MAX_LIFETIME_SECONDS must be > 0"})
		cfg.DBConnMaxLifeSec = 1800
	}
	if cfg.SinkProbeTimeoutMS <= 0 {
		problems = append(problems, Problem{Field: "SINK_PROBE_TIMEOUT_MS", Message: "SINK_PROBE_TIMEOUT_MS must be > 0"})
		cfg.SinkProbeTimeoutMS = 10000
	}
	if cfg.SinkPushTimeoutMS <= 0 {
		problems = append(problems, Problem{Field: "SINK_PUSH_TIMEOUT_MS", Message: "SINK_PUSH_TIMEOUT_MS must be > 0"})
		cfg.SinkPushTimeoutMS = 30000
	}
	if cfg.SyncBatchLimit <= 0 {
		problems = append(problems, Problem{Field: "SYNC_BATCH_LIMIT", Message: "SYNC_BATCH_LIMIT must be > 0"})
		cfg.SyncBatchLimit = 100
	}
	if cfg.SessionTTLSec <= 0 {
		problems = append(problems, Problem{Field: "SESSION_TTL_SECONDS", Message: "SESSION_TTL_SECONDS must be > 0"})
		cfg.SessionTTLSec = 86400
	}
	if cfg.RedisDB < 0 {
		problems = append(problems, Problem{Field: "REDIS_DB", Message: "REDIS_DB must be >= 0"})
		cfg.RedisDB = 0
	}
	if cfg.AsynqRedisDB < 0 {
		problems = append(problems, Problem{Field: "ASYNQ_REDIS_DB", Message: "ASYNQ_REDIS_DB must be >= 0"})
		cfg.AsynqRedisDB = 0
	}
	if cfg.AsynqConcurrency <= 0 {
		problems = append(problems, Problem{Field: "ASYNQ_CONCURRENCY", Message: "ASYNQ_CONCURRENCY must be > 0"})
		cfg.AsynqConcurrency = 10
	}
	if cfg.RelayScanSec <= 0 {
		problems = append(problems, Problem{Field: "RELAY_SCAN_INTERVAL_SECONDS", Message: "RELAY_SCAN_INTERVAL_SECONDS must be > 0"})
		cfg.RelayScanSec = 30
	}
	if cfg.RelayBatchSize <= 0 {
		problems = append(problems, Problem{Field: "RELAY_BATCH_SIZE", Message: "RELAY_BATCH_SIZE must be > 0"})
		cfg.RelayBatchSize = 100
	}
	if cfg.KafkaWriteMS <= 0 {
		problems = append(problems, Problem{Field: "KAFKA_WRITE_TIMEOUT_MS", Message: "KAFKA_WRITE_TIMEOUT_MS must be > 0"})
		cfg.KafkaWriteMS = 5000
	}
	if cfg.OtelSampleRatio < 0 || cfg.OtelSampleRatio > 1 {
		problems = append(problems, Problem{Field: "OTEL_SAMPLE_RATIO", Message: "OTEL_SAMPLE_RATIO must be 0-1"})
		cfg.OtelSampleRatio = 1.0
	}

	return cfg, problems
}

func findRepoRoot() (string, bool) {
	start, err := os.Getwd()
	if err != nil {
		return "", false
	}
	dir := start
	for i := 0; i < 8; i++ {
		candidate := filepath.Join(dir, "configs")
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func loadConfigFile(path string, explicit bool) (map[string]any, []Problem, bool) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, false
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if explicit && !errors.Is(err, os.ErrNotExist) {
			return nil, []Problem{{Field: "CONFIG_PATH", Message: fmt.Sprintf("failed to read config file: %v", err)}}, false
		}
		if explicit && errors.Is(err, os.ErrNotExist) {
			return nil, []Problem{{Field: "CONFIG_PATH", Message: "config file not found"}}, false
		}
		return nil, nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, []Problem{{Field: "CONFIG_PATH", Message: fmt.Sprintf("invalid json: %v", err)}}, false
	}
	return raw, nil, true
}

func applyEnv(cfg *Config, problems *[]Problem) {
	if v := strings.TrimSpace(os.Getenv("SERVICE_NAME")); v != "" {
		cfg.ServiceName = v
	}

	portRaw := strings.TrimSpace(os.Getenv("HTTP_PORT"))
	if portRaw == "" {
		portRaw = strings.TrimSpace(os.Getenv("PORT"))
	}
	if portRaw != "" {
		if p, err := strconv.Atoi(portRaw); err != nil || p <= 0 || p > 65535 {
			*problems = append(*problems, Problem{Field: "HTTP_PORT", Message: "HTTP_PORT must be 1-65535"})
		} else {
			cfg.HTTPPort = p
		}
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}

	envInt(problems, "REQUEST_TIMEOUT_MS", &cfg.RequestTimeoutMS)
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	envInt(problems, "DB_MAX_CONNS", &cfg.DBMaxConns)
	envInt(problems, "DB_MIN_CONNS", &cfg.DBMinConns)
	envInt(problems, "DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleSec)
	envInt(problems, "DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifeSec)

	if v := strings.TrimSpace(os.Getenv("SUPABASE_URL")); v != "" {
		cfg.SupabaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY")); v != "" {
		cfg.SupabaseAnonKey = v
	}
	envBool(problems, "ENABLE_TRACKING", &cfg.EnableTracking)
	envBool(problems, "ENABLE_DEBUG", &cfg.EnableDebug)
	envBool(problems, "TRACK_ANONYMOUS_USERS", &cfg.TrackAnonymousUsers)
	envBool(problems, "TRACK_SCROLL_DEPTH", &cfg.TrackScrollDepth)
	envBool(problems, "TRACK_TIME_ON_PAGE", &cfg.TrackTimeOnPage)
	envBool(problems, "TRACK_FORM_INTERACTIONS", &cfg.TrackFormInteractions)

	if v := strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")); v != "" {
		cfg.WebhookSecret = v
	}

	envInt(problems, "SINK_PROBE_TIMEOUT_MS", &cfg.SinkProbeTimeoutMS)
	envInt(problems, "SINK_PUSH_TIMEOUT_MS", &cfg.SinkPushTimeoutMS)
	envInt(problems, "SYNC_BATCH_LIMIT", &cfg.SyncBatchLimit)

	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.RedisAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_PASSWORD")); v != "" {
		cfg.RedisPassword = v
	}
	envInt(problems, "REDIS_DB", &cfg.RedisDB)
	envInt(problems, "SESSION_TTL_SECONDS", &cfg.SessionTTLSec)

	if v := strings.TrimSpace(os.Getenv("ASYNQ_REDIS_ADDR")); v != "" {
		cfg.AsynqRedisAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ASYNQ_REDIS_PASSWORD")); v != "" {
		cfg.AsynqRedisPass = v
	}
	envInt(problems, "ASYNQ_REDIS_DB", &cfg.AsynqRedisDB)
	if v := strings.TrimSpace(os.Getenv("ASYNQ_QUEUE")); v != "" {
		cfg.AsynqQueue = v
	}
	envInt(problems, "ASYNQ_CONCURRENCY", &cfg.AsynqConcurrency)
	envInt(problems, "RELAY_SCAN_INTERVAL_SECONDS", &cfg.RelayScanSec)
	envInt(problems, "RELAY_BATCH_SIZE", &cfg.RelayBatchSize)

	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		cfg.KafkaBrokers = parseCSV(v)
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_CLIENT_ID")); v != "" {
		cfg.KafkaClientID = v
	}
	envInt(problems, "KAFKA_WRITE_TIMEOUT_MS", &cfg.KafkaWriteMS)
	if v := strings.TrimSpace(os.Getenv("KAFKA_EVENT_TOPIC")); v != "" {
		cfg.KafkaEventTopic = v
	}

	envBool(problems, "OTEL_ENABLED", &cfg.OtelEnabled)
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); v != "" {
		cfg.OtelEndpoint = v
	}
	envBool(problems, "OTEL_EXPORTER_OTLP_INSECURE", &cfg.OtelInsecure)
	if v := strings.TrimSpace(os.Getenv("OTEL_SAMPLE_RATIO")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err != nil {
			*problems = append(*problems, Problem{Field: "OTEL_SAMPLE_RATIO", Message: "OTEL_SAMPLE_RATIO must be a number"})
		} else {
			cfg.OtelSampleRatio = f
		}
	}
}

func envInt(problems *[]Problem, key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*problems = append(*problems, Problem{Field: key, Message: key + " must be an integer"})
		return
	}
	*dst = n
}

func envBool(problems *[]Problem, key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	b, ok := asBool(v)
	if !ok {
		*problems = append(*problems, Problem{Field: key, Message: key + " must be a boolean"})
		return
	}
	*dst = b
}

func applyConfigMap(cfg *Config, raw map[string]any, problems *[]Problem) {
	for k, v := range raw {
		key := strings.ToUpper(strings.TrimSpace(k))
		switch key {
		case "ENV":
			if s, ok := v.(string); ok {
				cfg.Env = strings.TrimSpace(s)
			}
		case "SERVICE_NAME":
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				cfg.ServiceName = strings.TrimSpace(s)
			}
		case "HTTP_PORT":
			p, ok := asInt(v)
			if !ok || p <= 0 || p > 65535 {
				*problems = append(*problems, Problem{Field: "HTTP_PORT", Message: "HTTP_PORT must be 1-65535"})
			} else {
				cfg.HTTPPort = p
			}
		case "LOG_LEVEL":
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				cfg.LogLevel = strings.TrimSpace(s)
			}
		case "REQUEST_TIMEOUT_MS":
			mapInt(key, v, &cfg.RequestTimeoutMS, problems)
		case "DATABASE_URL":
			if s, ok := v.(string); ok {
				cfg.DatabaseURL = strings.TrimSpace(s)
			}
		case "DB_MAX_CONNS":
			mapInt(key, v, &cfg.DBMaxConns, problems)
		case "DB_MIN_CONNS":
			mapInt(key, v, &cfg.DBMinConns, problems)
		case "DB_CONN_MAX_IDLE_SECONDS":
			mapInt(key, v, &cfg.DBConnMaxIdleSec, problems)
		case "DB_CONN_MAX_LIFETIME_SECONDS":
			mapInt(key, v, &cfg.DBConnMaxLifeSec, problems)
		case "SUPABASE_URL":
			if s, ok := v.(string); ok {
				cfg.SupabaseURL = strings.TrimRight(strings.TrimSpace(s), "/")
			}
		case "SUPABASE_ANON_KEY":
			if s, ok := v.(string); ok {
				cfg.SupabaseAnonKey = strings.TrimSpace(s)
			}
		case "ENABLE_TRACKING":
			mapBool(key, v, &cfg.EnableTracking, problems)
		case "ENABLE_DEBUG":
			mapBool(key, v, &cfg.EnableDebug, problems)
		case "TRACK_ANONYMOUS_USERS":
			mapBool(key, v, &cfg.TrackAnonymousUsers, problems)
		case "TRACK_SCROLL_DEPTH":
			mapBool(key, v, &cfg.TrackScrollDepth, problems)
		case "TRACK_TIME_ON_PAGE":
			mapBool(key, v, &cfg.TrackTimeOnPage, problems)
		case "TRACK_FORM_INTERACTIONS":
			mapBool(key, v, &cfg.TrackFormInteractions, problems)
		case "WEBHOOK_SECRET":
			if s, ok := v.(string); ok {
				cfg.WebhookSecret = strings.TrimSpace(s)
			}
		case "SINK_PROBE_TIMEOUT_MS":
			mapInt(key, v, &cfg.SinkProbeTimeoutMS, problems)
		case "SINK_PUSH_TIMEOUT_MS":
			mapInt(key, v, &cfg.SinkPushTimeoutMS, problems)
		case "SYNC_BATCH_LIMIT":
			mapInt(key, v, &cfg.SyncBatchLimit, problems)
		case "REDIS_ADDR":
			if s, ok := v.(string); ok {
				cfg.RedisAddr = strings.TrimSpace(s)
			}
		case "REDIS_PASSWORD":
			if s, ok := v.(string); ok {
				cfg.RedisPassword = s
			}
		case "REDIS_DB":
			mapInt(key, v, &cfg.RedisDB, problems)
		case "SESSION_TTL_SECONDS":
			mapInt(key, v, &cfg.SessionTTLSec, problems)
		case "ASYNQ_REDIS_ADDR":
			if s, ok := v.(string); ok {
				cfg.AsynqRedisAddr = strings.TrimSpace(s)
			}
		case "ASYNQ_REDIS_PASSWORD":
			if s, ok := v.(string); ok {
				cfg.AsynqRedisPass = s
			}
		case "ASYNQ_REDIS_DB":
			mapInt(key, v, &cfg.AsynqRedisDB, problems)
		case "ASYNQ_QUEUE":
			if s, ok := v.(string); ok {
				cfg.AsynqQueue = strings.TrimSpace(s)
			}
		case "ASYNQ_CONCURRENCY":
			mapInt(key, v, &cfg.AsynqConcurrency, problems)
		case "RELAY_SCAN_INTERVAL_SECONDS":
			mapInt(key, v, &cfg.RelayScanSec, problems)
		case "RELAY_BATCH_SIZE":
			mapInt(key, v, &cfg.RelayBatchSize, problems)
		case "KAFKA_BROKERS":
			if s, ok := v.(string); ok {
				cfg.KafkaBrokers = parseCSV(s)
			} else if arr, ok := v.([]any); ok {
				cfg.KafkaBrokers = parseAnyCSV(arr)
			}
		case "KAFKA_CLIENT_ID":
			if s, ok := v.(string); ok {
				cfg.KafkaClientID = strings.TrimSpace(s)
			}
		case "KAFKA_WRITE_TIMEOUT_MS":
			mapInt(key, v, &cfg.KafkaWriteMS, problems)
		case "KAFKA_EVENT_TOPIC":
			if s, ok := v.(string); ok {
				cfg.KafkaEventTopic = strings.TrimSpace(s)
			}
		case "OTEL_ENABLED":
			mapBool(key, v, &cfg.OtelEnabled, problems)
		case "OTEL_EXPORTER_OTLP_ENDPOINT":
			if s, ok := v.(string); ok {
				cfg.OtelEndpoint = strings.TrimSpace(s)
			}
		case "OTEL_EXPORTER_OTLP_INSECURE":
			mapBool(key, v, &cfg.OtelInsecure, problems)
		case "OTEL_SAMPLE_RATIO":
			if f, ok := asFloat(v); ok {
				cfg.OtelSampleRatio = f
			} else {
				*problems = append(*problems, Problem{Field: "OTEL_SAMPLE_RATIO", Message: "OTEL_SAMPLE_RATIO must be a number"})
			}
		}
	}
}

func mapInt(key string, v any, dst *int, problems *[]Problem) {
	n, ok := asInt(v)
	if !ok {
		*problems = append(*problems, Problem{Field: key, Message: key + " must be an integer"})
		return
	}
	*dst = n
}

func mapBool(key string, v any, dst *bool, problems *[]Problem) {
	switch t := v.(type) {
	case bool:
		*dst = t
	case string:
		if b, ok := asBool(t); ok {
			*dst = b
		} else {
			*problems = append(*problems, Problem{Field: key, Message: key + " must be a boolean"})
		}
	default:
		*problems = append(*problems, Problem{Field: key, Message: key + " must be a boolean"})
	}
}

func readStringKey(raw map[string]any, key string) (string, bool) {
	for k, v := range raw {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			s, ok := v.(string)
			return s, ok
		}
	}
	return "", false
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	default:
		return 0, false
	}
}

func asBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y":
		return true, true
	case "false", "0", "no", "n":
		return false, true
	default:
		return false, false
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseAnyCSV(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
