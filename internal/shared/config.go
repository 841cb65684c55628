package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"reviewit/internal/domain"
)

const DefaultCompanies = "1:coupang,2:aliexpress,3:gmarket,4:11st,5:temu"

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	DBDriver string // mysql | postgres
	DBDSN    string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	SourceKind     string // db | object
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3UseSSL       bool
	S3PublicBase   string
	SourcePrefix   string
	FileDelimiter  domain.KeywordDelimiter // keyword delimiter of review files
	Companies      []domain.Company
	Departments    []domain.Department
	RendererURL    string
	RendererRPS    int
	AnthropicKey   string
	AnthropicModel string

	SummaryMaxAttempts int
	SummaryRetryDelay  time.Duration

	WindowDays          int
	TopKeywords         int
	QuarterKeywords     int
	WordCloudMinCount   int
	WordCloudMaxKeyword int
	FetchWorkers        int
	IngestWorkers       int
}

// Load reads the environment, after an optional .env in the working
// directory. Malformed values fall back to defaults with a warning.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env not loaded")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		DBDriver:    env("DB_DRIVER", "mysql"),
		DBDSN:       env("DB_DSN", "root:root@tcp(localhost:3306)/reviewit?parseTime=true&charset=utf8mb4&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		SourceKind:     env("SOURCE_KIND", "db"),
		S3Endpoint:     env("S3_ENDPOINT", "s3.ap-northeast-2.amazonaws.com"),
		S3AccessKey:    env("S3_ACCESS_KEY", ""),
		S3SecretKey:    env("S3_SECRET_KEY", ""),
		S3Bucket:       env("S3_BUCKET", "hanium-reviewit"),
		S3Region:       env("S3_REGION", "ap-northeast-2"),
		S3UseSSL:       boolean("S3_USE_SSL", true),
		S3PublicBase:   env("S3_PUBLIC_BASE_URL", ""),
		SourcePrefix:   env("SOURCE_PREFIX", "reviews"),
		RendererURL:    env("RENDERER_URL", ""),
		RendererRPS:    atoi("RENDERER_RPS", 5),
		AnthropicKey:   env("ANTHROPIC_API_KEY", ""),
		AnthropicModel: env("ANTHROPIC_MODEL", ""),

		SummaryMaxAttempts: atoi("SUMMARY_MAX_ATTEMPTS", 5),
		SummaryRetryDelay:  time.Duration(atoi("SUMMARY_RETRY_DELAY_MS", 1000)) * time.Millisecond,

		WindowDays:          atoi("WINDOW_DAYS", 90),
		TopKeywords:         atoi("TOP_KEYWORDS", 10),
		QuarterKeywords:     atoi("QUARTER_KEYWORDS", 4),
		WordCloudMinCount:   atoi("WORDCLOUD_MIN_COUNT", 2),
		WordCloudMaxKeyword: atoi("WORDCLOUD_MAX_KEYWORDS", 50),
		FetchWorkers:        atoi("FETCH_WORKERS", 8),
		IngestWorkers:       atoi("INGEST_WORKERS", 8),
	}

	// review files were exported comma-delimited; the relational store keeps its own
	d, ok := domain.ParseDelimiter(env("KEYWORD_DELIMITER", "comma"))
	if !ok {
		log.Warn().Str("value", os.Getenv("KEYWORD_DELIMITER")).Msg("unknown KEYWORD_DELIMITER, using comma")
		d = domain.DelimComma
	}
	c.FileDelimiter = d

	cs, err := ParseCompanies(env("COMPANIES", DefaultCompanies))
	if err != nil {
		log.Warn().Err(err).Msg("invalid COMPANIES, using defaults")
		cs, _ = ParseCompanies(DefaultCompanies)
	}
	c.Companies = cs

	if v := env("DEPARTMENTS", ""); v != "" {
		ds, err := ParseDepartments(v)
		if err != nil {
			log.Warn().Err(err).Msg("invalid DEPARTMENTS, ignoring")
		}
		c.Departments = ds
	}

	if c.AnthropicKey == "" {
		log.Warn().Msg("ANTHROPIC_API_KEY is empty; summaries will use fallbacks")
	}
	if c.RendererURL == "" {
		log.Warn().Msg("RENDERER_URL is empty; word clouds are returned without images")
	}
	return c
}

// ParseCompanies reads "id:name,id:name".
func ParseCompanies(s string) ([]domain.Company, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, fmt.Errorf("companies: %w", err)
	}
	out := make([]domain.Company, len(pairs))
	for i, p := range pairs {
		out[i] = domain.Company{ID: p.id, Name: p.name}
	}
	return out, nil
}

// ParseDepartments reads the same form as ParseCompanies. Only file-backed
// deployments need it; the relational store has its own department table.
func ParseDepartments(s string) ([]domain.Department, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, fmt.Errorf("departments: %w", err)
	}
	out := make([]domain.Department, len(pairs))
	for i, p := range pairs {
		out[i] = domain.Department{ID: p.id, Name: p.name}
	}
	return out, nil
}

type pair struct {
	id   int64
	name string
}

func parsePairs(s string) ([]pair, error) {
	var out []pair
	seen := map[int64]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idStr, name, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%q: want id:name", part)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%q: bad id", part)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%q: empty name", part)
		}
		if seen[id] {
			return nil, fmt.Errorf("id %d listed twice", id)
		}
		seen[id] = true
		out = append(out, pair{id: id, name: name})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
