// Package config loads the abstraction CLI configuration file.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	abstraction "github.com/yugurt2005/poker-abstraction"
	"github.com/yugurt2005/poker-abstraction/blobstore"
	badgerblob "github.com/yugurt2005/poker-abstraction/blobstore/badger"
	minioblob "github.com/yugurt2005/poker-abstraction/blobstore/minio"
	s3blob "github.com/yugurt2005/poker-abstraction/blobstore/s3"
	"github.com/yugurt2005/poker-abstraction/cache"
	"github.com/yugurt2005/poker-abstraction/codec"
	"github.com/yugurt2005/poker-abstraction/combine"
	"github.com/yugurt2005/poker-abstraction/distance"
)

// Store kinds.
const (
	StoreLocal  = "local"
	StoreMemory = "memory"
	StoreS3     = "s3"
	StoreMinio  = "minio"
	StoreBadger = "badger"
)

// Config is the CLI configuration.
type Config struct {
	Store       Store   `yaml:"store"`
	Cache       Cache   `yaml:"cache"`
	Cluster     Cluster `yaml:"cluster"`
	Log         Log     `yaml:"log"`
	MetricsAddr string  `yaml:"metrics_addr,omitempty"`
}

// Store selects and configures the artifact store.
type Store struct {
	// Kind is one of local, memory, s3, minio, badger.
	Kind string `yaml:"kind"`

	// Path is the directory of local and badger stores.
	Path string `yaml:"path,omitempty"`

	// Bucket, Prefix, Region and Endpoint configure s3 and minio stores.
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`

	// PathStyle forces path-style S3 addressing.
	PathStyle bool `yaml:"path_style,omitempty"`

	// AccessKey and SecretKey are minio credentials. Values are expanded
	// with environment variables, e.g. "${MINIO_SECRET}".
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`

	// CacheDir keeps a local copy of every blob read from a remote store.
	CacheDir string `yaml:"cache_dir,omitempty"`
}

// Cache configures artifact encoding.
type Cache struct {
	Codec       string `yaml:"codec,omitempty"`
	Compression string `yaml:"compression,omitempty"`
	MemoryLimit int64  `yaml:"memory_limit,omitempty"`
}

// Cluster holds clustering defaults. Command-line flags override them.
type Cluster struct {
	Metric             string  `yaml:"metric,omitempty"`
	Strategy           string  `yaml:"strategy,omitempty"`
	Restarts           int     `yaml:"restarts,omitempty"`
	MaxIterations      int     `yaml:"max_iterations,omitempty"`
	Tolerance          float32 `yaml:"tolerance,omitempty"`
	Seed               *uint64 `yaml:"seed,omitempty"`
	Parallelism        int     `yaml:"parallelism,omitempty"`
	RestartParallelism int     `yaml:"restart_parallelism,omitempty"`
}

// Log configures logging.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level,omitempty"`
	// Format is text or json.
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Store: Store{Kind: StoreLocal, Path: "artifacts"},
		Cache: Cache{Codec: codec.Default.Name(), Compression: "lz4"},
		Cluster: Cluster{
			Metric:   "emd",
			Strategy: "average",
			Restarts: 10,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every enumerated field.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreLocal, StoreBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for %s stores", c.Store.Kind)
		}
	case StoreS3, StoreMinio:
		if c.Store.Bucket == "" {
			return fmt.Errorf("store.bucket is required for %s stores", c.Store.Kind)
		}
		if c.Store.Kind == StoreMinio && c.Store.Endpoint == "" {
			return fmt.Errorf("store.endpoint is required for minio stores")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}

	if _, err := c.Codec(); err != nil {
		return err
	}
	if _, err := c.Compression(); err != nil {
		return err
	}
	if _, err := c.Metric(); err != nil {
		return err
	}
	if _, err := c.Strategy(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Codec resolves cache.codec.
func (c *Config) Codec() (codec.Codec, error) {
	if c.Cache.Codec == "" {
		return codec.Default, nil
	}
	cd, ok := codec.ByName(c.Cache.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (want one of %s)", c.Cache.Codec, strings.Join(codec.Names(), ", "))
	}
	return cd, nil
}

// Compression resolves cache.compression.
func (c *Config) Compression() (cache.Compression, error) {
	return cache.ParseCompression(c.Cache.Compression)
}

// Metric resolves cluster.metric.
func (c *Config) Metric() (distance.Metric, error) {
	return distance.ParseMetric(c.Cluster.Metric)
}

// Strategy resolves cluster.strategy.
func (c *Config) Strategy() (combine.Strategy, error) {
	if c.Cluster.Strategy == "" {
		return combine.StrategyAverage, nil
	}
	return combine.ParseStrategy(c.Cluster.Strategy)
}

// LogLevel resolves log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return level, nil
}

// Logger builds the configured logger.
func (c *Config) Logger() (*abstraction.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	if c.Log.Format == "json" {
		return abstraction.NewJSONLogger(level), nil
	}
	return abstraction.NewTextLogger(level), nil
}

// BuilderOptions translates the cache and cluster sections.
func (c *Config) BuilderOptions() ([]abstraction.Option, error) {
	cd, err := c.Codec()
	if err != nil {
		return nil, err
	}
	comp, err := c.Compression()
	if err != nil {
		return nil, err
	}

	opts := []abstraction.Option{
		abstraction.WithCodec(cd),
		abstraction.WithCompression(comp),
		abstraction.WithCacheMemoryLimit(c.Cache.MemoryLimit),
		abstraction.WithParallelism(c.Cluster.Parallelism),
		abstraction.WithRestartParallelism(c.Cluster.RestartParallelism),
		abstraction.WithMaxIterations(c.Cluster.MaxIterations),
		abstraction.WithTolerance(c.Cluster.Tolerance),
	}
	if c.Cluster.Seed != nil {
		opts = append(opts, abstraction.WithSeed(*c.Cluster.Seed))
	}
	return opts, nil
}

// OpenStore opens the configured store. The returned close function
// releases it and is never nil.
func (c *Config) OpenStore(ctx context.Context) (blobstore.Store, func() error, error) {
	noop := func() error { return nil }
	s := c.Store

	var (
		store   blobstore.Store
		closeFn = noop
	)
	switch s.Kind {
	case StoreLocal:
		store = blobstore.NewLocalStore(s.Path)
	case StoreMemory:
		store = blobstore.NewMemoryStore()
	case StoreBadger:
		db, err := badgerblob.Open(badgerblob.Options{Dir: s.Path})
		if err != nil {
			return nil, noop, err
		}
		store, closeFn = db, db.Close
	case StoreS3:
		opts := []s3blob.Option{s3blob.WithPrefix(s.Prefix)}
		if s.Region != "" {
			opts = append(opts, s3blob.WithRegion(s.Region))
		}
		if s.Endpoint != "" {
			opts = append(opts, s3blob.WithEndpoint(s.Endpoint))
		}
		if s.PathStyle {
			opts = append(opts, s3blob.WithPathStyle())
		}
		st, err := s3blob.New(ctx, s.Bucket, opts...)
		if err != nil {
			return nil, noop, err
		}
		store = st
	case StoreMinio:
		st, err := minioblob.Connect(ctx, minioblob.Config{
			Endpoint:  s.Endpoint,
			AccessKey: os.ExpandEnv(s.AccessKey),
			SecretKey: os.ExpandEnv(s.SecretKey),
			Region:    s.Region,
			Secure:    s.Secure,
			Bucket:    s.Bucket,
			Prefix:    s.Prefix,
		})
		if err != nil {
			return nil, noop, err
		}
		store = st
	default:
		return nil, noop, fmt.Errorf("unknown store kind %q", s.Kind)
	}

	if s.CacheDir != "" && (s.Kind == StoreS3 || s.Kind == StoreMinio) {
		store = blobstore.NewCachingStore(store, blobstore.NewLocalStore(s.CacheDir))
	}
	return store, closeFn, nil
}
