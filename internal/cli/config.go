package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/goalgraph/pkg/coordinator"
	"github.com/matzehuels/goalgraph/pkg/layout"
	"github.com/matzehuels/goalgraph/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "goalgraph"

// Store backends selectable in the config file.
const (
	backendMemory = "memory"
	backendFile   = "file"
	backendMongo  = "mongo"
)

// Config is the TOML configuration loaded from ~/.config/goalgraph/config.toml.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Mongo  MongoConfig  `toml:"mongo"`
	Redis  RedisConfig  `toml:"redis"`
	Client ClientConfig `toml:"client"`
	Layout LayoutConfig `toml:"layout"`
	Serve  ServeConfig  `toml:"serve"`
}

// StoreConfig selects and parameterizes the document store backend.
type StoreConfig struct {
	Backend string `toml:"backend"` // memory, file, or mongo
	Path    string `toml:"path"`    // file backend: document path
}

// MongoConfig holds MongoDB settings for the mongo backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	DocumentID string `toml:"document_id"`
}

// RedisConfig holds Redis pub/sub settings for the mongo backend.
type RedisConfig struct {
	Addr    string `toml:"addr"`
	Channel string `toml:"channel"`
}

// ClientConfig identifies this client in change notifications.
type ClientConfig struct {
	Name string `toml:"name"` // origin token; empty means a random ID per run
}

// LayoutConfig tunes the layout pipeline.
type LayoutConfig struct {
	MaxActiveColumns int     `toml:"max_active_columns"`
	Gap              float64 `toml:"gap"`
	VerticalSpacing  float64 `toml:"vertical_spacing"`
}

// ServeConfig holds HTTP API settings.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		Store: StoreConfig{Backend: backendFile},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   appName,
			Collection: "documents",
			DocumentID: "main",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: appName + ":changes",
		},
		Layout: LayoutConfig{
			MaxActiveColumns: layout.DefaultMaxActiveColumns,
			Gap:              layout.GapDistance,
			VerticalSpacing:  layout.VerticalSpacing,
		},
		Serve: ServeConfig{Addr: ":8080"},
	}
}

// loadConfig reads the TOML config at path, falling back to
// ~/.config/goalgraph/config.toml when path is empty. A missing file is not
// an error; defaults apply.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".config", appName, "config.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Layout.MaxActiveColumns < 1 {
		cfg.Layout.MaxActiveColumns = layout.DefaultMaxActiveColumns
	}
	return cfg, nil
}

// openStore builds the configured store backend. The returned close function
// releases backend connections and is safe to call once.
func openStore(ctx context.Context, cfg Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case backendMemory:
		return store.NewMemoryStore(), func() {}, nil

	case backendFile, "":
		s, err := store.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil

	case backendMongo:
		s, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:          cfg.Mongo.URI,
			Database:     cfg.Mongo.Database,
			Collection:   cfg.Mongo.Collection,
			DocumentID:   cfg.Mongo.DocumentID,
			RedisAddr:    cfg.Redis.Addr,
			RedisChannel: cfg.Redis.Channel,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close(context.Background()) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q (want memory, file, or mongo)", cfg.Store.Backend)
	}
}

// newCoordinator builds and starts a coordinator from the config. The
// returned stop function detaches from the store and closes backend
// connections.
func newCoordinator(ctx context.Context, cfg Config, logger *log.Logger) (*coordinator.Coordinator, func(), error) {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	c, err := coordinator.New(coordinator.Config{
		Store:            st,
		Logger:           logger,
		ClientID:         cfg.Client.Name,
		MaxActiveColumns: cfg.Layout.MaxActiveColumns,
		Layout: layout.Options{
			Gap:             cfg.Layout.Gap,
			VerticalSpacing: cfg.Layout.VerticalSpacing,
		},
	})
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	if err := c.Start(ctx); err != nil {
		closeStore()
		return nil, nil, err
	}

	stop := func() {
		c.Stop()
		closeStore()
	}
	return c, stop, nil
}

// withCoordinator runs fn with a started coordinator and tears it down after.
func withCoordinator(ctx context.Context, fn func(*coordinator.Coordinator) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	c, stop, err := newCoordinator(ctx, cfg, loggerFromContext(ctx))
	if err != nil {
		return err
	}
	defer stop()
	return fn(c)
}
