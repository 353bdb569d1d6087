package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"taskmgr/internal/importer"
	"taskmgr/internal/query"
	"taskmgr/internal/reminder"
	"taskmgr/internal/storage"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDataName       = "tasks.json"
	DefaultSQLiteName     = "tasks.db"
	DefaultLogName        = "taskmgr.log"
	appDirName            = "taskmgr"
)

type Keymap struct {
	Quit         string `toml:"quit"`
	Add          string `toml:"add"`
	Edit         string `toml:"edit"`
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	Delete       string `toml:"delete"`
	DeleteAll    string `toml:"delete_all"`
	Search       string `toml:"search"`
	FilterPrio   string `toml:"filter_priority"`
	FilterStatus string `toml:"filter_status"`
	Import       string `toml:"import"`
	Confirm      string `toml:"confirm"`
	Cancel       string `toml:"cancel"`
	SortTitle    string `toml:"sort_title"`
	SortDue      string `toml:"sort_due"`
	SortPriority string `toml:"sort_priority"`
	SortStatus   string `toml:"sort_status"`
	SortDesc     string `toml:"sort_description"`
	SortDefault  string `toml:"sort_default"`
}

type Import struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type Filters struct {
	Priority string `toml:"priority"`
	Status   string `toml:"status"`
}

// Config is the on-disk configuration. An empty data_path means the
// backend's default file next to the config file.
type Config struct {
	DataPath     string  `toml:"data_path,omitempty"`
	Backend      string  `toml:"backend"`
	LogPath      string  `toml:"log_path"`
	LogLevel     string  `toml:"log_level"`
	ReminderDays int     `toml:"reminder_days"`
	Import       Import  `toml:"import"`
	Filters      Filters `toml:"filters"`
	Keys         Keymap  `toml:"keys"`

	dir           string
	dataDefaulted bool
}

// ResolveConfigPath picks $TASKMGR_CONFIG, then the user config dir, then
// the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv("TASKMGR_CONFIG"); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, appDirName, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads the TOML file at path, writing the defaults there first
// if it does not exist. Relative data and log paths resolve against the
// config file's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.fillDefaults()
	return cfg.resolve(filepath.Dir(path)), nil
}

// ApplyEnv overrides file settings with TASKMGR_DATA, TASKMGR_BACKEND,
// TASKMGR_LOG_LEVEL and TASKMGR_REMINDER_DAYS when set.
func (c Config) ApplyEnv() Config {
	if v := os.Getenv("TASKMGR_BACKEND"); v != "" {
		c.Backend = strings.ToLower(v)
		if c.dataDefaulted {
			c.DataPath = filepath.Join(c.dir, DefaultDataFile(c.Backend))
		}
	}
	if v := os.Getenv("TASKMGR_DATA"); v != "" {
		c.DataPath = v
		c.dataDefaulted = false
	}
	if v := os.Getenv("TASKMGR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TASKMGR_REMINDER_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.ReminderDays = n
		}
	}
	return c
}

func (c *Config) fillDefaults() {
	def := defaultConfig()
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.ReminderDays < 0 {
		c.ReminderDays = def.ReminderDays
	}
	if c.Import.URL == "" {
		c.Import.URL = def.Import.URL
	}
	if c.Import.TimeoutSeconds <= 0 {
		c.Import.TimeoutSeconds = def.Import.TimeoutSeconds
	}
	if c.Filters.Priority == "" {
		c.Filters.Priority = query.All
	}
	if c.Filters.Status == "" {
		c.Filters.Status = query.All
	}
	c.Keys = fillKeys(c.Keys, def.Keys)
}

func fillKeys(k, def Keymap) Keymap {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Keymap{
		Quit:         pick(k.Quit, def.Quit),
		Add:          pick(k.Add, def.Add),
		Edit:         pick(k.Edit, def.Edit),
		Up:           pick(k.Up, def.Up),
		Down:         pick(k.Down, def.Down),
		Delete:       pick(k.Delete, def.Delete),
		DeleteAll:    pick(k.DeleteAll, def.DeleteAll),
		Search:       pick(k.Search, def.Search),
		FilterPrio:   pick(k.FilterPrio, def.FilterPrio),
		FilterStatus: pick(k.FilterStatus, def.FilterStatus),
		Import:       pick(k.Import, def.Import),
		Confirm:      pick(k.Confirm, def.Confirm),
		Cancel:       pick(k.Cancel, def.Cancel),
		SortTitle:    pick(k.SortTitle, def.SortTitle),
		SortDue:      pick(k.SortDue, def.SortDue),
		SortPriority: pick(k.SortPriority, def.SortPriority),
		SortStatus:   pick(k.SortStatus, def.SortStatus),
		SortDesc:     pick(k.SortDesc, def.SortDesc),
		SortDefault:  pick(k.SortDefault, def.SortDefault),
	}
}

// DefaultDataFile is the data file name used for backend when data_path
// is not set.
func DefaultDataFile(backend string) string {
	if strings.EqualFold(backend, storage.BackendSQLite) {
		return DefaultSQLiteName
	}
	return DefaultDataName
}

func (c Config) resolve(dir string) Config {
	c.dir = dir
	if c.DataPath == "" {
		c.DataPath = DefaultDataFile(c.Backend)
		c.dataDefaulted = true
	}
	if !filepath.IsAbs(c.DataPath) {
		c.DataPath = filepath.Join(dir, c.DataPath)
	}
	if c.LogPath != "" && !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(dir, c.LogPath)
	}
	return c
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Backend:      storage.BackendJSON,
		LogPath:      DefaultLogName,
		LogLevel:     "info",
		ReminderDays: reminder.DefaultWindowDays,
		Import: Import{
			URL:            importer.DefaultURL,
			TimeoutSeconds: int(importer.DefaultTimeout.Seconds()),
		},
		Filters: Filters{
			Priority: query.All,
			Status:   query.All,
		},
		Keys: Keymap{
			Quit:         "q",
			Add:          "a",
			Edit:         "e",
			Up:           "k",
			Down:         "j",
			Delete:       "d",
			DeleteAll:    "D",
			Search:       "/",
			FilterPrio:   "p",
			FilterStatus: "s",
			Import:       "i",
			Confirm:      "enter",
			Cancel:       "esc",
			SortTitle:    "1",
			SortDue:      "2",
			SortPriority: "3",
			SortStatus:   "4",
			SortDesc:     "5",
			SortDefault:  "0",
		},
	}
}
