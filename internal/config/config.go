package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const envPrefix = "JDS_"

type Config struct {
	Port        string `json:"port"`
	DSLDir      string `json:"dslDir"`
	EnumsDir    string `json:"enumsDir"`
	DBURL       string `json:"dbUrl"`       // пусто — без БД, только метаданные
	AutoMigrate bool   `json:"autoMigrate"` // применять DDL при старте
	Debug       bool   `json:"debug"`
}

func def() Config {
	return Config{
		Port:     "8080",
		DSLDir:   "dsl",
		EnumsDir: "reference/enums",
	}
}

func loadJSON(path string, c Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(envPrefix + k); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func parseBool(v string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(envPrefix + k); ok {
		if b, ok := parseBool(v); ok {
			return b
		}
	}
	return fallback
}

// Load: defaults -> JSON (если файл есть) -> JDS_* -> флаги из args.
// Флаг -config подменяет путь к JSON.
func Load(jsonPath string, args []string) (Config, error) {
	fs := flag.NewFlagSet("jds", flag.ContinueOnError)
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", "", "HTTP port")
	dsl := fs.String("dsl", "", "Path to DSL directory")
	enums := fs.String("enums", "", "Path to enums directory")
	db := fs.String("db", "", "Postgres URL (empty = metadata only)")
	auto := fs.String("auto-migrate", "", "Apply DDL on start (true/false)")
	debug := fs.String("debug", "", "Debug logging (true/false)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := def()
	if st, err := os.Stat(*configPath); err == nil && !st.IsDir() {
		if cfg, err = loadJSON(*configPath, cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = getenv("PORT", cfg.Port)
	cfg.DSLDir = getenv("DSL_DIR", cfg.DSLDir)
	cfg.EnumsDir = getenv("ENUMS_DIR", cfg.EnumsDir)
	cfg.DBURL = getenv("DB_URL", cfg.DBURL)
	cfg.AutoMigrate = getenvBool("AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.Debug = getenvBool("DEBUG", cfg.Debug)

	// только явно переданные флаги
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["port"] {
		cfg.Port = strings.TrimSpace(*port)
	}
	if set["dsl"] {
		cfg.DSLDir = strings.TrimSpace(*dsl)
	}
	if set["enums"] {
		cfg.EnumsDir = strings.TrimSpace(*enums)
	}
	if set["db"] {
		cfg.DBURL = strings.TrimSpace(*db)
	}
	for name, dst := range map[string]*bool{"auto-migrate": &cfg.AutoMigrate, "debug": &cfg.Debug} {
		if !set[name] {
			continue
		}
		v := *auto
		if name == "debug" {
			v = *debug
		}
		b, ok := parseBool(v)
		if !ok {
			return Config{}, fmt.Errorf("-%s: bad bool %q", name, v)
		}
		*dst = b
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("bad port %q", cfg.Port)
	}
	return cfg, nil
}
