package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// overlayEnv overlays environment variables on top of file-based config
func (c *Config) overlayEnv() {
	// Server config
	if host := getEnv("WPANEL_SERVER_HOST", ""); host != "" {
		c.Server.Host = host
	}
	if port := getEnvAsInt("WPANEL_SERVER_PORT", 0); port != 0 {
		c.Server.Port = port
	}
	if readTimeout := getEnvAsDuration("WPANEL_SERVER_READ_TIMEOUT", 0); readTimeout != 0 {
		c.Server.ReadTimeout = readTimeout
	}
	if writeTimeout := getEnvAsDuration("WPANEL_SERVER_WRITE_TIMEOUT", 0); writeTimeout != 0 {
		c.Server.WriteTimeout = writeTimeout
	}
	if tlsCert := getEnv("WPANEL_TLS_CERT", ""); tlsCert != "" {
		c.Server.TLSCert = tlsCert
	}
	if tlsKey := getEnv("WPANEL_TLS_KEY", ""); tlsKey != "" {
		c.Server.TLSKey = tlsKey
	}

	// Backend
	if url := getEnvMulti([]string{"WPANEL_BACKEND_URL", "API_BASE_URL"}, ""); url != "" {
		c.Backend.BaseURL = url
	}
	if timeout := getEnvAsDuration("WPANEL_BACKEND_TIMEOUT", 0); timeout != 0 {
		c.Backend.Timeout = timeout
	}

	// Database config - check multiple env var names
	if host := getEnvMulti([]string{"WPANEL_DB_HOST", "DB_HOST", "POSTGRES_HOST"}, ""); host != "" {
		c.Database.Host = host
	}
	if port := getEnvAsIntMulti([]string{"WPANEL_DB_PORT", "DB_PORT", "POSTGRES_PORT"}, 0); port != 0 {
		c.Database.Port = port
	}
	if name := getEnvMulti([]string{"WPANEL_DB_NAME", "DB_NAME", "POSTGRES_DB"}, ""); name != "" {
		c.Database.Name = name
	}
	if user := getEnvMulti([]string{"WPANEL_DB_USER", "DB_USER", "POSTGRES_USER"}, ""); user != "" {
		c.Database.User = user
	}
	if password := getEnvMulti([]string{"WPANEL_DB_PASSWORD", "DB_PASSWORD", "POSTGRES_PASSWORD"}, ""); password != "" {
		c.Database.Password = password
	}
	if sslmode := getEnv("WPANEL_DB_SSLMODE", ""); sslmode != "" {
		c.Database.SSLMode = sslmode
	}

	// Redis
	if addr := getEnvMulti([]string{"WPANEL_REDIS_ADDR", "REDIS_ADDR"}, ""); addr != "" {
		c.Redis.Addr = addr
	}
	if password := getEnv("WPANEL_REDIS_PASSWORD", ""); password != "" {
		c.Redis.Password = password
	}
	if db := getEnvAsInt("WPANEL_REDIS_DB", -1); db >= 0 {
		c.Redis.DB = db
	}

	// Engine defaults
	if d := getEnvAsDuration("WPANEL_ROTATION_INTERVAL", 0); d != 0 {
		c.Engine.RotationInterval = d
	}
	if d := getEnvAsDuration("WPANEL_POLLING_INTERVAL", 0); d != 0 {
		c.Engine.PollingInterval = d
	}
	if d := getEnvAsDuration("WPANEL_PAGE_INTERVAL", 0); d != 0 {
		c.Engine.PageInterval = d
	}

	// WPANEL_PANELS is a comma separated list of id[:layout] entries. It
	// replaces the panel list from the file.
	if panels := getEnv("WPANEL_PANELS", ""); panels != "" {
		c.Panels = parsePanelList(panels)
	}
}

func parsePanelList(s string) []PanelConfig {
	var panels []PanelConfig
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, layout, _ := strings.Cut(entry, ":")
		panels = append(panels, PanelConfig{
			ID:     strings.TrimSpace(id),
			Layout: strings.TrimSpace(layout),
		})
	}
	return panels
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvMulti(keys []string, fallback string) string {
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsIntMulti(keys []string, fallback int) int {
	v, err := strconv.Atoi(getEnvMulti(keys, ""))
	if err != nil {
		return fallback
	}
	return v
}

// getEnvAsDuration accepts Go duration strings and plain integer seconds
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
