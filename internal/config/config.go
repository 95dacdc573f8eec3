// Package config loads the typed Config struct from environment variables,
// the only configuration surface this repository recognizes (spec.md §1
// Non-goals: "packaging, CLI, env-var loading ... " is scoped to the admin
// collaborator's concerns, not the core's own startup). The shape mirrors
// the teacher's managerConfiguration: one flat struct built once at start.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is every environment-recognized option from spec.md §6.
type Config struct {
	GRPCHost string
	GRPCPort int

	TCPHost string
	TCPPort int

	UDPHost string
	UDPPort int

	RedisHost string
	RedisPort int

	EnableGRPC       bool
	EnableTCP        bool
	EnableRUDP       bool
	EnableMonitoring bool

	JWTSecretKey string

	LogRetentionDays int
	LogMaxFileSizeMB int
	LogJSONFormat    bool
	LogDebugMode     bool
}

// ErrNoServerEnabled is the spec's exit-code-1 condition: at least one
// protocol server must be enabled.
var ErrNoServerEnabled = fmt.Errorf("config: at least one of ENABLE_GRPC, ENABLE_TCP, ENABLE_RUDP must be true")

// ErrWeakJWTSecret guards the ">=256 bits" requirement on JWT_SECRET_KEY.
var ErrWeakJWTSecret = fmt.Errorf("config: JWT_SECRET_KEY must be at least 32 bytes (256 bits)")

// Load reads Config from the process environment and validates it. A
// non-nil error here is always a fatal-config condition (spec.md §6 exit
// code 1).
func Load() (Config, error) {
	c := Config{
		GRPCHost: getString("grpc_host", "127.0.0.1"),
		GRPCPort: getInt("grpc_port", 50051),

		TCPHost: getString("tcp_host", "127.0.0.1"),
		TCPPort: getInt("tcp_port", 4000),

		UDPHost: getString("udp_host", "127.0.0.1"),
		UDPPort: getInt("udp_port", 5000),

		RedisHost: getString("redis_host", "127.0.0.1"),
		RedisPort: getInt("redis_port", 6379),

		EnableGRPC:       getBool("ENABLE_GRPC", true),
		EnableTCP:        getBool("ENABLE_TCP", true),
		EnableRUDP:       getBool("ENABLE_RUDP", true),
		EnableMonitoring: getBool("ENABLE_MONITORING", false),

		JWTSecretKey: os.Getenv("JWT_SECRET_KEY"),

		LogRetentionDays: getInt("LOG_RETENTION_DAYS", 7),
		LogMaxFileSizeMB: getInt("LOG_MAX_FILE_SIZE", 100),
		LogJSONFormat:    getBool("LOG_JSON_FORMAT", false),
		LogDebugMode:     getBool("LOG_DEBUG_MODE", false),
	}

	if !c.EnableGRPC && !c.EnableTCP && !c.EnableRUDP {
		return c, ErrNoServerEnabled
	}

	if c.EnableGRPC && len(c.JWTSecretKey) < 32 {
		return c, ErrWeakJWTSecret
	}

	return c, nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
