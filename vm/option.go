package vm

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ava-labs/hypersdk/api"
	"github.com/ava-labs/hypersdk/vm"
)

const Namespace = "controller"

const DefaultMaxPageSize uint32 = 1_024

type Config struct {
	Enabled     bool   `json:"enabled"`
	MaxPageSize uint32 `json:"maxPageSize"`
}

func NewDefaultConfig() Config {
	return Config{
		Enabled:     true,
		MaxPageSize: DefaultMaxPageSize,
	}
}

func With() vm.Option {
	return vm.NewOption(Namespace, NewDefaultConfig(), func(v api.VM, config Config) (vm.Opt, error) {
		config = ResolveConfig(config)
		v.Logger().Info("tenkvm api config",
			zap.Bool("enabled", config.Enabled),
			zap.Uint32("maxPageSize", config.MaxPageSize),
		)
		if !config.Enabled {
			return vm.NewOpt(), nil
		}
		return vm.WithVMAPIs(jsonRPCServerFactory{maxPageSize: config.MaxPageSize}), nil
	})
}

// ResolveConfig applies the TENK_API_* environment overrides to cfg.
func ResolveConfig(cfg Config) Config {
	if v, ok := parseEnvBool("TENK_API_ENABLED"); ok {
		cfg.Enabled = v
	}
	if v, ok := getEnv("TENK_API_MAX_PAGE_SIZE"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.MaxPageSize = uint32(n)
		}
	}
	if cfg.MaxPageSize == 0 {
		cfg.MaxPageSize = DefaultMaxPageSize
	}
	return cfg
}

func parseEnvBool(name string) (bool, bool) {
	v, ok := getEnv(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true, true
	case "0", "false", "f", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

func getEnv(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return getParentProcessEnv(name)
	}
	return v, true
}

// getParentProcessEnv covers plugin subprocesses launched without the node's
// environment.
func getParentProcessEnv(name string) (string, bool) {
	blob, err := os.ReadFile("/proc/1/environ")
	if err != nil || len(blob) == 0 {
		return "", false
	}
	target := name + "="
	for _, entry := range strings.Split(string(blob), "\x00") {
		if strings.HasPrefix(entry, target) {
			v := strings.TrimSpace(strings.TrimPrefix(entry, target))
			if v == "" {
				return "", false
			}
			return v, true
		}
	}
	return "", false
}
