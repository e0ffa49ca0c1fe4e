package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Bind       string
	Port       int
	AllowCIDRs []string

	PingInterval          time.Duration
	MessagesTrailingSlash bool
	SessionFallback       bool

	WikidataAPIURL string
	SPARQLEndpoint string
}

const (
	DefaultWikidataAPIURL = "https://www.wikidata.org/w/api.php"
	DefaultSPARQLEndpoint = "https://query.wikidata.org/sparql"
)

func Parse(args []string) (Config, error) {
	cfg := Config{
		Bind:            "0.0.0.0",
		Port:            8000,
		AllowCIDRs:      []string{},
		PingInterval:    15 * time.Second,
		SessionFallback: true,
		WikidataAPIURL:  DefaultWikidataAPIURL,
		SPARQLEndpoint:  DefaultSPARQLEndpoint,
	}

	// Hosted deployments hand the port over via the environment.
	if raw := os.Getenv("PORT"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, errors.New("PORT must be an integer")
		}
		cfg.Port = v
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := ""
		if i+1 < len(args) {
			next = args[i+1]
		}

		switch {
		case arg == "--bind" && next != "":
			cfg.Bind = next
			i++
		case strings.HasPrefix(arg, "--bind="):
			cfg.Bind = strings.TrimPrefix(arg, "--bind=")
		case arg == "--port" && next != "":
			v, err := strconv.Atoi(next)
			if err != nil {
				return Config{}, errors.New("port must be an integer")
			}
			cfg.Port = v
			i++
		case strings.HasPrefix(arg, "--port="):
			v, err := strconv.Atoi(strings.TrimPrefix(arg, "--port="))
			if err != nil {
				return Config{}, errors.New("port must be an integer")
			}
			cfg.Port = v
		case arg == "--ping-interval" && next != "":
			d, err := time.ParseDuration(next)
			if err != nil {
				return Config{}, errors.New("ping-interval must be a duration (e.g. 15s)")
			}
			cfg.PingInterval = d
			i++
		case strings.HasPrefix(arg, "--ping-interval="):
			d, err := time.ParseDuration(strings.TrimPrefix(arg, "--ping-interval="))
			if err != nil {
				return Config{}, errors.New("ping-interval must be a duration (e.g. 15s)")
			}
			cfg.PingInterval = d
		case arg == "--messages-trailing-slash":
			cfg.MessagesTrailingSlash = true
		case arg == "--no-session-fallback":
			cfg.SessionFallback = false
		case arg == "--allow-cidr" && next != "":
			cfg.AllowCIDRs = append(cfg.AllowCIDRs, next)
			i++
		case strings.HasPrefix(arg, "--allow-cidr="):
			cfg.AllowCIDRs = append(cfg.AllowCIDRs, strings.TrimPrefix(arg, "--allow-cidr="))
		case arg == "--api-url" && next != "":
			cfg.WikidataAPIURL = next
			i++
		case strings.HasPrefix(arg, "--api-url="):
			cfg.WikidataAPIURL = strings.TrimPrefix(arg, "--api-url=")
		case arg == "--sparql-url" && next != "":
			cfg.SPARQLEndpoint = next
			i++
		case strings.HasPrefix(arg, "--sparql-url="):
			cfg.SPARQLEndpoint = strings.TrimPrefix(arg, "--sparql-url=")
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, errors.New("port must be between 1 and 65535")
	}
	if cfg.PingInterval <= 0 {
		return Config{}, errors.New("ping-interval must be positive")
	}

	for _, cidr := range cfg.AllowCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return Config{}, fmt.Errorf("invalid CIDR: %s", cidr)
		}
	}

	return cfg, nil
}

// MessagesPath is the inbound message endpoint advertised to clients in the
// initial endpoint frame. Some MCP clients expect the trailing-slash form.
func (c Config) MessagesPath() string {
	if c.MessagesTrailingSlash {
		return "/messages/"
	}
	return "/messages"
}

func IsAllowedClient(ip net.IP, allowCIDRs []string) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() {
		return true
	}
	if len(allowCIDRs) == 0 {
		return true
	}
	for _, cidr := range allowCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
