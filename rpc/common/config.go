package common

import (
	"fmt"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of a lock server.
type ServerConfig struct {
	// Namespaces served by the server, every namespace has its own lock
	// manager and property store
	Namespaces []string

	// Storage
	DataDir       string
	WriteInterval time.Duration

	// Lock manager parameters (0 = unlimited)
	DefaultTimeout     uint32
	MaximumTimeout     uint32
	MaximumLocks       uint32
	MaximumLocksPerURL uint32

	// timeout for a single request
	TimeoutSecond int64

	// HTTP api settings
	Endpoint string

	// Logging configuration
	LogLevel string
}

// Validate checks the configuration for obvious mistakes
func (c *ServerConfig) Validate() error {
	if len(c.Namespaces) == 0 {
		return fmt.Errorf("no namespaces configured")
	}
	seen := make(map[string]bool, len(c.Namespaces))
	for _, ns := range c.Namespaces {
		if err := ValidateNamespace(ns); err != nil {
			return err
		}
		if seen[ns] {
			return fmt.Errorf("duplicate namespace %q", ns)
		}
		seen[ns] = true
	}
	if c.Endpoint == "" {
		return fmt.Errorf("no endpoint configured")
	}
	if c.DataDir == "" {
		return fmt.Errorf("no data directory configured")
	}
	if c.MaximumTimeout != 0 && c.DefaultTimeout > c.MaximumTimeout {
		return fmt.Errorf("default timeout %d exceeds maximum timeout %d", c.DefaultTimeout, c.MaximumTimeout)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ValidateNamespace checks that a namespace can be used as file name and URL path segment
func ValidateNamespace(ns string) error {
	if ns == "" || ns == "." || ns == ".." {
		return fmt.Errorf("invalid namespace %q", ns)
	}
	for _, r := range ns {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("invalid namespace %q: only letters, digits, '-', '_' and '.' are allowed", ns)
		}
	}
	return nil
}

// LockConfig returns the lock manager configuration of a namespace
func (c *ServerConfig) LockConfig(namespace string) davlock.Config {
	config := davlock.DefaultConfig()
	config.Name = namespace
	config.DefaultTimeout = c.DefaultTimeout
	config.MaximumTimeout = c.MaximumTimeout
	config.MaximumLocks = c.MaximumLocks
	config.MaximumLocksPerURL = c.MaximumLocksPerURL
	return config
}

// LockFile returns the path of the lock file of a namespace
func (c *ServerConfig) LockFile(namespace string) string {
	return filepath.Join(c.DataDir, namespace+".locks")
}

// PropertyFile returns the path of the property file of a namespace
func (c *ServerConfig) PropertyFile(namespace string) string {
	return filepath.Join(c.DataDir, namespace+".props")
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	limit := func(v uint32, unit string) string {
		if v == 0 {
			return "unlimited"
		}
		return strings.TrimSpace(fmt.Sprintf("%d %s", v, unit))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Locks
	addSection("Locks")
	addField("Default Timeout", limit(c.DefaultTimeout, "sec"))
	addField("Maximum Timeout", limit(c.MaximumTimeout, "sec"))
	addField("Maximum Locks", limit(c.MaximumLocks, ""))
	addField("Maximum Locks Per URL", limit(c.MaximumLocksPerURL, ""))

	// Storage
	addSection("Storage")
	addField("Data Directory", c.DataDir)
	addField("Write Interval", c.WriteInterval.String())

	// Namespaces
	addSection("Namespaces")
	for i, ns := range c.Namespaces {
		addField(strconv.Itoa(i), fmt.Sprintf("%s (%s, %s)", ns, c.LockFile(ns), c.PropertyFile(ns)))
	}
	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	RetryCount             int
	ConnectionsPerEndpoint int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
