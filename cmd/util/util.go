package util

import (
	"fmt"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/ValentinKolb/davlock/rpc/serializer"
	"github.com/ValentinKolb/davlock/rpc/transport"
	"github.com/ValentinKolb/davlock/rpc/transport/http"
	"github.com/ValentinKolb/davlock/rpc/transport/socket"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (DAVLOCK_<flag>)
	EnvPrefix = "davlock"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += len(word)
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "http://localhost:8080", WrapString("The address of the davlock server. For transports that support load balancing, multiple endpoints can be specified as a comma-separated list"))

	key = "transport-conn-per-endpoint"
	cmd.PersistentFlags().Int(key, 1, WrapString("Simultaneous connections per endpoint - for transports that support this feature"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry the request"))

	key = "namespace"
	cmd.PersistentFlags().String(key, "default", WrapString("The namespace (lock manager and property store) to use"))
}

// InitConfig loads .env files and makes viper read DAVLOCK_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	var endpoints []string
	for _, endpoint := range strings.Split(viper.GetString("transport-endpoints"), ",") {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			endpoints = append(endpoints, endpoint)
		}
	}

	return &common.ClientConfig{
		Endpoints:              endpoints,
		TimeoutSecond:          viper.GetInt("timeout"),
		RetryCount:             viper.GetInt("transport-retries"),
		ConnectionsPerEndpoint: viper.GetInt("transport-conn-per-endpoint"),
	}
}

// GetNamespace retrieves the configured namespace
func GetNamespace() string {
	return viper.GetString("namespace")
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetTransport creates the client transport based on configuration
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpClientTransport(), nil
	case "tcp":
		return socket.NewTCPClientTransport(), nil
	case "unix":
		return socket.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates the server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpServerTransport(), nil
	case "tcp":
		return socket.NewTCPServerTransport(), nil
	case "unix":
		return socket.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Argument parsing
// --------------------------------------------------------------------------

// ParseSelection parses a list of selection names separated by '|' or ','
// (self, parent, recursive-ancestors, descendants, ancestors, applicable, all)
func ParseSelection(s string) (davlock.Selection, error) {
	var sel davlock.Selection
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		switch strings.TrimSpace(part) {
		case "self":
			sel |= davlock.SelectSelf
		case "parent":
			sel |= davlock.SelectParent
		case "recursive-ancestors":
			sel |= davlock.SelectRecursiveAncestors
		case "descendants":
			sel |= davlock.SelectDescendants
		case "ancestors":
			sel |= davlock.SelectAncestors
		case "applicable":
			sel |= davlock.SelectApplicable
		case "all":
			sel |= davlock.SelectAll
		default:
			return 0, fmt.Errorf("invalid selection %q", part)
		}
	}
	if sel == 0 {
		return 0, fmt.Errorf("empty selection")
	}
	return sel, nil
}

// ParseRemoveMode parses nonrecursive, recursive or require-empty
func ParseRemoveMode(s string) (davlock.RemoveMode, error) {
	for _, mode := range []davlock.RemoveMode{davlock.RemoveNonRecursive, davlock.RemoveRecursive, davlock.RemoveRequireEmpty} {
		if mode.String() == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("invalid remove mode %q (expected nonrecursive, recursive or require-empty)", s)
}

// ParseQName parses a property or lock type name in Clark notation
// ("{namespace}local"), a name without braces has no namespace
func ParseQName(s string) (davlock.QName, error) {
	if !strings.HasPrefix(s, "{") {
		if s == "" {
			return davlock.QName{}, fmt.Errorf("empty name")
		}
		return davlock.QName{Local: s}, nil
	}
	end := strings.IndexByte(s, '}')
	if end < 0 || end == len(s)-1 {
		return davlock.QName{}, fmt.Errorf("invalid name %q (expected {namespace}local)", s)
	}
	return davlock.QName{Space: s[1:end], Local: s[end+1:]}, nil
}
