package serve

import (
	"fmt"
	cmdUtil "github.com/ValentinKolb/davlock/cmd/util"
	"github.com/ValentinKolb/davlock/lib/filestore"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/ValentinKolb/davlock/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the davlock server",
		Long:    `Start the davlock server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DAVLOCK_<flag> (e.g. DAVLOCK_MAX_LOCKS=10000)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "namespaces"
	ServeCmd.PersistentFlags().String(key, "default", cmdUtil.WrapString("Comma-separated list of namespaces to serve. Every namespace has its own locks and properties"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("DataDir is the directory of the lock (<namespace>.locks) and property (<namespace>.props) files"))

	key = "write-interval"
	ServeCmd.PersistentFlags().Duration(key, filestore.DefaultWriteInterval, cmdUtil.WrapString("How long changes are collected before they are written to the data directory"))

	key = "default-timeout"
	ServeCmd.PersistentFlags().Uint32(key, 600, cmdUtil.WrapString("Timeout in seconds of locks that are requested without a timeout (0 = infinite)"))

	key = "max-timeout"
	ServeCmd.PersistentFlags().Uint32(key, 0, cmdUtil.WrapString("Upper bound for lock timeouts in seconds, longer and infinite timeouts are clipped (0 = no bound)"))

	key = "max-locks"
	ServeCmd.PersistentFlags().Uint32(key, 0, cmdUtil.WrapString("Maximum number of locks per namespace (0 = unlimited)"))

	key = "max-locks-per-url"
	ServeCmd.PersistentFlags().Uint32(key, 0, cmdUtil.WrapString("Maximum number of locks rooted at a single path (0 = unlimited)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for a single request"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/davlock.sock, ...)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// parse namespaces
	serveCmdConfig.Namespaces = nil
	for _, ns := range strings.Split(viper.GetString("namespaces"), ",") {
		if ns = strings.TrimSpace(ns); ns != "" {
			serveCmdConfig.Namespaces = append(serveCmdConfig.Namespaces, ns)
		}
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.WriteInterval = viper.GetDuration("write-interval")
	serveCmdConfig.DefaultTimeout = viper.GetUint32("default-timeout")
	serveCmdConfig.MaximumTimeout = viper.GetUint32("max-timeout")
	serveCmdConfig.MaximumLocks = viper.GetUint32("max-locks")
	serveCmdConfig.MaximumLocksPerURL = viper.GetUint32("max-locks-per-url")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if err := serveCmdConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// run starts the davlock server
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}
