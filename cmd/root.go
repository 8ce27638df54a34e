package cmd

import (
	"fmt"
	"github.com/ValentinKolb/davlock/cmd/lock"
	"github.com/ValentinKolb/davlock/cmd/prop"
	"github.com/ValentinKolb/davlock/cmd/serve"
	"github.com/ValentinKolb/davlock/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "davlock",
		Short: "WebDAV lock and property service",
		Long: fmt.Sprintf(`davlock (v%s)

A lock manager for WebDAV servers written in Go. It keeps shared and
exclusive locks with depth and timeouts, plus dead properties, per
namespace and persists both to compressed files.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of davlock",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("davlock v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(prop.PropCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
