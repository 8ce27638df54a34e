package prop

import (
	"github.com/ValentinKolb/davlock/cmd/util"
	"github.com/ValentinKolb/davlock/lib/propstore"
	"github.com/ValentinKolb/davlock/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcPropStore propstore.IStore

	// PropCommands represents the property command group
	PropCommands = &cobra.Command{
		Use:               "prop",
		Short:             "Perform dead property operations",
		PersistentPreRunE: setupPropClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the prop command
	util.SetupRPCClientFlags(PropCommands)

	// Add subcommands
	PropCommands.AddCommand(getCmd)
	PropCommands.AddCommand(setCmd)
	PropCommands.AddCommand(removeCmd)
	PropCommands.AddCommand(deleteCmd)
	PropCommands.AddCommand(copyCmd)
	PropCommands.AddCommand(moveCmd)
}

// setupPropClient initializes the property store client
func setupPropClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	rpcPropStore, err = client.NewRPCPropertyStore(
		util.GetNamespace(),
		*util.GetClientConfig(),
		t,
		s,
	)

	return err
}
