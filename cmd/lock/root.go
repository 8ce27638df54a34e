package lock

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/davlock/cmd/util"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/rpc/client"
	"github.com/spf13/cobra"
	"os"
)

var (
	rpcLockMgr davlock.ILockManager

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:               "lock",
		Short:             "Perform lock operations",
		PersistentPreRunE: setupLockClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the lock command
	util.SetupRPCClientFlags(LockCommands)

	// Add subcommands
	LockCommands.AddCommand(addCmd)
	LockCommands.AddCommand(getCmd)
	LockCommands.AddCommand(listCmd)
	LockCommands.AddCommand(conflictsCmd)
	LockCommands.AddCommand(refreshCmd)
	LockCommands.AddCommand(removeCmd)
	LockCommands.AddCommand(unlockTreeCmd)
	LockCommands.AddCommand(perfTestCmd)
}

// setupLockClient initializes the lock manager client
func setupLockClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the lock manager client
	rpcLockMgr, err = client.NewRPCLockMgr(
		util.GetNamespace(),
		*util.GetClientConfig(),
		t,
		s,
	)

	return err
}

// printLocks writes locks as indented JSON to stdout
func printLocks(locks ...davlock.ActiveLock) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if len(locks) == 1 {
		return enc.Encode(locks[0])
	}
	if locks == nil {
		locks = []davlock.ActiveLock{}
	}
	return enc.Encode(locks)
}

// lockRef builds the lock identified by path and token as expected by
// RefreshLock and RemoveLock
func lockRef(path, token string) (davlock.ActiveLock, error) {
	canonical, err := davlock.CanonicalPath(path)
	if err != nil {
		return davlock.ActiveLock{}, err
	}
	if token == "" {
		return davlock.ActiveLock{}, fmt.Errorf("empty lock token")
	}
	return davlock.ActiveLock{Path: canonical, Token: token}, nil
}
