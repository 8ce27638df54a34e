package lock

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/cmd/util"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/spf13/cobra"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [path]",
		Short: "Creates a new lock",
		Long: util.WrapString(`Creates a write lock (shared with --shared) rooted at path.
Without --lock-timeout the default timeout of the server is used,
--lock-timeout 0 requests an infinite lock. A conflicting lock is printed
and the command fails.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lockType, err := lockTypeFlags(cmd)
			if err != nil {
				return err
			}

			req := davlock.LockRequest{Path: args[0], Type: lockType}
			req.Recursive, _ = cmd.Flags().GetBool("recursive")
			req.OwnerID, _ = cmd.Flags().GetString("owner")
			if data, _ := cmd.Flags().GetString("owner-data"); data != "" {
				req.OwnerData = []byte(data)
			}
			if cmd.Flags().Changed("lock-timeout") {
				timeout, _ := cmd.Flags().GetUint32("lock-timeout")
				req.Timeout = davlock.Seconds(timeout)
			}

			lock, err := rpcLockMgr.AddLock(req)
			var conflict *davlock.ConflictError
			if errors.As(err, &conflict) {
				_ = printLocks(conflict.Lock)
			}
			if err != nil {
				return err
			}
			return printLocks(lock)
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [token] [path]",
		Short: "Prints the lock with the given token, optionally only if it applies to path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			lock, ok, err := rpcLockMgr.GetLock(args[0], path)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("lock %s not found", args[0])
			}
			return printLocks(lock)
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [path]",
		Short: "Lists the locks related to path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFlag(cmd)
			if err != nil {
				return err
			}
			owner, _ := cmd.Flags().GetString("owner")

			var filter func(davlock.ActiveLock) bool
			if owner != "" {
				filter = func(l davlock.ActiveLock) bool { return l.OwnerID == owner }
			}

			locks, err := rpcLockMgr.GetLocks(args[0], sel, filter)
			if err != nil {
				return err
			}
			return printLocks(locks...)
		},
	}
	conflictsCmd = &cobra.Command{
		Use:   "conflicts [path]",
		Short: "Lists the locks that conflict with a new lock on path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFlag(cmd)
			if err != nil {
				return err
			}
			lockType, err := lockTypeFlags(cmd)
			if err != nil {
				return err
			}
			owner, _ := cmd.Flags().GetString("owner")

			locks, err := rpcLockMgr.GetConflictingLocks(args[0], lockType, sel, owner)
			if err != nil {
				return err
			}
			return printLocks(locks...)
		},
	}
	refreshCmd = &cobra.Command{
		Use:   "refresh [path] [token]",
		Short: "Restarts the timeout of a lock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := lockRef(args[0], args[1])
			if err != nil {
				return err
			}
			var timeout *uint32
			if cmd.Flags().Changed("lock-timeout") {
				t, _ := cmd.Flags().GetUint32("lock-timeout")
				timeout = davlock.Seconds(t)
			}

			lock, ok, err := rpcLockMgr.RefreshLock(ref, timeout)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("lock %s not found at %s", args[1], args[0])
			}
			return printLocks(lock)
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [path] [token]",
		Short: "Removes a single lock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := lockRef(args[0], args[1])
			if err != nil {
				return err
			}
			removed, err := rpcLockMgr.RemoveLock(ref)
			if err != nil {
				return err
			}
			fmt.Printf("removed=%v\n", removed)
			return nil
		},
	}
	unlockTreeCmd = &cobra.Command{
		Use:   "unlock-tree [path]",
		Short: "Removes the locks rooted at path (and below with --mode recursive)",
		Long: util.WrapString(`Removes the locks rooted at path. Modes: nonrecursive removes
only the locks on path, recursive also removes the locks of all
descendants, require-empty removes nothing if a descendant is locked.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modeName, _ := cmd.Flags().GetString("mode")
			mode, err := util.ParseRemoveMode(modeName)
			if err != nil {
				return err
			}
			removed, err := rpcLockMgr.RemoveLocks(args[0], mode)
			if err != nil {
				return err
			}
			fmt.Printf("removed=%v\n", removed)
			return nil
		},
	}
)

func init() {
	for _, cmd := range []*cobra.Command{addCmd, conflictsCmd} {
		cmd.Flags().Bool("shared", false, util.WrapString("Use a shared instead of an exclusive lock"))
		cmd.Flags().String("type", "{DAV:}write", util.WrapString("Name of the lock type in Clark notation"))
		cmd.Flags().String("owner", "", util.WrapString("Owner of the lock, locks of the same owner never conflict"))
	}
	addCmd.Flags().Bool("recursive", false, util.WrapString("Lock the whole subtree (depth infinity)"))
	addCmd.Flags().String("owner-data", "", util.WrapString("Owner element stored verbatim with the lock"))
	addCmd.Flags().Uint32("lock-timeout", 0, util.WrapString("Timeout of the lock in seconds (0 = infinite)"))

	refreshCmd.Flags().Uint32("lock-timeout", 0, util.WrapString("New timeout of the lock in seconds (0 = infinite), the last timeout is reused if not set"))

	for _, cmd := range []*cobra.Command{listCmd, conflictsCmd} {
		cmd.Flags().String("select", "applicable", util.WrapString("Locks to consider: self, parent, recursive-ancestors, descendants, ancestors, applicable or all (combine with '|')"))
	}
	listCmd.Flags().String("owner", "", util.WrapString("Only list locks of this owner"))

	unlockTreeCmd.Flags().String("mode", "recursive", util.WrapString("nonrecursive, recursive or require-empty"))
}

// lockTypeFlags reads the lock type from the --type and --shared flags
func lockTypeFlags(cmd *cobra.Command) (davlock.LockType, error) {
	typeName, _ := cmd.Flags().GetString("type")
	shared, _ := cmd.Flags().GetBool("shared")
	name, err := util.ParseQName(typeName)
	if err != nil {
		return davlock.LockType{}, err
	}
	return davlock.NewLockType(name, !shared), nil
}

// selectionFlag reads the --select flag
func selectionFlag(cmd *cobra.Command) (davlock.Selection, error) {
	s, _ := cmd.Flags().GetString("select")
	return util.ParseSelection(s)
}
