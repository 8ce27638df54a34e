package prop

import (
	"fmt"
	"github.com/ValentinKolb/davlock/cmd/util"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/lib/propstore"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [path] [name]",
		Short: "Prints all properties of path or a single one in Clark notation ({namespace}local)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				name, err := util.ParseQName(args[1])
				if err != nil {
					return err
				}
				value, ok, err := rpcPropStore.GetProperty(args[0], name)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("property %s not found", name)
				}
				fmt.Println(string(value))
				return nil
			}

			props, err := rpcPropStore.Get(args[0])
			if err != nil {
				return err
			}
			for _, p := range common.PropertyList(props) {
				fmt.Printf("%s=%s\n", p.Name, p.Value)
			}
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [path] [name] [value]",
		Short: "Sets a property, the value is stored verbatim",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := util.ParseQName(args[1])
			if err != nil {
				return err
			}
			if err := rpcPropStore.Set(args[0], propstore.Properties{name: []byte(args[2])}, nil); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [path] [name]...",
		Short: "Removes properties of path",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]davlock.QName, 0, len(args)-1)
			for _, arg := range args[1:] {
				name, err := util.ParseQName(arg)
				if err != nil {
					return err
				}
				names = append(names, name)
			}
			if err := rpcPropStore.Set(args[0], nil, names); err != nil {
				return err
			}
			fmt.Println("removed successfully")
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [path]",
		Short: "Deletes all properties of path (and of all descendants with --recursive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recursive, _ := cmd.Flags().GetBool("recursive")
			n, err := rpcPropStore.Delete(args[0], recursive)
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%d\n", n)
			return nil
		},
	}
	copyCmd = &cobra.Command{
		Use:   "copy [src] [dst]",
		Short: "Copies the properties of src (and of all descendants with --recursive) to dst",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recursive, _ := cmd.Flags().GetBool("recursive")
			n, err := rpcPropStore.Copy(args[0], args[1], recursive)
			if err != nil {
				return err
			}
			fmt.Printf("copied=%d\n", n)
			return nil
		},
	}
	moveCmd = &cobra.Command{
		Use:   "move [src] [dst]",
		Short: "Moves the properties of src and all descendants to dst",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := rpcPropStore.Move(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("moved=%d\n", n)
			return nil
		},
	}
)

func init() {
	deleteCmd.Flags().Bool("recursive", false, util.WrapString("Also delete the properties of all descendants"))
	copyCmd.Flags().Bool("recursive", false, util.WrapString("Also copy the properties of all descendants"))
}
