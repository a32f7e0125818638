package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	recycleCmd = &cobra.Command{
		Use:     "recycle",
		Short:   "回收站",
		Aliases: []string{"rec"},
	}

	recycleListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "列出回收站",
		Aliases: []string{"list"},
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, folders, err := client.GetRecAll(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, d := range folders {
				fmt.Fprintf(w, "%d\t%s/\t%s\t%s\n", d.ID, d.Name, d.Size, d.Time)
				for _, f := range d.Files {
					fmt.Fprintf(w, "%d\t  %s\t%s\t%s\n", f.ID, f.Name, f.Size, f.Time)
				}
			}
			for _, f := range files {
				fmt.Fprintf(w, "%d\t%s\t\t%s\n", f.ID, f.Name, f.Time)
			}
			return w.Flush()
		},
	}

	recycleRmCmd = &cobra.Command{
		Use:     "rm <id>",
		Short:   "彻底删除",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return client.DeleteRec(cmd.Context(), id, !isDir)
		},
	}

	recycleRestoreCmd = &cobra.Command{
		Use:     "restore <id>",
		Short:   "恢复",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return client.Recovery(cmd.Context(), id, !isDir)
		},
	}

	recycleCleanCmd = &cobra.Command{
		Use:     "clean",
		Short:   "清空回收站",
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.CleanRec(cmd.Context())
		},
	}
)

func registerRecycleCommands() {
	for _, c := range []*cobra.Command{recycleRmCmd, recycleRestoreCmd} {
		c.Flags().BoolVar(&isDir, "dir", false, "操作对象是文件夹")
	}
	recycleCmd.AddCommand(recycleListCmd, recycleRmCmd, recycleRestoreCmd, recycleCleanCmd)
	rootCmd.AddCommand(recycleCmd)
}
