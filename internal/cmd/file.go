package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"lanzou-go/internal/lanzou"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	isDir    bool
	descFlag string

	lsCmd = &cobra.Command{
		Use:     "ls [folder_id]",
		Short:   "列出文件夹内容，默认为根目录",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			folderID, err := folderArg(args, 0)
			if err != nil {
				return err
			}
			path, err := client.GetFullPath(ctx, folderID)
			if err != nil {
				return err
			}
			dirs, err := client.GetDirList(ctx, folderID)
			if err != nil {
				return err
			}
			files, err := client.GetFileList(ctx, folderID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatPath(path))
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, d := range dirs {
				fmt.Fprintf(w, "%d\t%s/\t%s\t%s\n", d.ID, d.Name, lockMark(d.HasPwd), d.Desc)
			}
			for _, f := range files {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s 次下载\n", f.ID, f.Name, f.Size, f.Time, humanize.Comma(f.Downs))
			}
			return w.Flush()
		},
	}

	mkdirCmd = &cobra.Command{
		Use:     "mkdir <parent_id> <name>",
		Short:   "创建文件夹，已存在时返回原文件夹 id",
		Args:    cobra.ExactArgs(2),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := client.Mkdir(cmd.Context(), parentID, args[1], descFlag)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	rmCmd = &cobra.Command{
		Use:     "rm <id>",
		Short:   "删除文件，--dir 删除文件夹",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return client.Delete(cmd.Context(), id, !isDir)
		},
	}

	mvCmd = &cobra.Command{
		Use:     "mv <id> <folder_id>",
		Short:   "移动文件，--dir 移动不含子文件夹的文件夹",
		Args:    cobra.ExactArgs(2),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			target, err := parseID(args[1])
			if err != nil {
				return err
			}
			if isDir {
				return client.MoveFolder(cmd.Context(), id, target)
			}
			return client.MoveFile(cmd.Context(), id, target)
		},
	}

	renameCmd = &cobra.Command{
		Use:     "rename <id> <name>",
		Short:   "重命名文件(夹)，文件重命名需要会员",
		Args:    cobra.ExactArgs(2),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if isDir {
				return client.RenameDir(cmd.Context(), id, args[1])
			}
			return client.RenameFile(cmd.Context(), id, args[1])
		},
	}

	passwdCmd = &cobra.Command{
		Use:     "passwd <id> [password]",
		Short:   "设置提取码，不带密码时关闭",
		Args:    cobra.RangeArgs(1, 2),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pwd := ""
			if len(args) == 2 {
				pwd = args[1]
			}
			return client.SetPasswd(cmd.Context(), id, pwd, !isDir)
		},
	}

	descCmd = &cobra.Command{
		Use:     "desc <id> <description>",
		Short:   "设置描述",
		Args:    cobra.ExactArgs(2),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return client.SetDesc(cmd.Context(), id, args[1], !isDir)
		},
	}

	shareCmd = &cobra.Command{
		Use:     "share <id>",
		Short:   "查看分享链接与提取码",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			info, err := client.GetShareInfo(cmd.Context(), id, !isDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "名称: %s\n链接: %s\n", info.Name, info.URL)
			if info.Pwd != "" {
				fmt.Fprintf(out, "提取码: %s\n", info.Pwd)
			}
			if info.Desc != "" {
				fmt.Fprintf(out, "描述: %s\n", info.Desc)
			}
			return nil
		},
	}
)

func formatPath(path []lanzou.PathNode) string {
	names := make([]string, 0, len(path))
	for _, p := range path {
		names = append(names, p.Name)
	}
	return strings.Join(names, " / ")
}

func lockMark(hasPwd bool) string {
	if hasPwd {
		return "[密]"
	}
	return ""
}

func registerFileCommands() {
	mkdirCmd.Flags().StringVarP(&descFlag, "desc", "d", "", "文件夹描述")
	for _, c := range []*cobra.Command{rmCmd, mvCmd, renameCmd, passwdCmd, descCmd, shareCmd} {
		c.Flags().BoolVar(&isDir, "dir", false, "操作对象是文件夹")
	}
	rootCmd.AddCommand(lsCmd, mkdirCmd, rmCmd, mvCmd, renameCmd, passwdCmd, descCmd, shareCmd)
}
