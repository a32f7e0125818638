package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"lanzou-go/internal/helpers"
	"lanzou-go/internal/lanzou"

	"github.com/spf13/cobra"
)

var (
	sharePwd string
	saveDir  string
	byID     bool
	noMkdir  bool

	uploadCmd = &cobra.Command{
		Use:     "upload <path> [folder_id]",
		Short:   "上传文件或目录，超过大小上限的文件分卷上传",
		Args:    cobra.RangeArgs(1, 2),
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID, err := folderArg(args, 1)
			if err != nil {
				return err
			}
			progress := newProgressPrinter(cmd.OutOrStdout())
			var result *lanzou.BatchResult
			if helpers.IsDir(args[0]) {
				result, err = client.UploadDir(cmd.Context(), args[0], folderID, progress.Report)
			} else {
				result, err = client.UploadFile(cmd.Context(), args[0], folderID, progress.Report)
			}
			if err != nil {
				return err
			}
			return reportBatch(cmd.OutOrStdout(), "上传", result)
		},
	}

	downloadCmd = &cobra.Command{
		Use:   "download <url|id>",
		Short: "下载分享链接，--id 时按网盘中的 id 下载(需登录)",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if byID {
				return requireLogin(cmd, args)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := saveDir
			if dir == "" {
				dir = helpers.GlobalConfig.LanZou.DownloadDir
			}
			progress := newProgressPrinter(cmd.OutOrStdout())

			if byID {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if !isDir {
					return client.DownFileByID(ctx, id, dir, progress.Report)
				}
				result, err := client.DownDirByID(ctx, id, dir, progress.Report, !noMkdir)
				if err != nil && result == nil {
					return err
				}
				return errors.Join(reportBatch(cmd.OutOrStdout(), "下载", result), err)
			}

			switch {
			case client.IsFileURL(args[0]):
				return client.DownFileByURL(ctx, args[0], sharePwd, dir, progress.Report)
			case client.IsFolderURL(args[0]):
				result, err := client.DownDirByURL(ctx, args[0], sharePwd, dir, progress.Report, !noMkdir)
				if err != nil && result == nil {
					return err
				}
				return errors.Join(reportBatch(cmd.OutOrStdout(), "下载", result), err)
			}
			return lanzou.NewAPIError(lanzou.URL_INVALID, "不是有效的分享链接: "+args[0])
		},
	}

	durlCmd = &cobra.Command{
		Use:   "durl <url|id>",
		Short: "获取文件直链",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if byID {
				return requireLogin(cmd, args)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var link *lanzou.DirectLink
			if byID {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if link, err = client.GetDurlByID(cmd.Context(), id); err != nil {
					return err
				}
			} else {
				var err error
				if link, err = client.GetDurlByURL(cmd.Context(), args[0], sharePwd); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", link.Name, link.Durl)
			return nil
		},
	}

	infoCmd = &cobra.Command{
		Use:   "info <url>",
		Short: "查看分享链接的文件(夹)信息",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if client.IsFolderURL(args[0]) {
				info, err := client.GetFolderInfoByURL(ctx, args[0], sharePwd)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "文件夹: %s  %s  %s\n", info.Folder.Name, info.Folder.Time, info.Folder.Desc)
				for _, f := range info.Files {
					fmt.Fprintf(out, "  %s\t%s\t%s\t%s\n", f.Name, f.Size, f.Time, f.URL)
				}
				return nil
			}
			info, err := client.GetFileInfoByURL(ctx, args[0], sharePwd)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "名称: %s\n大小: %s\n时间: %s\n描述: %s\n直链: %s\n", info.Name, info.Size, info.Time, info.Desc, info.Durl)
			return nil
		},
	}
)

// reportBatch 打印批量结果，有失败项时返回错误
func reportBatch(out io.Writer, action string, result *lanzou.BatchResult) error {
	if result == nil || len(result.Failed) == 0 {
		return nil
	}
	fmt.Fprintf(out, "%s失败 %d 项:\n", action, len(result.Failed))
	for _, f := range result.Failed {
		target := f.URL
		if target == "" && f.ID != 0 {
			target = "#" + strconv.FormatInt(f.ID, 10)
		}
		fmt.Fprintf(out, "  %s %s (%s)\n", f.Name, target, f.Code)
	}
	return lanzou.NewAPIError(result.Code, fmt.Sprintf("%s部分失败", action))
}

func registerTransferCommands() {
	for _, c := range []*cobra.Command{downloadCmd, durlCmd, infoCmd} {
		c.Flags().StringVarP(&sharePwd, "pwd", "p", "", "提取码")
	}
	for _, c := range []*cobra.Command{downloadCmd, durlCmd} {
		c.Flags().BoolVar(&byID, "id", false, "参数是网盘中的 id")
	}
	downloadCmd.Flags().StringVarP(&saveDir, "output", "o", "", "保存目录，默认使用配置中的 downloadDir")
	downloadCmd.Flags().BoolVar(&isDir, "dir", false, "按 id 下载文件夹")
	downloadCmd.Flags().BoolVar(&noMkdir, "no-mkdir", false, "下载文件夹时不创建同名子目录")
	rootCmd.AddCommand(uploadCmd, downloadCmd, durlCmd, infoCmd)
}
