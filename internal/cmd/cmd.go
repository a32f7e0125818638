// Package cmd 命令行入口
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"lanzou-go/internal/helpers"
	"lanzou-go/internal/lanzou"

	"github.com/spf13/cobra"
)

var (
	configDir string
	envFile   string
	verbose   bool

	// client 在 PersistentPreRunE 中创建
	client *lanzou.Client

	rootCmd = &cobra.Command{
		Use:           "lanzou",
		Short:         "蓝奏云命令行客户端",
		Version:       helpers.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if client != nil {
				client.Close()
			}
			helpers.CloseLogger()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "配置目录，默认为用户配置目录下的 lanzou-go")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "环境变量文件")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "日志同时输出到控制台")

	registerAuthCommands()
	registerFileCommands()
	registerTransferCommands()
	registerRecycleCommands()
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "错误: %v\n", err)
	}
	return err
}

func setup() error {
	if configDir != "" {
		helpers.ConfigDir = configDir
	}
	if err := helpers.LoadEnvFromFile(envFile); err != nil {
		return fmt.Errorf("读取环境变量文件失败: %w", err)
	}
	if err := helpers.InitConfig(); err != nil {
		return err
	}
	if err := helpers.InitLoggers(verbose); err != nil {
		return err
	}
	c, err := lanzou.NewClientFromConfig(helpers.GlobalConfig)
	if err != nil {
		return err
	}
	client = c
	helpers.AppLogger.Infof("lanzou-go %s 启动，配置目录 %s", helpers.Version, helpers.ConfigDir)
	return nil
}

// parseID 解析文件(夹) id，-1 表示根目录
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("无效的 id: %s", s)
	}
	return id, nil
}

// folderArg 可选的文件夹参数，缺省为根目录
func folderArg(args []string, idx int) (int64, error) {
	if len(args) <= idx {
		return lanzou.ROOT_FOLDER_ID, nil
	}
	return parseID(args[idx])
}
