package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"lanzou-go/internal/helpers"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func cookiePath() string {
	return helpers.ConfigPath(helpers.GlobalConfig.LanZou.CookieFile)
}

func loadCookies(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cookies := make(map[string]string)
	if err := sonic.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("解析 cookie 文件失败: %w", err)
	}
	return cookies, nil
}

func saveCookies(path string, cookies map[string]string) error {
	data, err := sonic.Marshal(cookies)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	// cookie 等同于登录凭据
	return os.WriteFile(path, data, 0600)
}

// requireLogin 用保存的 cookie 恢复会话，作为需要登录的命令的 PreRunE
func requireLogin(cmd *cobra.Command, args []string) error {
	cookies, err := loadCookies(cookiePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.New("尚未登录，请先执行 lanzou login")
		}
		return err
	}
	if err := client.LoginByCookie(cmd.Context(), cookies); err != nil {
		return fmt.Errorf("登录已失效，请重新执行 lanzou login: %w", err)
	}
	return nil
}

var (
	loginUser string
	loginPwd  string

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "账号密码登录，或通过 --cookie-file 导入浏览器 cookie",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if importFile, _ := cmd.Flags().GetString("cookie-file"); importFile != "" {
				cookies, err := loadCookies(importFile)
				if err != nil {
					return err
				}
				if err := client.LoginByCookie(ctx, cookies); err != nil {
					return err
				}
			} else {
				user, pwd := loginUser, loginPwd
				if user == "" {
					user = os.Getenv("LANZOU_USERNAME")
				}
				if pwd == "" {
					pwd = os.Getenv("LANZOU_PASSWORD")
				}
				if user == "" || pwd == "" {
					return errors.New("缺少用户名或密码，可通过 -u/-p 或 LANZOU_USERNAME/LANZOU_PASSWORD 指定")
				}
				if err := client.Login(ctx, user, pwd); err != nil {
					return err
				}
			}
			if err := saveCookies(cookiePath(), client.GetCookie()); err != nil {
				return fmt.Errorf("保存 cookie 失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "登录成功")
			return nil
		},
	}

	logoutCmd = &cobra.Command{
		Use:     "logout",
		Short:   "退出登录并删除保存的 cookie",
		PreRunE: requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			if err := os.Remove(cookiePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "已退出")
			return nil
		},
	}
)

func registerAuthCommands() {
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "用户名")
	loginCmd.Flags().StringVarP(&loginPwd, "password", "p", "", "密码")
	loginCmd.Flags().String("cookie-file", "", "从 JSON 文件导入 cookie")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
