package lanzou

import (
	"context"
	"net/http"
	"net/url"

	"lanzou-go/internal/helpers"
)

// Login 账号密码登录控制台，成功后会话 cookie 保存在客户端中
func (c *Client) Login(ctx context.Context, username, password string) error {
	html, err := c.getPage(ctx, c.accountURL(), nil)
	if err != nil {
		return err
	}
	formhash, ok := c.extractor.Extract(PageConsole, html).Get(FieldFormhash)
	if !ok {
		return NewAPIError(FAILED, "formhash not found on login page")
	}

	form := map[string]string{
		"action":   "login",
		"task":     "login",
		"username": username,
		"password": password,
		"formhash": formhash,
	}
	body, err := c.postForm(ctx, c.accountURL(), form)
	if err != nil {
		return err
	}
	if !c.extractor.Extract(PageConsole, string(body)).Has(FieldLoginOK) {
		helpers.LanZouLog.Warnf("用户 %s 登录失败", username)
		return NewAPIError(FAILED, "login failed")
	}
	helpers.LanZouLog.Infof("用户 %s 登录成功", username)
	return nil
}

// LoginByCookie 使用已保存的 cookie 恢复会话
func (c *Client) LoginByCookie(ctx context.Context, cookies map[string]string) error {
	u, err := url.Parse(c.consoleHost)
	if err != nil {
		return newAPIErrorf(FAILED, "invalid console host: %v", err)
	}
	list := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		list = append(list, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	c.client.CookieJar().SetCookies(u, list)

	html, err := c.getPage(ctx, c.accountURL(), nil)
	if err != nil {
		return err
	}
	if c.extractor.Extract(PageConsole, html).Has(FieldLoginPage) {
		return NewAPIError(FAILED, "cookie expired")
	}
	helpers.LanZouLog.Info("cookie 登录成功")
	return nil
}

// GetCookie 当前控制台会话的 cookie
func (c *Client) GetCookie() map[string]string {
	result := make(map[string]string)
	u, err := url.Parse(c.consoleHost)
	if err != nil {
		return result
	}
	for _, ck := range c.client.CookieJar().Cookies(u) {
		result[ck.Name] = ck.Value
	}
	return result
}

func (c *Client) Logout(ctx context.Context) error {
	html, err := c.getPage(ctx, c.accountURL(), map[string]string{"action": "logout"})
	if err != nil {
		return err
	}
	if !c.extractor.Extract(PageConsole, html).Has(FieldLogoutOK) {
		return NewAPIError(FAILED, "logout failed")
	}
	return nil
}
