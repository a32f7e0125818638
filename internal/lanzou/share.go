package lanzou

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"lanzou-go/internal/helpers"

	"resty.dev/v3"
)

var (
	fileSharePath   = regexp.MustCompile(`^/i[a-z0-9]{6,}/?$`)
	folderSharePath = regexp.MustCompile(`^/b[a-z0-9]{7,}/?$`)
)

// 解析文件分享链接时的状态
type resolveState int

const (
	stateStart resolveState = iota
	stateFetchedPage
	statePasswordRequired
	statePasswordSubmitted
	stateNoPasswordNeeded
	stateTokenExtracted
	stateRedirectResolved
	stateDone
)

func (s resolveState) String() string {
	switch s {
	case stateStart:
		return "START"
	case stateFetchedPage:
		return "FETCHED_PAGE"
	case statePasswordRequired:
		return "PASSWORD_REQUIRED"
	case statePasswordSubmitted:
		return "PASSWORD_SUBMITTED"
	case stateNoPasswordNeeded:
		return "NO_PASSWORD_NEEDED"
	case stateTokenExtracted:
		return "TOKEN_EXTRACTED"
	case stateRedirectResolved:
		return "REDIRECT_RESOLVED"
	case stateDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// IsFileURL 文件分享链接，如 https://www.lanzous.com/i1a2b3c
func (c *Client) IsFileURL(shareURL string) bool {
	return c.matchShareURL(shareURL, fileSharePath)
}

// IsFolderURL 文件夹分享链接，如 https://www.lanzous.com/b1a2b3c4
func (c *Client) IsFolderURL(shareURL string) bool {
	return c.matchShareURL(shareURL, folderSharePath)
}

func (c *Client) matchShareURL(shareURL string, pathPattern *regexp.Regexp) bool {
	u, err := url.Parse(shareURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return false
	}
	return c.isShareHost(u.Host) && pathPattern.MatchString(u.Path)
}

// isShareHost 允许配置的域名及其同一主域下的其它子域名，控制台返回的链接可能不在 www 下
func (c *Client) isShareHost(host string) bool {
	if strings.EqualFold(host, c.shareHostName) {
		return true
	}
	base := registrableDomain(c.shareHostName)
	if base == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(host), "."+base)
}

func registrableDomain(host string) string {
	if strings.Contains(host, ":") || net.ParseIP(host) != nil {
		return ""
	}
	labels := strings.Split(strings.ToLower(host), ".")
	if len(labels) < 2 {
		return ""
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// GetFileInfoByURL 解析文件分享链接，返回文件信息和直链
func (c *Client) GetFileInfoByURL(ctx context.Context, shareURL, pwd string) (*FileShareInfo, error) {
	state := stateStart
	fail := func(err error) (*FileShareInfo, error) {
		helpers.LanZouLog.Warnf("解析分享链接 %s 失败 [%s]: %v", shareURL, state, err)
		return nil, fmt.Errorf("%s: %w", state, err)
	}

	if !c.IsFileURL(shareURL) {
		return fail(newAPIErrorf(URL_INVALID, "not a file share url: %s", shareURL))
	}

	firstPage, err := c.getPage(ctx, shareURL, nil)
	if err != nil {
		return fail(err)
	}
	state = stateFetchedPage
	page := c.extractor.Extract(PageFileShare, firstPage)
	if page.Has(FieldCancelled) {
		return fail(NewAPIError(FILE_CANCELLED, "share cancelled"))
	}

	info := &FileShareInfo{Pwd: pwd, URL: shareURL}
	var link *LinkInfo
	if page.Has(FieldNeedPassword) {
		state = statePasswordRequired
		if pwd == "" {
			return fail(NewAPIError(LACK_PASSWORD, "password required"))
		}
		link, err = c.submitPassword(ctx, shareURL, page, pwd, info)
		if err != nil {
			return fail(err)
		}
		state = statePasswordSubmitted
	} else {
		state = stateNoPasswordNeeded
		link, err = c.submitFrameSign(ctx, page, info)
		if err != nil {
			return fail(err)
		}
	}
	state = stateTokenExtracted

	// 重定向前的假直链存在流量异常检测，只取 Location，不读响应体
	durl, err := c.resolveRedirect(ctx, link.Dom+"/file/"+link.URL)
	if err != nil {
		return fail(err)
	}
	state = stateRedirectResolved

	info.Durl = durl
	info.Name, info.Type = c.codec.Deobfuscate(info.Name)
	info.Time = NormalizeTime(info.Time, c.now())
	state = stateDone
	helpers.LanZouLog.Debugf("解析分享链接 %s 完成 [%s]: %s", shareURL, state, info.Name)
	return info, nil
}

// submitPassword 有提取码的分享页：提交 sign 和提取码，再次打开分享页读取文件信息
func (c *Client) submitPassword(ctx context.Context, shareURL string, page Fields, pwd string, info *FileShareInfo) (*LinkInfo, error) {
	sign, ok := page.Get(FieldSign)
	if !ok || sign == "" {
		return nil, NewAPIError(FAILED, "sign not found on password page")
	}
	link := &LinkInfo{}
	form := map[string]string{"action": "downprocess", "sign": sign, "p": pwd}
	if err := c.postJSON(ctx, c.shareHost+PATH_AJAXM, form, link); err != nil {
		return nil, err
	}
	if link.Zt != 1 {
		return nil, newAPIErrorf(PASSWORD_ERROR, "password rejected: %s", infString(link.Inf))
	}

	secondPage, err := c.getPage(ctx, shareURL, nil)
	if err != nil {
		return nil, err
	}
	detail := c.extractor.Extract(PageFileDetail, secondPage)
	info.Name = infString(link.Inf)
	info.Size = detail.Value(FieldSize)
	info.Time = detail.Value(FieldTime)
	info.Desc = detail.Value(FieldDesc)
	return link, nil
}

// submitFrameSign 无提取码的分享页：文件信息在第一页，sign 在 iframe 指向的下载页
func (c *Client) submitFrameSign(ctx context.Context, page Fields, info *FileShareInfo) (*LinkInfo, error) {
	frame, ok := page.Get(FieldIframe)
	if !ok || frame == "" {
		return nil, NewAPIError(FAILED, "download frame not found")
	}
	name, ok := page.Get(FieldName)
	if !ok || name == "" {
		return nil, NewAPIError(FAILED, "file name not found")
	}
	info.Name = name
	info.Size = page.Value(FieldSize)
	info.Time = page.Value(FieldTime)
	info.Desc = page.Value(FieldDesc)

	frameURL := frame
	if !strings.HasPrefix(frame, "http://") && !strings.HasPrefix(frame, "https://") {
		frameURL = c.shareHost + "/" + strings.TrimLeft(frame, "/")
	}
	framePage, err := c.getPage(ctx, frameURL, nil)
	if err != nil {
		return nil, err
	}

	// data : {'action':'downprocess','sign':sg,'ves':1}，sign 可能直接写在字面量里，也可能放在变量中
	data, ok := c.extractor.Extract(PageDownFrame, framePage).Get(FieldData)
	if !ok {
		return nil, NewAPIError(FAILED, "sign data not found in download frame")
	}
	form, err := ParseScriptObject(data, c.extractor.ScriptVars(framePage))
	if err != nil {
		return nil, newAPIErrorf(FAILED, "parse sign data failed: %v", err)
	}

	link := &LinkInfo{}
	if err := c.postJSON(ctx, c.shareHost+PATH_AJAXM, form, link); err != nil {
		return nil, err
	}
	if link.Zt != 1 {
		return nil, newAPIErrorf(FAILED, "sign rejected: %s", infString(link.Inf))
	}
	return link, nil
}

// resolveRedirect 不跟随跳转，读取 Location 作为真实直链
func (c *Client) resolveRedirect(ctx context.Context, fakeURL string) (string, error) {
	resp, err := c.doRequest(ctx, c.noRedirect.R(), resty.MethodHead, fakeURL)
	if err != nil {
		return "", err
	}
	location := resp.Header().Get("Location")
	if location == "" {
		return "", newAPIErrorf(FAILED, "no redirect location from %s (status %s)", fakeURL, resp.Status())
	}
	return location, nil
}

func infString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// GetDurlByURL 只返回文件名和直链
func (c *Client) GetDurlByURL(ctx context.Context, shareURL, pwd string) (*DirectLink, error) {
	info, err := c.GetFileInfoByURL(ctx, shareURL, pwd)
	if err != nil {
		return nil, err
	}
	return &DirectLink{Name: info.Name, Durl: info.Durl}, nil
}

// GetFileInfoByID 登录用户通过文件 id 获取文件信息
func (c *Client) GetFileInfoByID(ctx context.Context, fileID int64) (*FileShareInfo, error) {
	share, err := c.GetShareInfo(ctx, fileID, true)
	if err != nil {
		return nil, err
	}
	return c.GetFileInfoByURL(ctx, share.URL, share.Pwd)
}

// GetDurlByID 登录用户通过文件 id 获取直链
func (c *Client) GetDurlByID(ctx context.Context, fileID int64) (*DirectLink, error) {
	share, err := c.GetShareInfo(ctx, fileID, true)
	if err != nil {
		return nil, err
	}
	return c.GetDurlByURL(ctx, share.URL, share.Pwd)
}

// GetFolderInfoByURL 获取文件夹分享页中的全部文件
func (c *Client) GetFolderInfoByURL(ctx context.Context, shareURL, pwd string) (*FolderShareInfo, error) {
	if !c.IsFolderURL(shareURL) {
		return nil, newAPIErrorf(URL_INVALID, "not a folder share url: %s", shareURL)
	}
	html, err := c.getPage(ctx, shareURL, nil)
	if err != nil {
		return nil, err
	}
	page := c.extractor.Extract(PageFolderShare, html)
	if page.Has(FieldCancelled) {
		return nil, NewAPIError(FILE_CANCELLED, "folder share cancelled")
	}
	if page.Has(FieldNeedPassword) && pwd == "" {
		return nil, NewAPIError(LACK_PASSWORD, "password required")
	}

	params := make(map[string]string)
	for _, name := range []string{FieldLx, FieldT, FieldK, FieldFid, FieldName, FieldTime} {
		v, ok := page.Get(name)
		if !ok {
			return nil, newAPIErrorf(FAILED, "field %s not found on folder share page", name)
		}
		params[name] = v
	}

	files, err := c.listFolderShare(ctx, params, pwd)
	if err != nil {
		return nil, err
	}

	// 页面上的日期只有月和日，用最早上传的文件（最后一个）补全年份
	folderTime := c.today()
	if len(files) > 0 {
		year := strings.SplitN(files[len(files)-1].Time, "-", 2)[0]
		folderTime = year + "-" + params[FieldTime]
	}

	return &FolderShareInfo{
		Folder: FolderInfo{
			Name: params[FieldName],
			ID:   params[FieldFid],
			Pwd:  pwd,
			Time: folderTime,
			Desc: page.Value(FieldDesc),
			URL:  shareURL,
		},
		Files: files,
	}, nil
}

// listFolderShare 翻页读取文件列表，zt=4 时等待后重试同一页
func (c *Client) listFolderShare(ctx context.Context, params map[string]string, pwd string) ([]FolderFile, error) {
	files := make([]FolderFile, 0)
	for page := 1; ; {
		form := map[string]string{
			"lx":  params[FieldLx],
			"pg":  itoa(int64(page)),
			"k":   params[FieldK],
			"t":   params[FieldT],
			"fid": params[FieldFid],
			"pwd": pwd,
		}
		resp := &RespBase[any, json.RawMessage]{}
		if err := c.postJSON(ctx, c.shareHost+PATH_FILEMOREAJAX, form, resp); err != nil {
			return nil, err
		}
		switch resp.Zt {
		case 1:
			var items []folderShareItem
			if err := decodeJSON(resp.Text, &items); err != nil {
				return nil, err
			}
			for _, item := range items {
				name, ext := c.codec.Deobfuscate(item.NameAll)
				files = append(files, FolderFile{
					Name: name,
					Time: NormalizeTime(item.Time, c.now()),
					Size: item.Size,
					Type: ext,
					URL:  c.shareHost + "/" + item.ID,
				})
			}
			page++
		case 2:
			return files, nil
		case 3:
			return nil, NewAPIError(PASSWORD_ERROR, "wrong folder password")
		case 4:
			// 服务器要求间隔一段时间再取下一页
			helpers.LanZouLog.Debugf("文件夹分页第 %d 页要求稍后重试", page)
			if err := sleep(ctx, c.retryDelay); err != nil {
				return nil, newAPIErrorf(NETWORK_ERROR, "wait for retry: %v", err)
			}
		default:
			return nil, newAPIErrorf(FAILED, "unexpected folder listing status: zt=%d", resp.Zt)
		}
	}
}

// GetFolderInfoByID 登录用户通过文件夹 id 获取文件夹及其文件
func (c *Client) GetFolderInfoByID(ctx context.Context, folderID int64) (*FolderShareInfo, error) {
	share, err := c.GetShareInfo(ctx, folderID, false)
	if err != nil {
		return nil, err
	}
	return c.GetFolderInfoByURL(ctx, share.URL, share.Pwd)
}
