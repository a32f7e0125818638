package lanzou

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"lanzou-go/internal/helpers"

	"resty.dev/v3"
)

// 分卷压缩文件，如 movie.abcde3.rar 或 movie.part3.rar
var volumeNamePattern = regexp.MustCompile(`^.+\.[a-z]+[0-9]+\.rar$`)

// DownFileByURL 通过分享链接下载文件到 saveDir
func (c *Client) DownFileByURL(ctx context.Context, shareURL, pwd, saveDir string, progress ProgressFunc) error {
	_, err := c.downFile(ctx, shareURL, pwd, saveDir, progress)
	return err
}

// DownFileByID 登录用户通过文件 id 下载，无需提取码
func (c *Client) DownFileByID(ctx context.Context, fileID int64, saveDir string, progress ProgressFunc) error {
	_, err := c.downFileByID(ctx, fileID, saveDir, progress)
	return err
}

func (c *Client) downFileByID(ctx context.Context, fileID int64, saveDir string, progress ProgressFunc) (string, error) {
	share, err := c.GetShareInfo(ctx, fileID, true)
	if err != nil {
		return "", err
	}
	return c.downFile(ctx, share.URL, share.Pwd, saveDir, progress)
}

// downFile 返回保存的文件路径
func (c *Client) downFile(ctx context.Context, shareURL, pwd, saveDir string, progress ProgressFunc) (string, error) {
	if !c.IsFileURL(shareURL) {
		return "", newAPIErrorf(URL_INVALID, "not a file share url: %s", shareURL)
	}
	if err := os.MkdirAll(saveDir, 0755); err != nil {
		return "", newAPIErrorf(PATH_ERROR, "create %s: %v", saveDir, err)
	}
	link, err := c.GetDurlByURL(ctx, shareURL, pwd)
	if err != nil {
		return "", err
	}
	name, err := localName(link.Name)
	if err != nil {
		return "", err
	}

	resp, err := c.doRequest(ctx, c.stream.R().SetDoNotParseResponse(true), resty.MethodGet, link.Durl)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	total := resp.RawResponse.ContentLength
	if total < 0 {
		return "", fmt.Errorf("%w: %w", NewAPIError(FAILED, "download "+link.Name), ErrNoContentLength)
	}

	savePath := filepath.Join(saveDir, name)
	var callback helpers.DownloadProgressCallback
	if progress != nil {
		callback = func(bytesRead, totalBytes int64) {
			progress(name, totalBytes, bytesRead)
		}
	}
	if _, err := helpers.CopyWithProgress(ctx, resp.Body, savePath, total, callback); err != nil {
		return "", newAPIErrorf(NETWORK_ERROR, "save %s: %v", name, err)
	}
	helpers.LanZouLog.Infof("已下载 %s (%d 字节)", savePath, total)
	return savePath, nil
}

// localName 分享页上的名称来自第三方，只保留单层文件名
func localName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(SanitizeName(name), `\`, ""))
	if name == "" || name == "." || name == ".." {
		return "", newAPIErrorf(PATH_ERROR, "unsafe file name %q", name)
	}
	return name, nil
}

// DownDirByURL 下载文件夹分享中的全部文件，mkdir 为 true 时在 saveDir 下创建同名子目录。
// 全部成功且都是分卷文件时自动解压并删除分卷
func (c *Client) DownDirByURL(ctx context.Context, shareURL, pwd, saveDir string, progress ProgressFunc, mkdir bool) (*BatchResult, error) {
	info, err := c.GetFolderInfoByURL(ctx, shareURL, pwd)
	if err != nil {
		return nil, err
	}
	if mkdir {
		dir, err := localName(info.Folder.Name)
		if err != nil {
			return nil, err
		}
		saveDir = filepath.Join(saveDir, dir)
	}

	urls := make(map[string]string, len(info.Files))
	for _, f := range info.Files {
		urls[f.Name] = f.URL
	}
	names := make([]string, 0, len(urls))
	for name := range urls {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &BatchResult{Code: SUCCESS, Failed: make([]FailedItem, 0)}
	saved := make([]string, 0, len(names))
	for _, name := range names {
		// 文件夹内的文件没有单独的提取码
		path, err := c.downFile(ctx, urls[name], "", saveDir, progress)
		if err != nil {
			result.fail(FailedItem{Name: name, URL: urls[name], Code: CodeOf(err)})
			continue
		}
		saved = append(saved, path)
	}
	return c.finishDirDownload(ctx, result, names, saved, saveDir)
}

// DownDirByID 登录用户通过文件夹 id 下载
func (c *Client) DownDirByID(ctx context.Context, folderID int64, saveDir string, progress ProgressFunc, mkdir bool) (*BatchResult, error) {
	files, err := c.GetFileIDList(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, newAPIErrorf(FAILED, "folder #%d is empty", folderID)
	}
	if mkdir {
		share, err := c.GetShareInfo(ctx, folderID, false)
		if err != nil {
			return nil, err
		}
		dir, err := localName(share.Name)
		if err != nil {
			return nil, err
		}
		saveDir = filepath.Join(saveDir, dir)
	}

	result := &BatchResult{Code: SUCCESS, Failed: make([]FailedItem, 0)}
	names := make([]string, 0, len(files))
	saved := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
		path, err := c.downFileByID(ctx, f.ID, saveDir, progress)
		if err != nil {
			result.fail(FailedItem{Name: f.Name, ID: f.ID, Code: CodeOf(err)})
			continue
		}
		saved = append(saved, path)
	}
	return c.finishDirDownload(ctx, result, names, saved, saveDir)
}

// finishDirDownload 有文件失败时不解压
func (c *Client) finishDirDownload(ctx context.Context, result *BatchResult, names, saved []string, saveDir string) (*BatchResult, error) {
	if result.Code != SUCCESS || len(names) == 0 {
		return result, nil
	}
	for _, name := range names {
		if !volumeNamePattern.MatchString(name) {
			return result, nil
		}
	}
	if err := c.unzip(ctx, saved, saveDir); err != nil {
		result.Code = ZIP_ERROR
		return result, err
	}
	return result, nil
}

func (c *Client) unzip(ctx context.Context, volumes []string, saveDir string) error {
	if c.archiver == nil {
		return NewAPIError(ZIP_ERROR, "no archiver set, volumes left as downloaded")
	}
	if err := c.archiver.Extract(ctx, volumes, saveDir); err != nil {
		return fmt.Errorf("%w: %w", NewAPIError(ZIP_ERROR, "extract volumes"), err)
	}
	for _, v := range volumes {
		if err := os.Remove(v); err != nil {
			helpers.LanZouLog.Warnf("删除分卷 %s 失败: %v", v, err)
		}
	}
	return nil
}
