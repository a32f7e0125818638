package lanzou

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lanzou-go/internal/helpers"

	"github.com/google/uuid"
	"resty.dev/v3"
)

const mb = 1024 * 1024

// UploadFile 上传文件。超过单文件上限时先分卷压缩，
// 在目标位置创建同名文件夹后逐个上传分卷
func (c *Client) UploadFile(ctx context.Context, filePath string, folderID int64, progress ProgressFunc) (*BatchResult, error) {
	info, err := os.Stat(filePath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, newAPIErrorf(PATH_ERROR, "not a regular file: %s", filePath)
	}
	result := &BatchResult{Code: SUCCESS, Failed: make([]FailedItem, 0)}

	if info.Size() <= c.maxSize*mb {
		if err := c.uploadOne(ctx, filePath, folderID, progress); err != nil {
			result.fail(FailedItem{Name: filepath.Base(filePath), Code: CodeOf(err)})
			result.Code = CodeOf(err)
		}
		return result, nil
	}

	if c.archiver == nil {
		return nil, newAPIErrorf(ZIP_ERROR, "%s exceeds %d MB and no archiver is set", filePath, c.maxSize)
	}
	staging, err := os.MkdirTemp("", "lanzou-upload-")
	if err != nil {
		return nil, newAPIErrorf(ZIP_ERROR, "create staging dir: %v", err)
	}
	defer os.RemoveAll(staging)

	// 压缩等级 0 表示只存储不压缩
	volumes, err := c.archiver.Compress(ctx, filePath, filepath.Join(staging, trimExt(filepath.Base(filePath))), int(c.maxSize), 0)
	if err != nil {
		return nil, newAPIErrorf(ZIP_ERROR, "compress %s: %v", filePath, err)
	}
	helpers.LanZouLog.Infof("%s 已分为 %d 个分卷", filePath, len(volumes))

	// 去掉 .partN.rar 作为文件夹名
	parts := strings.Split(filepath.Base(volumes[0]), ".")
	folderName := strings.Join(parts[:max(len(parts)-2, 1)], ".")
	dirID, err := c.Mkdir(ctx, folderID, folderName, DESC_VOLUME_DIR)
	if err != nil {
		return nil, fmt.Errorf("create volume folder: %w", err)
	}

	for _, vol := range volumes {
		// 不允许连续上传大文件，每个分卷前先传一个小文件
		if err := c.uploadFiller(ctx, staging, dirID); err != nil {
			helpers.LanZouLog.Warnf("上传填充文件失败: %v", err)
		}
		if err := c.uploadOne(ctx, vol, dirID, progress); err != nil {
			result.fail(FailedItem{Name: filepath.Base(vol), Code: CodeOf(err)})
		}
	}
	return result, nil
}

// UploadDir 在 folderID 下创建与目录同名的文件夹，上传目录中的文件，不处理子目录
func (c *Client) UploadDir(ctx context.Context, dirPath string, folderID int64, progress ProgressFunc) (*BatchResult, error) {
	if !helpers.IsDir(dirPath) {
		return nil, newAPIErrorf(PATH_ERROR, "not a directory: %s", dirPath)
	}
	dirID, err := c.Mkdir(ctx, folderID, filepath.Base(filepath.Clean(dirPath)), DESC_BATCH_DIR)
	if err != nil {
		return nil, fmt.Errorf("create batch folder: %w", err)
	}
	files, err := helpers.ListRegularFiles(dirPath)
	if err != nil {
		return nil, newAPIErrorf(PATH_ERROR, "list %s: %v", dirPath, err)
	}

	result := &BatchResult{Code: SUCCESS, Failed: make([]FailedItem, 0)}
	for _, f := range files {
		r, err := c.UploadFile(ctx, f, dirID, progress)
		if err != nil {
			result.fail(FailedItem{Name: filepath.Base(f), Code: CodeOf(err)})
			continue
		}
		for _, item := range r.Failed {
			result.fail(item)
		}
	}
	return result, nil
}

func (c *Client) uploadFiller(ctx context.Context, dir string, folderID int64) error {
	name := filepath.Join(dir, FAKE_FILE_PREFIX+uuid.NewString()[:8]+".txt")
	if err := os.WriteFile(name, []byte(FAKE_FILE_CONTENT), 0644); err != nil {
		return err
	}
	defer os.Remove(name)
	return c.uploadOne(ctx, name, folderID, nil)
}

// uploadOne 上传单个文件，目标文件夹中的同名文件会先被删除
func (c *Client) uploadOne(ctx context.Context, filePath string, folderID int64, progress ProgressFunc) error {
	info, err := os.Stat(filePath)
	if err != nil || !info.Mode().IsRegular() {
		return newAPIErrorf(PATH_ERROR, "not a regular file: %s", filePath)
	}
	uploadName := c.codec.Obfuscate(filepath.Base(filePath))
	displayName, _ := c.codec.Deobfuscate(uploadName)

	existing, err := c.GetFileList(ctx, folderID)
	if err != nil {
		return err
	}
	for _, f := range existing {
		if f.Name == displayName {
			helpers.LanZouLog.Infof("文件夹 #%d 中已存在 %s，先删除", folderID, displayName)
			if err := c.Delete(ctx, f.ID, true); err != nil {
				return err
			}
		}
	}

	file, err := os.Open(filePath)
	if err != nil {
		return newAPIErrorf(PATH_ERROR, "open %s: %v", filePath, err)
	}
	defer file.Close()

	// 传输结束后还会多回调一次，用 finished 屏蔽
	finished := false
	field := &resty.MultipartField{
		Name:        "upload_file",
		FileName:    uploadName,
		ContentType: "application/octet-stream",
		Reader:      file,
		FileSize:    info.Size(),
		ProgressCallback: func(p resty.MultipartFieldProgress) {
			if progress == nil || finished {
				return
			}
			progress(displayName, p.FileSize, p.Written)
			if p.Written >= p.FileSize {
				finished = true
			}
		},
	}

	req := c.stream.R().
		SetMultipartFormData(map[string]string{
			"task":      itoa(taskUpload),
			"folder_id": itoa(folderID),
			"id":        "WU_FILE_0",
			"name":      uploadName,
		}).
		SetMultipartFields(field)
	helpers.LanZouLog.Debugf("上传 %s 到文件夹 #%d，名称 %s", filePath, folderID, uploadName)
	resp, err := c.doRequest(ctx, req, resty.MethodPost, c.consoleHost+PATH_FILEUP)
	if err != nil {
		return err
	}

	result := &RespBase[any, json.RawMessage]{}
	if err := decodeJSON(resp.Bytes(), result); err != nil {
		return err
	}
	if result.Zt != 1 {
		helpers.LanZouLog.Warnf("上传 %s 失败: %v", filePath, result.Info)
		return newAPIErrorf(FAILED, "upload %s rejected: %v", displayName, result.Info)
	}
	var items []uploadedItem
	if err := decodeJSON(result.Text, &items); err != nil {
		return err
	}
	if len(items) == 0 {
		return newAPIErrorf(FAILED, "upload %s returned no file", displayName)
	}

	uploaded := items[0]
	fileID := int64(uploaded.ID)
	if strings.HasPrefix(uploaded.NameAll, FAKE_FILE_PREFIX) {
		if err := c.Delete(ctx, fileID, true); err != nil {
			return err
		}
		return c.DeleteRec(ctx, fileID, true)
	}
	// 上传后默认关闭提取码
	return c.SetPasswd(ctx, fileID, "", true)
}

// trimExt 去掉最后一个后缀，没有后缀时原样返回
func trimExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx]
	}
	return name
}
