package lanzou

import (
	"context"
	"strconv"
	"strings"

	"lanzou-go/internal/helpers"
)

func recycleParams(action string, kv ...string) map[string]string {
	params := map[string]string{"item": "recycle", "action": action}
	for i := 0; i+1 < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}
	return params
}

// GetRecDirList 回收站中的文件夹，名称过长会被截断，截断后重名的追加序号
func (c *Client) GetRecDirList(ctx context.Context) ([]RecFolder, error) {
	html, err := c.getPage(ctx, c.mydiskURL(), recycleParams("files"))
	if err != nil {
		return nil, err
	}
	names := NewDisambiguator()
	folders := make([]RecFolder, 0)
	for _, row := range c.extractor.ExtractRows(PageRecycleDirs, html) {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		folders = append(folders, RecFolder{
			ID:    id,
			Name:  names.Next(TrimTruncated(row[1])),
			Size:  row[2],
			Time:  row[3],
			Files: make([]RecFile, 0),
		})
	}
	return folders, nil
}

// GetRecFileList folderID 为 -1 时列出回收站根目录，文件夹里的文件也会出现在根目录；
// 否则列出文件夹内的文件，这些文件没有时间信息
func (c *Client) GetRecFileList(ctx context.Context, folderID int64) ([]RecFile, error) {
	if folderID == ROOT_FOLDER_ID {
		return c.recRootFiles(ctx)
	}
	html, err := c.getPage(ctx, c.mydiskURL(), recycleParams("folder_restore", "folder_id", itoa(folderID)))
	if err != nil {
		return nil, err
	}
	files := make([]RecFile, 0)
	if c.extractor.Extract(PageConsole, html).Has(FieldEmpty) {
		return files, nil
	}
	names := NewDisambiguator()
	for _, row := range c.extractor.ExtractRows(PageRecycleFolder, html) {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		ftype := row[1]
		name, _ := c.codec.Deobfuscate(TrimTruncated(row[2]))
		name = names.Next(name)
		if !strings.HasSuffix(name, ftype) {
			name = name + "." + ftype
		}
		files = append(files, RecFile{ID: id, Name: name, Type: ftype, Size: row[3]})
	}
	return files, nil
}

func (c *Client) recRootFiles(ctx context.Context) ([]RecFile, error) {
	html, err := c.getPage(ctx, c.mydiskURL(), recycleParams("files"))
	if err != nil {
		return nil, err
	}
	names := NewDisambiguator()
	files := make([]RecFile, 0)
	for _, row := range c.extractor.ExtractRows(PageRecycleFiles, html) {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		ftype := row[1]
		name := names.Next(TrimTruncated(row[2]))
		// 名称过长时后缀会丢失
		if !strings.HasSuffix(name, ftype) {
			name = name + "." + ftype
		}
		name, ext := c.codec.Deobfuscate(name)
		files = append(files, RecFile{ID: id, Name: name, Type: ext, Time: row[3]})
	}
	return files, nil
}

// GetRecAll 整理后的回收站：真正属于根目录的文件，以及带文件列表的文件夹。
// 文件夹内文件的时间取根目录同名文件的时间，找不到时用文件夹的时间
func (c *Client) GetRecAll(ctx context.Context) ([]RecFile, []RecFolder, error) {
	rootFiles, err := c.GetRecFileList(ctx, ROOT_FOLDER_ID)
	if err != nil {
		return nil, nil, err
	}
	rootIndex := make(map[string]int, len(rootFiles))
	for i, f := range rootFiles {
		rootIndex[f.Name] = i
	}

	folders, err := c.GetRecDirList(ctx)
	if err != nil {
		return nil, nil, err
	}
	owned := make(map[int]struct{})
	for i := range folders {
		files, err := c.GetRecFileList(ctx, folders[i].ID)
		if err != nil {
			return nil, nil, err
		}
		for _, f := range files {
			if pos, ok := rootIndex[f.Name]; ok {
				owned[pos] = struct{}{}
				f.Time = rootFiles[pos].Time
			} else {
				f.Time = folders[i].Time
			}
			folders[i].Files = append(folders[i].Files, f)
		}
	}

	loose := make([]RecFile, 0, len(rootFiles))
	for i, f := range rootFiles {
		if _, ok := owned[i]; !ok {
			loose = append(loose, f)
		}
	}
	return loose, folders, nil
}

// DeleteRec 彻底删除回收站中的文件(夹)，删除后服务器需要一段时间才会刷新列表
func (c *Client) DeleteRec(ctx context.Context, id int64, isFile bool) error {
	if isFile {
		return c.recycleAction(ctx, "file_delete_complete", "file_id", id, FieldDeleteOK)
	}
	return c.recycleAction(ctx, "folder_delete_complete", "folder_id", id, FieldDeleteOK)
}

// Recovery 从回收站恢复
func (c *Client) Recovery(ctx context.Context, id int64, isFile bool) error {
	if isFile {
		return c.recycleAction(ctx, "file_restore", "file_id", id, FieldRestoreOK)
	}
	return c.recycleAction(ctx, "folder_restore", "folder_id", id, FieldRestoreOK)
}

// CleanRec 清空回收站
func (c *Client) CleanRec(ctx context.Context) error {
	formhash, err := c.recycleFormhash(ctx, recycleParams("files"))
	if err != nil {
		return err
	}
	form := map[string]string{"action": "delete_all", "task": "delete_all", "formhash": formhash}
	return c.postRecycle(ctx, form, FieldCleanOK)
}

// recycleAction 每个操作页面的 formhash 都不同，需要先打开对应页面
func (c *Client) recycleAction(ctx context.Context, action, idKey string, id int64, okField string) error {
	formhash, err := c.recycleFormhash(ctx, recycleParams(action, idKey, itoa(id)))
	if err != nil {
		return err
	}
	form := map[string]string{"action": action, "task": action, idKey: itoa(id), "formhash": formhash}
	if err := c.postRecycle(ctx, form, okField); err != nil {
		return err
	}
	helpers.LanZouLog.Debugf("回收站 %s #%d 完成", action, id)
	return nil
}

func (c *Client) recycleFormhash(ctx context.Context, params map[string]string) (string, error) {
	html, err := c.getPage(ctx, c.mydiskURL(), params)
	if err != nil {
		return "", err
	}
	formhash, ok := c.extractor.Extract(PageConsole, html).Get(FieldFormhash)
	if !ok {
		return "", newAPIErrorf(FAILED, "formhash not found for %s", params["action"])
	}
	return formhash, nil
}

func (c *Client) postRecycle(ctx context.Context, form map[string]string, okField string) error {
	body, err := c.postForm(ctx, c.mydiskURL()+"?item=recycle", form)
	if err != nil {
		return err
	}
	if !c.extractor.Extract(PageConsole, string(body)).Has(okField) {
		return newAPIErrorf(FAILED, "recycle %s failed", form["action"])
	}
	return nil
}
