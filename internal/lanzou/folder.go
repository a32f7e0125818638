package lanzou

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"lanzou-go/internal/helpers"
)

const foldersCacheKey = "lanzou:folders"

var htmlAmp = strings.NewReplacer("&amp;", "&")

// Mkdir 创建文件夹并返回 id。父目录下已有同名文件夹时直接返回其 id，
// 与其它位置的文件夹重名时在名称后追加 _
func (c *Client) Mkdir(ctx context.Context, parentID int64, name, desc string) (int64, error) {
	name = SanitizeName(name)
	for {
		existing, err := c.GetDirIDList(ctx, parentID)
		if err != nil {
			return 0, newAPIErrorf(MKDIR_ERROR, "list folder #%d: %v", parentID, err)
		}
		for _, item := range existing {
			if item.Name == name {
				return item.ID, nil
			}
		}
		all, err := c.GetFoldersNameID(ctx)
		if err != nil {
			return 0, newAPIErrorf(MKDIR_ERROR, "list folders: %v", err)
		}
		if _, dup := all[name]; !dup {
			break
		}
		name += "_"
	}

	form := taskForm(taskMkdir, "parent_id", itoa(parentID), "folder_name", name, "folder_description", desc)
	if err := c.douploadZt(ctx, form); err != nil {
		helpers.LanZouLog.Warnf("创建文件夹 %s 失败, parent #%d: %v", name, parentID, err)
		return 0, newAPIErrorf(MKDIR_ERROR, "mkdir %s: %v", name, err)
	}
	c.invalidateFolders()

	all, err := c.GetFoldersNameID(ctx)
	if err != nil {
		return 0, newAPIErrorf(MKDIR_ERROR, "read back %s: %v", name, err)
	}
	id, ok := all[name]
	if !ok {
		return 0, newAPIErrorf(MKDIR_ERROR, "folder %s not found after creation", name)
	}
	return id, nil
}

// setDirInfo 修改文件夹名称和描述，id 无效时服务器同样返回成功
func (c *Client) setDirInfo(ctx context.Context, folderID int64, name, desc string) error {
	form := taskForm(taskSetFolderInfo, "folder_id", itoa(folderID), "folder_name", SanitizeName(name), "folder_description", desc)
	if err := c.douploadZt(ctx, form); err != nil {
		return err
	}
	c.invalidateFolders()
	return nil
}

// RenameDir 重命名文件夹，保留原描述
func (c *Client) RenameDir(ctx context.Context, folderID int64, name string) error {
	info, err := c.GetShareInfo(ctx, folderID, false)
	if err != nil {
		return err
	}
	return c.setDirInfo(ctx, folderID, name, info.Desc)
}

// GetDirList 子文件夹列表
func (c *Client) GetDirList(ctx context.Context, folderID int64) ([]FolderItem, error) {
	params := map[string]string{
		"item":        "files",
		"action":      "index",
		"folder_node": "1",
		"folder_id":   itoa(folderID),
	}
	html, err := c.getPage(ctx, c.mydiskURL(), params)
	if err != nil {
		return nil, err
	}
	folders := make([]FolderItem, 0)
	for _, row := range c.extractor.ExtractRows(PageFolderIndex, html) {
		id, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			continue
		}
		folders = append(folders, FolderItem{
			ID:     id,
			Name:   htmlAmp.Replace(row[0]),
			HasPwd: row[2] != "", // 有密码时为 style="display:initial"
			Desc:   row[3],
		})
	}
	return folders, nil
}

func (c *Client) GetDirIDList(ctx context.Context, folderID int64) ([]NameID, error) {
	folders, err := c.GetDirList(ctx, folderID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(folders))
	for _, f := range folders {
		byName[f.Name] = f.ID
	}
	return sortedNameIDs(byName), nil
}

// GetFullPath 从根目录到当前文件夹的路径
func (c *Client) GetFullPath(ctx context.Context, folderID int64) ([]PathNode, error) {
	path := []PathNode{{ID: ROOT_FOLDER_ID, Name: ROOT_FOLDER_NAME}}
	params := map[string]string{"item": "files", "action": "index", "folder_id": itoa(folderID)}
	html, err := c.getPage(ctx, c.mydiskURL(), params)
	if err != nil {
		return nil, err
	}
	for _, row := range c.extractor.ExtractRows(PageFolderPath, html) {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		path = append(path, PathNode{ID: id, Name: htmlAmp.Replace(row[1])})
	}
	if folderID == ROOT_FOLDER_ID {
		return path, nil
	}
	current, ok := c.extractor.Extract(PageFolderPath, html).Get(FieldCurrent)
	if !ok {
		return nil, newAPIErrorf(FAILED, "current folder name not found for #%d", folderID)
	}
	return append(path, PathNode{ID: folderID, Name: htmlAmp.Replace(current)}), nil
}

// GetFoldersIDName 全部文件夹的 id-名称，包含根目录。结果短暂缓存，文件夹变更时失效
func (c *Client) GetFoldersIDName(ctx context.Context) (map[int64]string, error) {
	var nodes []PathNode
	if !c.cache.GetJSON(foldersCacheKey, &nodes) {
		var err error
		nodes, err = c.fetchAllFolders(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(foldersCacheKey, nodes, FOLDERS_CACHE_TTL); err != nil {
			helpers.LanZouLog.Warnf("缓存文件夹列表失败: %v", err)
		}
	}
	result := map[int64]string{ROOT_FOLDER_ID: ROOT_FOLDER_NAME}
	for _, n := range nodes {
		result[n.ID] = n.Name
	}
	return result, nil
}

func (c *Client) fetchAllFolders(ctx context.Context) ([]PathNode, error) {
	// file_id 可以是任意值
	resp := &RespBase[json.RawMessage, any]{}
	if err := c.doupload(ctx, taskForm(taskAllFolders, "file_id", itoa(ROOT_FOLDER_ID)), resp); err != nil {
		return nil, err
	}
	nodes := make([]PathNode, 0)
	if resp.Zt != 1 {
		// 没有任何文件夹时同样不是 1
		helpers.LanZouLog.Debugf("获取文件夹列表返回 zt=%d", resp.Zt)
		return nodes, nil
	}
	var items []folderIDName
	if err := decodeJSON(resp.Info, &items); err != nil {
		return nil, err
	}
	for _, item := range items {
		nodes = append(nodes, PathNode{ID: int64(item.FolderID), Name: item.FolderName})
	}
	return nodes, nil
}

// GetFoldersNameID 名称-id，网盘内文件夹不重名
func (c *Client) GetFoldersNameID(ctx context.Context) (map[string]int64, error) {
	idName, err := c.GetFoldersIDName(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(idName))
	for id, name := range idName {
		result[name] = id
	}
	return result, nil
}

func (c *Client) invalidateFolders() {
	c.cache.Del(foldersCacheKey)
}

// MoveFolder 移动没有子文件夹的文件夹。服务器不支持直接移动，
// 做法是改名为 _bak、在目标位置新建同名文件夹、逐个移动文件后删除原文件夹。
// 中途失败时返回的错误包含 ErrPartialMove
func (c *Client) MoveFolder(ctx context.Context, folderID, parentID int64) error {
	if folderID == parentID {
		// 移动到自身会导致文件夹被删除
		return NewAPIError(FAILED, "cannot move a folder into itself")
	}
	folders, err := c.GetFoldersIDName(ctx)
	if err != nil {
		return err
	}
	name, ok := folders[folderID]
	if !ok || folderID < 0 {
		return newAPIErrorf(FAILED, "folder #%d not found", folderID)
	}
	subDirs, err := c.GetDirList(ctx, folderID)
	if err != nil {
		return err
	}
	if len(subDirs) > 0 {
		return newAPIErrorf(FAILED, "folder %s has sub-folders", name)
	}

	info, err := c.GetShareInfo(ctx, folderID, false)
	if err != nil {
		return err
	}
	if err := c.setDirInfo(ctx, folderID, name+"_bak", info.Desc); err != nil {
		return err
	}

	partial := func(step string, err error) error {
		helpers.LanZouLog.Errorf("移动文件夹 %s #%d 在 %s 步骤失败: %v", name, folderID, step, err)
		return fmt.Errorf("%w: %s: %w", ErrPartialMove, step, err)
	}

	newID, err := c.Mkdir(ctx, parentID, name, info.Desc)
	if err != nil {
		return partial("mkdir", err)
	}
	if err := c.SetPasswd(ctx, newID, info.Pwd, false); err != nil {
		return partial("passwd", err)
	}
	files, err := c.GetFileIDList(ctx, folderID)
	if err != nil {
		return partial("list", err)
	}
	for _, f := range files {
		if err := c.MoveFile(ctx, f.ID, newID); err != nil {
			return partial("move "+f.Name, err)
		}
	}
	if err := c.Delete(ctx, folderID, false); err != nil {
		return partial("delete", err)
	}
	if err := c.DeleteRec(ctx, folderID, false); err != nil {
		return partial("purge", err)
	}
	helpers.LanZouLog.Infof("文件夹 %s 已移动到 #%d, 新 id #%d", name, parentID, newID)
	return nil
}
