package lanzou

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"lanzou-go/internal/helpers"
)

// taskForm 构造 doupload.php 表单，kv 为成对的键值
func taskForm(task int, kv ...string) map[string]string {
	form := map[string]string{"task": strconv.Itoa(task)}
	for i := 0; i+1 < len(kv); i += 2 {
		form[kv[i]] = kv[i+1]
	}
	return form
}

// Delete 把文件或没有子文件夹的文件夹放入回收站
func (c *Client) Delete(ctx context.Context, id int64, isFile bool) error {
	form := taskForm(taskDeleteFile, "file_id", itoa(id))
	if !isFile {
		form = taskForm(taskDeleteFolder, "folder_id", itoa(id))
	}
	if err := c.douploadZt(ctx, form); err != nil {
		return err
	}
	if !isFile {
		c.invalidateFolders()
	}
	return nil
}

// GetFileList 文件夹下的全部文件，逐页读取直到 info=0
func (c *Client) GetFileList(ctx context.Context, folderID int64) ([]FileItem, error) {
	files := make([]FileItem, 0)
	for page := int64(1); ; page++ {
		resp := &RespBase[FlexInt, json.RawMessage]{}
		form := taskForm(taskFileList, "folder_id", itoa(folderID), "pg", itoa(page))
		if err := c.doupload(ctx, form, resp); err != nil {
			return nil, err
		}
		if resp.Info == 0 {
			return files, nil
		}
		var items []fileListItem
		if err := decodeJSON(resp.Text, &items); err != nil {
			return nil, err
		}
		for _, item := range items {
			name, ext := c.codec.Deobfuscate(item.NameAll)
			files = append(files, FileItem{
				ID:     int64(item.ID),
				Name:   name,
				Time:   NormalizeTime(item.Time, c.now()),
				Size:   item.Size,
				Type:   ext,
				Downs:  int64(item.Downs),
				HasPwd: item.Onof == 1,
				HasDes: item.IsDes == 1,
			})
		}
	}
}

// GetFileIDList 按文件名排序的 名称-ID 列表，同名文件只保留后出现的一个
func (c *Client) GetFileIDList(ctx context.Context, folderID int64) ([]NameID, error) {
	files, err := c.GetFileList(ctx, folderID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(files))
	for _, f := range files {
		byName[f.Name] = f.ID
	}
	return sortedNameIDs(byName), nil
}

func sortedNameIDs(byName map[string]int64) []NameID {
	list := make([]NameID, 0, len(byName))
	for name, id := range byName {
		list = append(list, NameID{Name: name, ID: id})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// GetShareInfo 文件(夹)的分享链接和提取码
func (c *Client) GetShareInfo(ctx context.Context, id int64, isFile bool) (*ShareInfo, error) {
	form := taskForm(taskFileShare, "file_id", itoa(id))
	if !isFile {
		form = taskForm(taskFolderShare, "folder_id", itoa(id))
	}
	resp := &RespBase[json.RawMessage, any]{}
	if err := c.doupload(ctx, form, resp); err != nil {
		return nil, err
	}
	raw := &shareInfoRaw{}
	if err := decodeJSON(resp.Info, raw); err != nil {
		return nil, newAPIErrorf(ID_ERROR, "invalid id %d: %v", id, err)
	}
	if (raw.FID != nil && *raw.FID == "i") || (raw.Name != nil && *raw.Name == "") {
		return nil, newAPIErrorf(ID_ERROR, "invalid id %d", id)
	}

	// onof=0 时 pwd 里是无效的随机值
	pwd := ""
	if raw.Onof == 1 {
		pwd = raw.Pwd
	}

	if raw.FID == nil {
		name := ""
		if raw.Name != nil {
			name = *raw.Name
		}
		return &ShareInfo{Name: name, URL: raw.NewURL, Pwd: pwd, Desc: raw.Des}, nil
	}

	// 文件的分享链接需要拼接，文件名和描述还要再查一次
	detail := &RespBase[any, any]{}
	if err := c.doupload(ctx, taskForm(taskFileInfo, "file_id", itoa(id)), detail); err != nil {
		return nil, err
	}
	return &ShareInfo{
		Name: infString(detail.Text),
		URL:  raw.IsNewd + "/" + *raw.FID,
		Pwd:  pwd,
		Desc: infString(detail.Info),
	}, nil
}

// SetPasswd 设置提取码，空串表示关闭。文件提取码 2-6 位，文件夹 0-12 位
func (c *Client) SetPasswd(ctx context.Context, id int64, pwd string, isFile bool) error {
	shows := "1"
	if pwd == "" {
		shows = "0"
	}
	form := taskForm(taskFilePasswd, "file_id", itoa(id), "shows", shows, "shownames", pwd)
	if !isFile {
		form = taskForm(taskFolderPasswd, "folder_id", itoa(id), "shows", shows, "shownames", pwd)
	}
	return c.douploadZt(ctx, form)
}

// SetDesc 设置描述。文件描述一旦设置就不能清空，文件夹可以
func (c *Client) SetDesc(ctx context.Context, id int64, desc string, isFile bool) error {
	if isFile {
		return c.douploadZt(ctx, taskForm(taskSetFileDesc, "file_id", itoa(id), "desc", desc))
	}
	info, err := c.GetShareInfo(ctx, id, false)
	if err != nil {
		return err
	}
	return c.setDirInfo(ctx, id, info.Name, desc)
}

// RenameFile 会员才能重命名文件，后缀不可修改
func (c *Client) RenameFile(ctx context.Context, fileID int64, name string) error {
	form := taskForm(taskRenameFile, "file_id", itoa(fileID), "file_name", SanitizeName(name), "type", "2")
	return c.douploadZt(ctx, form)
}

func (c *Client) MoveFile(ctx context.Context, fileID, folderID int64) error {
	if err := c.douploadZt(ctx, taskForm(taskMoveFile, "file_id", itoa(fileID), "folder_id", itoa(folderID))); err != nil {
		return err
	}
	helpers.LanZouLog.Debugf("文件 #%d 已移动到文件夹 #%d", fileID, folderID)
	return nil
}
