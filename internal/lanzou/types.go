package lanzou

import (
	"bytes"
	"strconv"
	"strings"
)

// FlexInt 兼容 1 和 "1" 两种写法，空串和 null 视为 0
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(data, `"`)))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// RespBase doupload.php 等接口的通用返回，info 与 text 的类型随 task 变化
type RespBase[I any, T any] struct {
	Zt   FlexInt `json:"zt"`
	Info I       `json:"info"`
	Text T       `json:"text"`
}

// RespZt 只关心状态码的返回
type RespZt struct {
	Zt   FlexInt `json:"zt"`
	Info any     `json:"info"`
}

// 分享页提交 sign 之后的返回
type LinkInfo struct {
	Zt  FlexInt `json:"zt"`
	Dom string  `json:"dom"`
	URL string  `json:"url"`
	Inf any     `json:"inf"`
}

// task=5 文件列表项
type fileListItem struct {
	ID      FlexInt `json:"id"`
	NameAll string  `json:"name_all"`
	Time    string  `json:"time"`
	Size    string  `json:"size"`
	Downs   FlexInt `json:"downs"`
	Onof    FlexInt `json:"onof"`
	IsDes   FlexInt `json:"is_des"`
}

// filemoreajax.php 文件夹分享页的文件项
type folderShareItem struct {
	ID      string `json:"id"`
	NameAll string `json:"name_all"`
	Time    string `json:"time"`
	Size    string `json:"size"`
}

// task=22/18 分享信息，文件与文件夹返回的字段不同
type shareInfoRaw struct {
	FID    *string `json:"f_id"`
	IsNewd string  `json:"is_newd"`
	Pwd    string  `json:"pwd"`
	Onof   FlexInt `json:"onof"`
	Name   *string `json:"name"`
	NewURL string  `json:"new_url"`
	Des    string  `json:"des"`
}

// task=19 全部文件夹
type folderIDName struct {
	FolderID   FlexInt `json:"folder_id"`
	FolderName string  `json:"folder_name"`
}

// fileup.php 上传返回
type uploadedItem struct {
	ID      FlexInt `json:"id"`
	NameAll string  `json:"name_all"`
}

// FileItem 控制台文件列表
type FileItem struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Time   string `json:"time"`
	Size   string `json:"size"`
	Type   string `json:"type"`
	Downs  int64  `json:"downs"`
	HasPwd bool   `json:"has_pwd"`
	HasDes bool   `json:"has_des"`
}

// FolderItem 控制台子文件夹
type FolderItem struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	HasPwd bool   `json:"has_pwd"`
	Desc   string `json:"desc"`
}

// NameID 按名称排序的 名称-ID 对
type NameID struct {
	Name string
	ID   int64
}

// PathNode 文件夹路径中的一级
type PathNode struct {
	ID   int64
	Name string
}

// ShareInfo 文件(夹)的分享链接与提取码
type ShareInfo struct {
	Name string
	URL  string
	Pwd  string
	Desc string
}

// FileShareInfo 解析文件分享链接的结果
type FileShareInfo struct {
	Name string
	Size string
	Type string
	Time string
	Desc string
	Pwd  string
	URL  string
	Durl string
}

type DirectLink struct {
	Name string
	Durl string
}

type FolderInfo struct {
	Name string
	ID   string
	Pwd  string
	Time string
	Desc string
	URL  string
}

type FolderFile struct {
	Name string
	Time string
	Size string
	Type string
	URL  string
}

// FolderShareInfo 解析文件夹分享链接的结果
type FolderShareInfo struct {
	Folder FolderInfo
	Files  []FolderFile
}

// RecFile 回收站文件，文件夹内的文件没有 Time，用根目录同名文件或文件夹时间补全
type RecFile struct {
	ID   int64
	Name string
	Type string
	Time string
	Size string
}

type RecFolder struct {
	ID    int64
	Name  string
	Size  string
	Time  string
	Files []RecFile
}

// FailedItem 批量操作中失败的一项
type FailedItem struct {
	Name string
	URL  string
	ID   int64
	Code Code
}

// BatchResult 批量上传/下载的结果，部分失败时 Code=FAILED
type BatchResult struct {
	Code   Code
	Failed []FailedItem
}

func (r *BatchResult) fail(item FailedItem) {
	r.Code = FAILED
	r.Failed = append(r.Failed, item)
}

// ProgressFunc 传输进度回调
type ProgressFunc func(name string, total, done int64)
