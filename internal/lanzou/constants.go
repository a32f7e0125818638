package lanzou

const (
	// 域名
	SHARE_HOST   = "https://www.lanzous.com"
	CONSOLE_HOST = "https://pc.woozooo.com"

	// 控制台接口路径
	PATH_DOUPLOAD = "/doupload.php"
	PATH_ACCOUNT  = "/account.php"
	PATH_MYDISK   = "/mydisk.php"
	PATH_FILEUP   = "/fileup.php"

	// 分享页接口路径
	PATH_AJAXM        = "/ajaxm.php"
	PATH_FILEMOREAJAX = "/filemoreajax.php"

	// 超时配置
	DEFAULT_TIMEOUT = 15 // 秒

	// 文件夹分页 zt=4 时的等待时间
	DEFAULT_RETRY_DELAY = 1 // 秒

	// 全部文件夹列表的缓存时间
	FOLDERS_CACHE_TTL = 60 // 秒

	// 单文件上传上限，单位MB
	DEFAULT_MAX_SIZE = 100

	ROOT_FOLDER_ID   = -1
	ROOT_FOLDER_NAME = "LanZouCloud"

	// 不支持的后缀统一伪装成 dll
	GUISE_SUFFIX = "dll"
	// 分卷上传时夹带的假文件前缀，上传成功后立即删除
	FAKE_FILE_PREFIX  = "__fake__"
	FAKE_FILE_CONTENT = "lanzou-go filler"

	DESC_VOLUME_DIR = "分卷压缩文件"
	DESC_BATCH_DIR  = "批量上传"

	DEFAULTUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/75.0.3770.100 Safari/537.36"
	// 提取直链必须带上，否则拿不到数据
	ACCEPT_LANGUAGE = "zh-CN,zh;q=0.9"
)

// Code 与上游客户端保持一致的结果码
type Code int

const (
	FAILED         Code = -1
	SUCCESS        Code = 0
	ID_ERROR       Code = 1
	PASSWORD_ERROR Code = 2
	LACK_PASSWORD  Code = 3
	ZIP_ERROR      Code = 4
	MKDIR_ERROR    Code = 5
	URL_INVALID    Code = 6
	FILE_CANCELLED Code = 7
	PATH_ERROR     Code = 8
	NETWORK_ERROR  Code = 9
)

func (c Code) String() string {
	switch c {
	case FAILED:
		return "FAILED"
	case SUCCESS:
		return "SUCCESS"
	case ID_ERROR:
		return "ID_ERROR"
	case PASSWORD_ERROR:
		return "PASSWORD_ERROR"
	case LACK_PASSWORD:
		return "LACK_PASSWORD"
	case ZIP_ERROR:
		return "ZIP_ERROR"
	case MKDIR_ERROR:
		return "MKDIR_ERROR"
	case URL_INVALID:
		return "URL_INVALID"
	case FILE_CANCELLED:
		return "FILE_CANCELLED"
	case PATH_ERROR:
		return "PATH_ERROR"
	case NETWORK_ERROR:
		return "NETWORK_ERROR"
	}
	return "UNKNOWN"
}

// doupload.php 的 task 编号
const (
	taskUpload        = 1
	taskMkdir         = 2
	taskDeleteFolder  = 3
	taskSetFolderInfo = 4
	taskFileList      = 5
	taskDeleteFile    = 6
	taskSetFileDesc   = 11
	taskFileInfo      = 12
	taskFolderPasswd  = 16
	taskFolderShare   = 18
	taskAllFolders    = 19
	taskMoveFile      = 20
	taskFileShare     = 22
	taskFilePasswd    = 23
	taskRenameFile    = 46
)
