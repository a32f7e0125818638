package lanzou

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type PageKind string

const (
	PageFileShare     PageKind = "file_share"     // 文件分享页第一页
	PageFileDetail    PageKind = "file_detail"    // 提交提取码后再次打开的分享页
	PageDownFrame     PageKind = "down_frame"     // 无提取码时 iframe 指向的下载页
	PageScriptVars    PageKind = "script_vars"    // 页面中的 var x = '...' 赋值
	PageFolderShare   PageKind = "folder_share"   // 文件夹分享页
	PageConsole       PageKind = "console"        // 控制台表单页
	PageFolderIndex   PageKind = "folder_index"   // 控制台子文件夹列表
	PageFolderPath    PageKind = "folder_path"    // 控制台面包屑
	PageRecycleDirs   PageKind = "recycle_dirs"   // 回收站文件夹
	PageRecycleFiles  PageKind = "recycle_files"  // 回收站根目录文件
	PageRecycleFolder PageKind = "recycle_folder" // 回收站文件夹内文件
)

// 字段名
const (
	FieldCancelled    = "cancelled"
	FieldNeedPassword = "need_password"
	FieldSign         = "sign"
	FieldIframe       = "iframe"
	FieldName         = "name"
	FieldSize         = "size"
	FieldTime         = "time"
	FieldDesc         = "desc"
	FieldData         = "data"
	FieldLx           = "lx"
	FieldT            = "t"
	FieldK            = "k"
	FieldFid          = "fid"
	FieldFormhash     = "formhash"
	FieldLoginOK      = "login_ok"
	FieldLoginPage    = "login_page"
	FieldLogoutOK     = "logout_ok"
	FieldCleanOK      = "clean_ok"
	FieldDeleteOK     = "delete_ok"
	FieldRestoreOK    = "restore_ok"
	FieldEmpty        = "empty"
	FieldCurrent      = "current"
)

// TruncateMarker 回收站中过长的名称会被截断并以此结尾
const TruncateMarker = "..."

// FieldPattern 没有捕获组的模式只判断是否出现，值为匹配到的文本；
// 有多个捕获组时取第一个非空的组
type FieldPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

type PageSchema struct {
	Fields []FieldPattern
	Rows   *regexp.Regexp
}

func field(name, pattern string) FieldPattern {
	return FieldPattern{Name: name, Pattern: regexp.MustCompile(pattern)}
}

func defaultSchemas() map[PageKind]PageSchema {
	return map[PageKind]PageSchema{
		PageFileShare: {Fields: []FieldPattern{
			field(FieldCancelled, `文件取消`),
			field(FieldNeedPassword, `输入密码`),
			field(FieldSign, `sign=(\w+?)&`),
			field(FieldIframe, `<iframe.*?src="(.+?)"`),
			field(FieldName, `<div style.+>([^<]+)</div>\n<div class="d2">|filename = '(.*?)';`),
			field(FieldSize, `文件大小：</span>(.+?)<br>`),
			field(FieldTime, `上传时间：</span>(.+?)<br>`),
			field(FieldDesc, `文件描述：</span><br>\n?\s*(.+?)\s*</td>`),
		}},
		PageFileDetail: {Fields: []FieldPattern{
			field(FieldSize, `大小：(.+?)</div>`),
			field(FieldTime, `class="n_file_infos">(.+?)</span>`),
			field(FieldDesc, `class="n_box_des">(.*?)</div>`),
		}},
		PageDownFrame: {Fields: []FieldPattern{
			field(FieldData, `data : (.*),`),
		}},
		PageScriptVars: {
			Rows: regexp.MustCompile(`var\s+([\w$]+)\s*=\s*'([^']*)'`),
		},
		PageFolderShare: {Fields: []FieldPattern{
			field(FieldCancelled, `文件不存在`),
			field(FieldNeedPassword, `请输入密码`),
			field(FieldLx, `'lx':'?(\d)'?,`),
			field(FieldT, `var [0-9a-z]{6} = '(\d{10})';`),
			field(FieldK, `var [0-9a-z]{6} = '([0-9a-z]{15,})';`),
			field(FieldFid, `'fid':'?(\d+)'?,`),
			field(FieldName, `var.+?='(.+?)';\n.+document.title`),
			field(FieldTime, `class="rets">([\d\-]+?)<a`),
			field(FieldDesc, `id="filename">(.+?)</span>`),
		}},
		PageConsole: {Fields: []FieldPattern{
			field(FieldFormhash, `name="formhash" value="(.+?)"`),
			field(FieldLoginOK, `登录成功`),
			field(FieldLoginPage, `网盘用户登录`),
			field(FieldLogoutOK, `退出系统成功`),
			field(FieldCleanOK, `清空回收站成功`),
			field(FieldDeleteOK, `删除成功`),
			field(FieldRestoreOK, `恢复成功`),
			field(FieldEmpty, `此文件夹没有包含文件`),
		}},
		PageFolderIndex: {
			Rows: regexp.MustCompile(`&nbsp;(.+?)</a>&nbsp;.+"folk(\d+)"(.*?)>.+#BBBBBB">\[?(.*?)\.*\]?</font>`),
		},
		PageFolderPath: {
			Fields: []FieldPattern{
				field(FieldCurrent, `align="(?:top|absmiddle)" />&nbsp;(.+?)\s<(?:span|font)`),
			},
			Rows: regexp.MustCompile(`&raquo;&nbsp;.+?folder_id=(\d+)">.+?&nbsp;(.+?)</a>`),
		},
		PageRecycleDirs: {
			Rows: regexp.MustCompile(`folder_id=(\d+).+?>&nbsp;(.+?)\.{0,3}</a>.*\n+.*<td.+?>(.+?)</td>.*\n.*<td.+?>(.+?)</td>`),
		},
		PageRecycleFiles: {
			Rows: regexp.MustCompile(`(?s)fl_sel_ids[^\n]+value="(\d+)".+?filetype/(\w+)\.gif.+?/>\s?(.+?)</a>.+?<td.+?>([\d\-]+?)</td>`),
		},
		PageRecycleFolder: {
			Rows: regexp.MustCompile(`com/(\d+?)".+?filetype/(\w+)\.gif.+?/>&nbsp;(.+?)\.{0,3}</a> <font color="#CCCCCC">\((.+?)\)</font>`),
		},
	}
}

var notesPattern = regexp.MustCompile(`<!--.+?-->|\s+//\s*.+`)

// RemoveNotes 去掉页面里的 <!-- --> 和 // 注释，注释掉的旧代码会干扰匹配
func RemoveNotes(html string) string {
	return notesPattern.ReplaceAllString(html, "")
}

// Fields 提取结果，区分字段不存在与值为空
type Fields map[string]string

func (f Fields) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Value 不存在时返回空串
func (f Fields) Value(name string) string {
	return f[name]
}

// Extractor 按页面类型提取字段，页面改版时只需替换对应的 PageSchema
type Extractor struct {
	schemas map[PageKind]PageSchema
}

func NewExtractor() *Extractor {
	return &Extractor{schemas: defaultSchemas()}
}

func (e *Extractor) SetSchema(kind PageKind, schema PageSchema) {
	e.schemas[kind] = schema
}

func (e *Extractor) Schema(kind PageKind) (PageSchema, bool) {
	s, ok := e.schemas[kind]
	return s, ok
}

func (e *Extractor) Extract(kind PageKind, body string) Fields {
	fields := Fields{}
	schema, ok := e.schemas[kind]
	if !ok {
		return fields
	}
	body = RemoveNotes(body)
	for _, fp := range schema.Fields {
		m := fp.Pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		if len(m) == 1 {
			fields[fp.Name] = m[0]
			continue
		}
		value := ""
		for _, g := range m[1:] {
			if g != "" {
				value = g
				break
			}
		}
		fields[fp.Name] = value
	}
	return fields
}

// ExtractRows 返回列表页每一行的捕获组
func (e *Extractor) ExtractRows(kind PageKind, body string) [][]string {
	schema, ok := e.schemas[kind]
	if !ok || schema.Rows == nil {
		return nil
	}
	matches := schema.Rows.FindAllStringSubmatch(RemoveNotes(body), -1)
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, m[1:])
	}
	return rows
}

// ScriptVars 页面中 var name = 'value' 形式的变量
func (e *Extractor) ScriptVars(body string) map[string]string {
	vars := make(map[string]string)
	for _, row := range e.ExtractRows(PageScriptVars, body) {
		vars[row[0]] = row[1]
	}
	return vars
}

var daysAgoPattern = regexp.MustCompile(`(\d+)\s*天前`)

const dateLayout = "2006-01-02"

// NormalizeTime 把相对时间转换为 YYYY-MM-DD，其它格式原样返回
func NormalizeTime(text string, now time.Time) string {
	switch {
	case strings.Contains(text, "刚刚"), strings.Contains(text, "秒前"),
		strings.Contains(text, "分钟前"), strings.Contains(text, "小时前"):
		return now.Format(dateLayout)
	case strings.Contains(text, "昨天"):
		return now.AddDate(0, 0, -1).Format(dateLayout)
	case strings.Contains(text, "前天"):
		return now.AddDate(0, 0, -2).Format(dateLayout)
	}
	if m := daysAgoPattern.FindStringSubmatch(text); m != nil {
		days, err := strconv.Atoi(m[1])
		if err == nil {
			return now.AddDate(0, 0, -days).Format(dateLayout)
		}
	}
	return text
}

// ParseScriptObject 解析 {'k':'v', k2: 1, k3: ident} 形式的脚本字面量，
// 裸标识符从 vars 中取值，不执行任何代码
func ParseScriptObject(literal string, vars map[string]string) (map[string]string, error) {
	p := &literalParser{src: []rune(strings.TrimSpace(literal)), vars: vars}
	return p.parse()
}

type literalParser struct {
	src  []rune
	pos  int
	vars map[string]string
}

func (p *literalParser) parse() (map[string]string, error) {
	result := make(map[string]string)
	p.skipSpace()
	if !p.consume('{') {
		return nil, fmt.Errorf("literal must start with '{'")
	}
	for {
		p.skipSpace()
		if p.consume('}') {
			return result, nil
		}
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(':') {
			return nil, fmt.Errorf("expected ':' after key %q at %d", key, p.pos)
		}
		p.skipSpace()
		value, err := p.parseValue()
		if err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		result[key] = value
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume('}') {
			return result, nil
		}
		return nil, fmt.Errorf("unexpected character at %d", p.pos)
	}
}

func (p *literalParser) parseKey() (string, error) {
	if p.peekQuote() {
		return p.parseString()
	}
	ident := p.parseIdent()
	if ident == "" {
		return "", fmt.Errorf("expected key at %d", p.pos)
	}
	return ident, nil
}

func (p *literalParser) parseValue() (string, error) {
	if p.peekQuote() {
		return p.parseString()
	}
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || unicode.IsDigit(p.src[p.pos])) {
		start := p.pos
		p.pos++
		for p.pos < len(p.src) && (unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		return string(p.src[start:p.pos]), nil
	}
	ident := p.parseIdent()
	switch ident {
	case "":
		return "", fmt.Errorf("expected value at %d", p.pos)
	case "true", "false":
		return ident, nil
	case "null", "undefined":
		return "", nil
	}
	v, ok := p.vars[ident]
	if !ok {
		return "", fmt.Errorf("unresolved variable %q", ident)
	}
	return v, nil
}

func (p *literalParser) parseString() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case '\\':
			if p.pos < len(p.src) {
				sb.WriteRune(p.src[p.pos])
				p.pos++
			}
		case quote:
			return sb.String(), nil
		default:
			sb.WriteRune(c)
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func (p *literalParser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c == '$' || unicode.IsLetter(c) || unicode.IsDigit(c) {
			p.pos++
			continue
		}
		break
	}
	return string(p.src[start:p.pos])
}

func (p *literalParser) peekQuote() bool {
	return p.pos < len(p.src) && (p.src[p.pos] == '\'' || p.src[p.pos] == '"')
}

func (p *literalParser) consume(c rune) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

// Disambiguator 截断后同名的条目依次追加 (2)、(3)，遇到不同名称时计数归位
type Disambiguator struct {
	seen    map[string]struct{}
	counter int
}

func NewDisambiguator() *Disambiguator {
	return &Disambiguator{seen: make(map[string]struct{}), counter: 1}
}

func (d *Disambiguator) Next(name string) string {
	if _, ok := d.seen[name]; ok {
		d.counter++
		name = fmt.Sprintf("%s(%d)", name, d.counter)
	} else {
		d.counter = 1
	}
	d.seen[name] = struct{}{}
	return name
}

// TrimTruncated 去掉截断标记
func TrimTruncated(name string) string {
	return strings.TrimSuffix(name, TruncateMarker)
}
