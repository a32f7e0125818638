package lanzou

import (
	"math/rand"
	"regexp"
	"strings"
)

// 上传时不会被拦截的后缀
var validSuffixes = map[string]struct{}{}

func init() {
	for _, s := range strings.Fields(`doc docx zip rar apk ipa txt exe 7z e z ct ke cetrainer db tar pdf
		w3x epub mobi azw azw3 osk osz xpa cpk lua jar dmg ppt pptx xls xlsx mp3 iso img gho ttf ttc
		txf dwg bat dll`) {
		validSuffixes[s] = struct{}{}
	}
}

var (
	illegalNameChars = regexp.MustCompile("[#$%^!*<>)(+=`'\"/:;,?]")
	partSuffix       = regexp.MustCompile(`^part(\d+)$`)
	disguisedPart    = regexp.MustCompile(`^[a-z]+(\d+)$`)
)

const guiseSep = "#"

// SanitizeName 去掉网盘不允许的字符，# 同时留给混淆规则使用
func SanitizeName(name string) string {
	return illegalNameChars.ReplaceAllString(name, "")
}

// NameCodec 文件名混淆与还原
type NameCodec struct {
	partToken string
}

func NewNameCodec(partToken string) *NameCodec {
	if partToken == "" {
		partToken = NewPartToken()
	}
	return &NameCodec{partToken: partToken}
}

// NewPartToken 生成 5 个互不相同的小写字母，替换分卷名里的 part
func NewPartToken() string {
	letters := []byte("abcdefghijklmnopqrstuvwxyz")
	rand.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })
	return string(letters[:5])
}

func (n *NameCodec) PartToken() string {
	return n.partToken
}

// Obfuscate 混淆文件名以绕过上传检查
func (n *NameCodec) Obfuscate(filename string) string {
	filename = SanitizeName(filename)
	parts := strings.Split(filename, ".")
	suffix := parts[len(parts)-1]
	if len(parts) == 1 {
		suffix = ""
	}

	// 普通文件，多重后缀也可能被拦截
	if _, ok := validSuffixes[suffix]; !ok {
		return strings.Join(parts, guiseSep) + "." + GUISE_SUFFIX
	}

	// 分卷文件
	if suffix == "rar" && len(parts) >= 2 {
		sub := parts[len(parts)-2]
		if m := partSuffix.FindStringSubmatch(sub); m != nil {
			return joinStem(strings.Join(parts[:len(parts)-2], guiseSep), n.partToken+m[1]+".rar")
		}
	}
	return filename
}

// Deobfuscate 还原文件名，同时返回小写的真实后缀
func (n *NameCodec) Deobfuscate(filename string) (string, string) {
	// 网页端偶尔返回其它字符集的空白符
	filename = strings.NewReplacer("\u00a0", " ", "\u3000", " ").Replace(filename)
	filename = strings.ReplaceAll(filename, guiseSep, ".")
	parts := strings.Split(filename, ".")

	if len(parts) > 1 && parts[len(parts)-1] == GUISE_SUFFIX {
		parts = parts[:len(parts)-1]
		filename = strings.Join(parts, ".")
	}

	if len(parts) >= 2 && parts[len(parts)-1] == "rar" {
		if m := disguisedPart.FindStringSubmatch(parts[len(parts)-2]); m != nil {
			filename = joinStem(strings.Join(parts[:len(parts)-2], "."), "part"+m[1]+".rar")
		}
	}

	// 没有后缀说明本来就是 dll 文件，无法区分 "a.v2.dll" 这种情况
	if !strings.Contains(filename, ".") {
		filename = filename + "." + GUISE_SUFFIX
	}

	ext := ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		ext = strings.ToLower(filename[idx+1:])
	}
	return filename, ext
}

func joinStem(stem, tail string) string {
	if stem == "" {
		return tail
	}
	return stem + "." + tail
}
