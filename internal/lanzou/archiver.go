package lanzou

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"lanzou-go/internal/helpers"
)

// Archiver 分卷压缩与解压
type Archiver interface {
	// Compress 把 sourcePath 压缩为 destPrefix 开头的分卷，返回按顺序排列的分卷路径
	Compress(ctx context.Context, sourcePath, destPrefix string, volumeSizeMB, level int) ([]string, error)
	// Extract 从第一个分卷开始解压到 destDir
	Extract(ctx context.Context, volumes []string, destDir string) error
}

// RarArchiver 调用本机的 rar 命令
type RarArchiver struct {
	BinPath string
}

func NewRarArchiver(binPath string) (*RarArchiver, error) {
	if !helpers.IsRegularFile(binPath) {
		return nil, newAPIErrorf(ZIP_ERROR, "rar binary not found: %s", binPath)
	}
	return &RarArchiver{BinPath: binPath}, nil
}

func (r *RarArchiver) Compress(ctx context.Context, sourcePath, destPrefix string, volumeSizeMB, level int) ([]string, error) {
	args := []string{
		"a",
		fmt.Sprintf("-m%d", level),
		fmt.Sprintf("-v%dm", volumeSizeMB),
		"-ep", "-y", "-rr5%",
		destPrefix, sourcePath,
	}
	if err := r.run(ctx, args...); err != nil {
		return nil, err
	}

	dir, base := filepath.Dir(destPrefix), filepath.Base(destPrefix)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newAPIErrorf(ZIP_ERROR, "read volume dir: %v", err)
	}
	volumes := make([]string, 0)
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), base) && strings.HasSuffix(e.Name(), ".rar") {
			volumes = append(volumes, filepath.Join(dir, e.Name()))
		}
	}
	if len(volumes) == 0 {
		return nil, newAPIErrorf(ZIP_ERROR, "no volume produced for %s", sourcePath)
	}
	sort.Strings(volumes)
	return volumes, nil
}

func (r *RarArchiver) Extract(ctx context.Context, volumes []string, destDir string) error {
	if len(volumes) == 0 {
		return NewAPIError(ZIP_ERROR, "no volume to extract")
	}
	sorted := append([]string(nil), volumes...)
	sort.Strings(sorted)
	return r.run(ctx, "e", "-y", sorted[0], destDir+string(os.PathSeparator))
}

func (r *RarArchiver) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.BinPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	helpers.LanZouLog.Debugf("执行 %s %s", r.BinPath, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return newAPIErrorf(ZIP_ERROR, "rar %s: %v: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (c *Client) SetArchiver(a Archiver) {
	c.archiver = a
}

// SetRarTool 使用指定路径的 rar 程序
func (c *Client) SetRarTool(binPath string) error {
	a, err := NewRarArchiver(binPath)
	if err != nil {
		return err
	}
	c.archiver = a
	return nil
}
