package helpers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DownloadProgressCallback 下载进度回调函数类型
type DownloadProgressCallback func(bytesRead int64, totalBytes int64)

const DownloadChunkSize = 8192

// CopyWithProgress 把响应体逐块写入文件，每写入一块回调一次进度。出错时删除写了一半的文件
func CopyWithProgress(ctx context.Context, body io.Reader, fileName string, totalBytes int64, callback DownloadProgressCallback) (written int64, err error) {
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return 0, fmt.Errorf("创建目录失败: %w", err)
	}

	file, err := os.Create(fileName)
	if err != nil {
		return 0, fmt.Errorf("创建文件 %s 失败: %w", fileName, err)
	}
	defer func() {
		cerr := file.Close()
		if err == nil && cerr != nil {
			err = fmt.Errorf("关闭文件 %s 失败: %w", fileName, cerr)
		}
		if err != nil {
			if rerr := os.Remove(fileName); rerr != nil {
				AppLogger.Warnf("[下载] 删除未完成的文件 %s 失败: %v", fileName, rerr)
			}
		}
	}()

	var bytesRead int64
	buffer := make([]byte, DownloadChunkSize)
	for {
		select {
		case <-ctx.Done():
			AppLogger.Infof("[下载] %s 下载被取消", fileName)
			return bytesRead, ctx.Err()
		default:
		}

		n, rerr := body.Read(buffer)
		if n > 0 {
			if _, werr := file.Write(buffer[:n]); werr != nil {
				return bytesRead, fmt.Errorf("写入 %s 的数据失败: %w", fileName, werr)
			}
			bytesRead += int64(n)
			if callback != nil {
				callback(bytesRead, totalBytes)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return bytesRead, fmt.Errorf("读取 %s 的数据失败: %w", fileName, rerr)
		}
	}

	AppLogger.Infof("[下载] %s 完成，文件大小: %d 字节", fileName, bytesRead)
	return bytesRead, nil
}
