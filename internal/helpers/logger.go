package helpers

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var AppLogger *QLogger
var LanZouLog *QLogger

type QLogger struct {
	*log.Logger
	rotate    bool
	console   bool
	lumLogger *lumberjack.Logger
}

func init() {
	// 未调用 InitLoggers 之前先输出到控制台，避免空指针
	AppLogger = NewConsoleLogger()
	LanZouLog = NewConsoleLogger()
}

func (q *QLogger) Close() {
	if q.lumLogger != nil {
		q.lumLogger.Close()
	}
}

func (q *QLogger) Infof(format string, args ...interface{}) {
	q.Logger.Printf("[INFO] "+format, args...)
}

func (q *QLogger) Info(format string) {
	q.Logger.Println("[INFO] " + format)
}

func (q *QLogger) Debugf(format string, args ...interface{}) {
	q.Logger.Printf("[DEBUG] "+format, args...)
}

func (q *QLogger) Errorf(format string, args ...interface{}) {
	q.Logger.Printf("[ERROR] "+format, args...)
}

func (q *QLogger) Error(format string) {
	q.Logger.Println("[ERROR] " + format)
}

func (q *QLogger) Warnf(format string, args ...interface{}) {
	q.Logger.Printf("[WARN] "+format, args...)
}

func (q *QLogger) Warn(format string) {
	q.Logger.Println("[WARN] " + format)
}

// NewConsoleLogger 只写标准错误输出的日志记录器
func NewConsoleLogger() *QLogger {
	return &QLogger{
		Logger:  log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds),
		console: true,
	}
}

func NewLogger(logFileName string, isConsole bool, rotate bool) *QLogger {
	logFile := filepath.Join(ConfigDir, logFileName)
	var lumLogger *lumberjack.Logger
	var writers []io.Writer

	if rotate {
		lumLogger = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // 最大10MB
			MaxBackups: 3,
			MaxAge:     7, //days
			Compress:   true,
		}
		writers = append(writers, lumLogger)
	} else {
		fd, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Printf("Failed to open log file: %v", err)
			isConsole = true
		} else {
			writers = append(writers, fd)
		}
	}
	if isConsole {
		writers = append(writers, os.Stderr)
	}
	multiWriter := io.MultiWriter(writers...)

	logger := log.New(multiWriter, "", log.Ldate|log.Ltime|log.Lmicroseconds)

	return &QLogger{
		Logger:    logger,
		rotate:    rotate,
		console:   isConsole,
		lumLogger: lumLogger,
	}
}

// InitLoggers 按配置把日志切换到文件
func InitLoggers(isConsole bool) error {
	if err := os.MkdirAll(ConfigDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}
	AppLogger = NewLogger(GlobalConfig.Log.File, isConsole, true)
	LanZouLog = NewLogger(GlobalConfig.Log.LanZou, isConsole, true)
	return nil
}

func CloseLogger() {
	for _, l := range []*QLogger{AppLogger, LanZouLog} {
		if l != nil {
			l.Close()
		}
	}
}

func RotateLog() {
	for _, l := range []*QLogger{AppLogger, LanZouLog} {
		if l != nil && l.rotate && l.lumLogger != nil {
			l.lumLogger.Rotate()
		}
	}
}
