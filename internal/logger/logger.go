package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level はログレベルを表す
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// logrus は対応する logrus のレベルを返す
func (l Level) logrus() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel は文字列からログレベルを解析する
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// ComponentField はコンポーネント名を出力するフィールド名
const ComponentField = "component"

// Logger はスレッドセーフなロガー
type Logger struct {
	base *logrus.Logger
}

// Default はデフォルトのロガー
var Default = New(os.Stdout, LevelInfo)

// New は新しいロガーを作成する
func New(out io.Writer, minLevel Level) *Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(minLevel.logrus())
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		DisableColors:   true,
	})
	return &Logger{base: base}
}

// SetLevel はログレベルを設定する
func (l *Logger) SetLevel(level Level) {
	l.base.SetLevel(level.logrus())
}

// SetOutput は出力先を変更する
func (l *Logger) SetOutput(out io.Writer) {
	l.base.SetOutput(out)
}

// log は指定されたレベルでログを出力する
func (l *Logger) log(level Level, component string, format string, args ...any) {
	entry := logrus.NewEntry(l.base)
	if component != "" {
		entry = entry.WithField(ComponentField, component)
	}
	entry.Logf(level.logrus(), format, args...)
}

// Debug はデバッグログを出力する
func (l *Logger) Debug(component string, format string, args ...any) {
	l.log(LevelDebug, component, format, args...)
}

// Info は情報ログを出力する
func (l *Logger) Info(component string, format string, args ...any) {
	l.log(LevelInfo, component, format, args...)
}

// Warn は警告ログを出力する
func (l *Logger) Warn(component string, format string, args ...any) {
	l.log(LevelWarn, component, format, args...)
}

// Error はエラーログを出力する
func (l *Logger) Error(component string, format string, args ...any) {
	l.log(LevelError, component, format, args...)
}

// グローバル関数（デフォルトロガーを使用）

// Debug はデバッグログを出力する
func Debug(component string, format string, args ...any) {
	Default.Debug(component, format, args...)
}

// Info は情報ログを出力する
func Info(component string, format string, args ...any) {
	Default.Info(component, format, args...)
}

// Warn は警告ログを出力する
func Warn(component string, format string, args ...any) {
	Default.Warn(component, format, args...)
}

// Error はエラーログを出力する
func Error(component string, format string, args ...any) {
	Default.Error(component, format, args...)
}
