package otel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LogLevel ログレベル
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

var levelSeverity = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// ParseLogLevel 大文字小文字を区別せずにログレベルを解釈する
func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelSeverity[level]; !ok {
		return "", fmt.Errorf("unknown log level: %q", s)
	}
	return level, nil
}

// LogEntry 1行分のJSONログ
type LogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	SpanID    string                 `json:"span_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// Logger トレースIDを添えてJSON行を出力する構造化ロガー
// Withで作った子ロガーは出力先とレベルを親と共有する
type Logger struct {
	tracer    trace.Tracer
	sink      *sink
	component string
}

type sink struct {
	out      *log.Logger
	minLevel LogLevel
}

// NewLogger 標準エラー出力に書くLoggerを作成
func NewLogger(tracer trace.Tracer) *Logger {
	return &Logger{
		tracer: tracer,
		sink:   &sink{out: log.New(os.Stderr, "", 0), minLevel: LogLevelDebug},
	}
}

// SetOutput 出力先を変更する
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.out.SetOutput(w)
}

// SetLevel 指定より低いレベルのログを捨てる
func (l *Logger) SetLevel(level LogLevel) {
	l.sink.minLevel = level
}

// With コンポーネント名付きの子ロガーを返す
func (l *Logger) With(component string) *Logger {
	return &Logger{tracer: l.tracer, sink: l.sink, component: component}
}

// Enabled 指定レベルが出力対象か
func (l *Logger) Enabled(level LogLevel) bool {
	return levelSeverity[level] >= levelSeverity[l.sink.minLevel]
}

// Log ログを出力
func (l *Logger) Log(ctx context.Context, level LogLevel, message string, fields map[string]interface{}) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Level:     string(level),
		Message:   message,
		Component: l.component,
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		entry.TraceID = sc.TraceID().String()
		entry.SpanID = sc.SpanID().String()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		l.sink.out.Printf(`{"level":"ERROR","message":"failed to marshal log entry: %v"}`, err)
		return
	}
	l.sink.out.Println(string(line))
}

// Debug Debugレベルのログを出力
func (l *Logger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelDebug, message, fields)
}

// Info Infoレベルのログを出力
func (l *Logger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelInfo, message, fields)
}

// Warn Warnレベルのログを出力
// 利用者の入力に起因するエラー（検証エラー、存在しないショップなど）はこのレベルで記録する
func (l *Logger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelWarn, message, fields)
}

// Error Errorレベルのログを出力し、実行中のスパンにもエラーを記録する
// fieldsは変更しない
func (l *Logger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.RecordError(err)
			span.SetStatus(codes.Error, message)
		}
	}
	l.Log(ctx, LogLevelError, message, merged)
}
