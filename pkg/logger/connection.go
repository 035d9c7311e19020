package logger

import "go.uber.org/zap"

// 连接级别的日志辅助函数，connectionID 可选

func Info(message string, connectionID ...string) {
	L.WithOptions(zap.AddCallerSkip(1)).Info(message, connectionFields(connectionID)...)
}

func Error(message string, connectionID ...string) {
	L.WithOptions(zap.AddCallerSkip(1)).Error(message, connectionFields(connectionID)...)
}

// Message 以 debug 级别记录原始帧内容
func Message(message []byte) {
	L.WithOptions(zap.AddCallerSkip(1)).Debug("Frame", zap.ByteString("payload", message))
}

func connectionFields(connectionID []string) []zap.Field {
	if len(connectionID) == 0 || connectionID[0] == "" {
		return nil
	}
	return []zap.Field{zap.String("connection_id", connectionID[0])}
}
