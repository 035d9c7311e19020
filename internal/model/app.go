package model

import (
	"time"
)

// 允许任意来源的通配符
const AnyOrigin = "*"

// App 是一个租户：独立的凭证、来源白名单和频道命名空间
type App struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	Key             string    `gorm:"uniqueIndex;size:64;not null" json:"key"`
	Secret          string    `gorm:"size:128;not null" json:"-"`
	AllowedOrigins  []string  `gorm:"serializer:json;type:text" json:"allowed_origins"`
	MaxConnections  int       `json:"max_connections"`  // 0 表示不限制
	MaxMessageSize  int       `json:"max_message_size"` // 0 表示使用全局配置
	ActivityTimeout int       `json:"activity_timeout"` // 秒，0 表示使用全局配置
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (a *App) AllowsAnyOrigin() bool {
	for _, origin := range a.AllowedOrigins {
		if origin == AnyOrigin {
			return true
		}
	}
	return false
}
