package model

import "encoding/json"

// Member 是 presence 频道中的用户
type Member struct {
	UserID   string          `json:"user_id"`
	UserInfo json.RawMessage `json:"user_info,omitempty"`
}

// Presence 是 presence 频道当前成员的快照
type Presence struct {
	IDs   []string                   `json:"ids"`
	Hash  map[string]json.RawMessage `json:"hash"`
	Count int                        `json:"count"`
}

// Subscription 描述一次订阅的结果
type Subscription struct {
	Channel  string
	Member   *Member
	Joined   bool // presence 频道中该用户是否为首次加入
	Presence *Presence
}
