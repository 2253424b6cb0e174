package network

const (
	MsgTypeHeartbeat = 1

	// 注册表
	MsgTypeListPresets   = 101
	MsgTypeListSessions  = 102
	MsgTypeCreateSession = 103
	MsgTypeDeleteSession = 104
	MsgTypeClearSessions = 105
	MsgTypeWatchSession  = 106
	MsgTypeUnwatch       = 107

	// 会话指令
	MsgTypeNextRound    = 201
	MsgTypePrevRound    = 202
	MsgTypeApplyScore   = 203
	MsgTypeResetScores  = 204
	MsgTypeAddPlayer    = 205
	MsgTypeRemovePlayer = 206
	MsgTypeRenamePlayer = 207

	// 服务端推送
	MsgTypeSessionState    = 301
	MsgTypeSessionRemoved  = 302
	MsgTypeFeedback        = 303
	MsgTypeSettingsChanged = 304
	MsgTypeError           = 399

	// 设置与统计
	MsgTypeGetSettings     = 401
	MsgTypeUpdateSettings  = 402
	MsgTypeGetStatistics   = 403
	MsgTypeResetStatistics = 404
)

// SessionRequest addresses one session. Used by watch, round and reset
// commands.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type CreateSessionRequest struct {
	PresetID string   `json:"preset_id"`
	Names    []string `json:"names"`
}

// DeleteSessionsRequest removes by id, by display position, or both.
type DeleteSessionsRequest struct {
	SessionIDs []string `json:"session_ids,omitempty"`
	Indices    []int    `json:"indices,omitempty"`
}

type ApplyScoreRequest struct {
	SessionID   string `json:"session_id"`
	PlayerID    string `json:"player_id"`
	OptionIndex int    `json:"option_index"`
}

type PlayerRequest struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	Name      string `json:"name,omitempty"`
}

type SettingsPayload struct {
	SoundEnabled     bool `json:"sound_enabled"`
	VibrationEnabled bool `json:"vibration_enabled"`
}

type SessionRemovedPayload struct {
	SessionIDs []string `json:"session_ids"`
}

type FeedbackPayload struct {
	Kind      string  `json:"kind"`
	Sound     bool    `json:"sound"`
	Vibration bool    `json:"vibration"`
	SessionID string  `json:"session_id,omitempty"`
	Delta     float64 `json:"delta"`
}

// ErrorPayload answers a failed request. Title is the short heading a
// client shows above Message.
type ErrorPayload struct {
	Request uint16 `json:"request"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}
