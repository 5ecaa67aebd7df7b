package protocol

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

var (
	// ErrUnknownType 未知消息类型，调用方应忽略
	ErrUnknownType = eris.New("unknown message type")
	// ErrMalformed 消息格式错误
	ErrMalformed = eris.New("malformed message")
)

type envelope struct {
	Type Type `json:"type"`
}

// DecodeInbound 解析客户端消息
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(ErrMalformed, err.Error())
	}

	switch env.Type {
	case TypeJoinMatchmaking:
		var msg JoinMatchmaking
		if err := decodeBody(data, &msg); err != nil {
			return nil, err
		}
		if msg.PlayerID == "" {
			return nil, eris.Wrap(ErrMalformed, "join_matchmaking 缺少 playerId")
		}
		return msg, nil
	case TypePlayerMove:
		var msg PlayerMove
		if err := decodeBody(data, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypePlayerShoot:
		var msg PlayerShoot
		if err := decodeBody(data, &msg); err != nil {
			return nil, err
		}
		if msg.TargetID == "" {
			return nil, eris.Wrap(ErrMalformed, "player_shoot 缺少 targetId")
		}
		return msg, nil
	case TypeLeaveMatch:
		return LeaveMatch{}, nil
	default:
		return nil, eris.Wrapf(ErrUnknownType, "%q", env.Type)
	}
}

func decodeBody(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrap(ErrMalformed, err.Error())
	}
	return nil
}

// Encode 序列化服务器消息
func Encode(msg Outbound) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeOutbound 解析服务器消息，供客户端工具与测试使用
func DecodeOutbound(data []byte) (Outbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(ErrMalformed, err.Error())
	}

	var msg Outbound
	switch env.Type {
	case TypeMatchJoined:
		msg = &MatchJoined{}
	case TypePlayerJoined:
		msg = &PlayerJoined{}
	case TypePlayerLeft:
		msg = &PlayerLeft{}
	case TypeCountdownStart:
		msg = &CountdownStart{}
	case TypeMatchStart:
		msg = &MatchStart{}
	case TypePlayerMoved:
		msg = &PlayerMoved{}
	case TypePlayerHit:
		msg = &PlayerHit{}
	case TypePlayerKilled:
		msg = &PlayerKilled{}
	case TypeTimeUpdate:
		msg = &TimeUpdate{}
	case TypeMatchEnded:
		msg = &MatchEnded{}
	default:
		return nil, eris.Wrapf(ErrUnknownType, "%q", env.Type)
	}

	if err := decodeBody(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
