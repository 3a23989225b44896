package types

// ============================================================================
//                              Direction - 连接方向
// ============================================================================

// Direction 连接方向
type Direction int

const (
	// DirUnknown 未知
	DirUnknown Direction = iota
	// DirInbound 入站（对方拨号）
	DirInbound
	// DirOutbound 出站（本地拨号）
	DirOutbound
)

// String 返回方向名称
func (d Direction) String() string {
	switch d {
	case DirInbound:
		return "inbound"
	case DirOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              ConnState - 连接状态
// ============================================================================

// ConnState 连接生命周期状态
//
// Dialing/Accepting → Established → Closing → Closed，只前进不后退。
type ConnState int32

const (
	// ConnStateDialing 出站握手中
	ConnStateDialing ConnState = iota
	// ConnStateAccepting 入站握手中
	ConnStateAccepting
	// ConnStateEstablished 已建立
	ConnStateEstablished
	// ConnStateClosing 关闭中
	ConnStateClosing
	// ConnStateClosed 已关闭
	ConnStateClosed
)

// String 返回状态名称
func (s ConnState) String() string {
	switch s {
	case ConnStateDialing:
		return "dialing"
	case ConnStateAccepting:
		return "accepting"
	case ConnStateEstablished:
		return "established"
	case ConnStateClosing:
		return "closing"
	case ConnStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
