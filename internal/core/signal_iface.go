package core

// Frame is one encoded text payload (a JSON envelope).
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Delivery is the outcome of handing a frame to one member's transport.
type Delivery int

const (
	Delivered Delivery = iota
	PeerUnreachable
)

func (d Delivery) String() string {
	if d == Delivered {
		return "delivered"
	}
	return "unreachable"
}

// Deliver never blocks; a transport that refuses the frame is unreachable.
func Deliver(conn SignalConnection, f Frame) Delivery {
	if conn == nil {
		return PeerUnreachable
	}
	if err := conn.TrySend(f); err != nil {
		return PeerUnreachable
	}
	return Delivered
}
