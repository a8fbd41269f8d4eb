package event

import "fmt"

// Kind enumerates the state changes carried by the protocol. The numeric
// value is the wire discriminant, so the order is part of the protocol.
type Kind uint8

const (
	KindConnect Kind = iota
	KindConnectAck
	KindSpawn
	KindMove
	KindDiscover
	KindScore
	KindDie
	KindFieldCreate
	KindCellDiscover
	KindCellExplode

	kindCount
)

var kindNames = [...]string{
	KindConnect:      "Connect",
	KindConnectAck:   "ConnectAck",
	KindSpawn:        "Spawn",
	KindMove:         "Move",
	KindDiscover:     "Discover",
	KindScore:        "Score",
	KindDie:          "Die",
	KindFieldCreate:  "FieldCreate",
	KindCellDiscover: "CellDiscover",
	KindCellExplode:  "CellExplode",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether the kind is part of the protocol vocabulary.
func (k Kind) Valid() bool {
	return k < kindCount
}

// Data is the serializable payload of an event. Only the fields used by Kind
// are meaningful; the rest stay zero so that values compare equal after a
// round trip through the wire codec.
type Data struct {
	Kind        Kind
	ID          uint8
	Position    uint16
	Score       uint16
	Size        uint8
	MinesAround uint8
}

// Connect announces a new peer to the authoritative role.
func Connect() Data {
	return Data{Kind: KindConnect}
}

// ConnectAck tells a peer which agent id it controls.
func ConnectAck(id uint8) Data {
	return Data{Kind: KindConnectAck, ID: id}
}

// Spawn creates an agent at a position.
func Spawn(id uint8, position uint16) Data {
	return Data{Kind: KindSpawn, ID: id, Position: position}
}

// Move relocates an agent.
func Move(id uint8, position uint16) Data {
	return Data{Kind: KindMove, ID: id, Position: position}
}

// Discover requests the discovery of a cell on behalf of an agent.
func Discover(id uint8, position uint16) Data {
	return Data{Kind: KindDiscover, ID: id, Position: position}
}

// Score sets the score of an agent.
func Score(id uint8, score uint16) Data {
	return Data{Kind: KindScore, ID: id, Score: score}
}

// Die marks an agent as dead.
func Die(id uint8) Data {
	return Data{Kind: KindDie, ID: id}
}

// FieldCreate resets the field to an empty square of the given side.
func FieldCreate(size uint8) Data {
	return Data{Kind: KindFieldCreate, Size: size}
}

// CellDiscover reveals a safe cell together with its mine count.
func CellDiscover(position uint16, minesAround uint8) Data {
	return Data{Kind: KindCellDiscover, Position: position, MinesAround: minesAround}
}

// CellExplode reveals a mined cell.
func CellExplode(position uint16) Data {
	return Data{Kind: KindCellExplode, Position: position}
}

func (d Data) String() string {
	switch d.Kind {
	case KindConnect:
		return "Connect"
	case KindConnectAck:
		return fmt.Sprintf("ConnectAck{id=%d}", d.ID)
	case KindSpawn, KindMove, KindDiscover:
		return fmt.Sprintf("%s{id=%d position=%d}", d.Kind, d.ID, d.Position)
	case KindScore:
		return fmt.Sprintf("Score{id=%d score=%d}", d.ID, d.Score)
	case KindDie:
		return fmt.Sprintf("Die{id=%d}", d.ID)
	case KindFieldCreate:
		return fmt.Sprintf("FieldCreate{size=%d}", d.Size)
	case KindCellDiscover:
		return fmt.Sprintf("CellDiscover{position=%d mines=%d}", d.Position, d.MinesAround)
	case KindCellExplode:
		return fmt.Sprintf("CellExplode{position=%d}", d.Position)
	default:
		return d.Kind.String()
	}
}

// Peer identifies a remote connection, usually by its network address. The
// zero value means "no peer".
type Peer string

// Event wraps a payload with the routing metadata used by the sync engine.
// Source, Target and Attempts never travel over the wire.
type Event struct {
	Data     Data
	Source   Peer
	Target   Peer
	Attempts int
}
