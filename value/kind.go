package value

// Kind tags a Value's live payload arm. The ordering matters: every Kind
// below EndOfBlittable is a trivially-copyable payload with no external
// ownership; every Kind at or above it owns memory that Clone/Destroy must
// manage.
type Kind uint8

const (
	None Kind = iota
	Any
	Bool
	Int
	Int2
	Int3
	Int4
	Int8
	Int16
	Float
	Float2
	Float3
	Float4
	Color
	Enum
	EndOfBlittable

	StringKind
	PathKind
	ContextVarKind
	BytesKind
	ImageKind
	AudioKind
	SeqKind
	TableKind
	SetKind
	ArrayKind
	ShardRefKind
	WireRefKind
	ObjectKind
)

// IsBlittable reports whether k's payload is a trivially-copyable value
// with no owned memory.
func (k Kind) IsBlittable() bool {
	return k < EndOfBlittable
}

// IsReferenceCounted reports whether k's payload participates in the
// refcount machinery (strings, bytes,
// images, audio, wires, objects and the containers that may transitively
// hold one).
func (k Kind) IsReferenceCounted() bool {
	switch k {
	case StringKind, PathKind, ContextVarKind, BytesKind, ImageKind, AudioKind,
		SeqKind, TableKind, SetKind, ArrayKind, ShardRefKind, WireRefKind, ObjectKind:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case Any:
		return "Any"
	case Bool:
		return "Bool"
	case Int:
		return "Int"
	case Int2:
		return "Int2"
	case Int3:
		return "Int3"
	case Int4:
		return "Int4"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Float:
		return "Float"
	case Float2:
		return "Float2"
	case Float3:
		return "Float3"
	case Float4:
		return "Float4"
	case Color:
		return "Color"
	case Enum:
		return "Enum"
	case StringKind:
		return "String"
	case PathKind:
		return "Path"
	case ContextVarKind:
		return "ContextVar"
	case BytesKind:
		return "Bytes"
	case ImageKind:
		return "Image"
	case AudioKind:
		return "Audio"
	case SeqKind:
		return "Seq"
	case TableKind:
		return "Table"
	case SetKind:
		return "Set"
	case ArrayKind:
		return "Array"
	case ShardRefKind:
		return "ShardRef"
	case WireRefKind:
		return "WireRef"
	case ObjectKind:
		return "Object"
	default:
		return "Unknown"
	}
}
