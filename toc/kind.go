package toc

import "fmt"

// Kind is the asset type of a component
type Kind int32

// Known component kinds, values as stored in the TOC
const (
	KindRenderableModel Kind = iota
	KindTexture
	KindCollisionModel
	KindUserData
	KindMotionPack
	KindCollisionGrid
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool { return k >= KindRenderableModel && k <= KindCollisionGrid }

func (k Kind) String() string {
	switch k {
	case KindRenderableModel:
		return "RenderableModel"
	case KindTexture:
		return "Texture"
	case KindCollisionModel:
		return "CollisionModel"
	case KindUserData:
		return "UserData"
	case KindMotionPack:
		return "MotionPack"
	case KindCollisionGrid:
		return "CollisionGrid"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(k))
	}
}
