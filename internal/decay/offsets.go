package decay

import (
	"fmt"

	"github.com/annel0/leafdecay/internal/vec"
)

// Adjacency - модель соседства, по которой распространяется расстояние до ствола.
type Adjacency uint8

const (
	// Orthogonal6 - шесть соседей по граням.
	Orthogonal6 Adjacency = iota
	// Extended18 - грани плюс двенадцать диагоналей по рёбрам. Угловые
	// диагонали (три ненулевые компоненты) не входят.
	Extended18
)

var (
	faceOffsets = []vec.Vec3{
		{X: -1}, {X: 1},
		{Y: -1}, {Y: 1},
		{Z: -1}, {Z: 1},
	}

	// Первые шесть совпадают с faceOffsets, затем диагонали по рёбрам.
	extendedOffsets = []vec.Vec3{
		{X: -1}, {X: 1},
		{Y: -1}, {Y: 1},
		{Z: -1}, {Z: 1},

		{X: -1, Z: -1}, {X: 1, Z: -1},
		{X: -1, Z: 1}, {X: 1, Z: 1},
		{X: -1, Y: -1}, {X: 1, Y: -1},
		{X: -1, Y: 1}, {X: 1, Y: 1},
		{Y: -1, Z: -1}, {Y: 1, Z: -1},
		{Y: -1, Z: 1}, {Y: 1, Z: 1},
	}
)

// Offsets возвращает набор смещений для модели соседства.
// Возвращаемый срез общий, изменять его нельзя.
func Offsets(adj Adjacency) []vec.Vec3 {
	if adj == Extended18 {
		return extendedOffsets
	}
	return faceOffsets
}

func (a Adjacency) String() string {
	switch a {
	case Orthogonal6:
		return "orthogonal6"
	case Extended18:
		return "extended18"
	default:
		return fmt.Sprintf("adjacency(%d)", uint8(a))
	}
}

// ParseAdjacency разбирает имя модели из конфигурации
func ParseAdjacency(name string) (Adjacency, error) {
	switch name {
	case "orthogonal6", "":
		return Orthogonal6, nil
	case "extended18":
		return Extended18, nil
	default:
		return Orthogonal6, fmt.Errorf("неизвестная модель соседства %q", name)
	}
}
