package decay

import (
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// CellKind - класс клетки для расчёта опоры. Нулевое значение - Obstacle.
type CellKind uint8

const (
	Obstacle CellKind = iota // ничего не даёт и не принимает
	Anchor                   // источник с расстоянием 0
	Foliage                  // листва, расстояние ещё неизвестно
)

func (k CellKind) String() string {
	switch k {
	case Anchor:
		return "anchor"
	case Foliage:
		return "foliage"
	default:
		return "obstacle"
	}
}

// Classifier классифицирует позицию мира. Только чтение.
type Classifier interface {
	Classify(pos vec.Vec3) CellKind
}

// ClassifierFunc позволяет использовать функцию как Classifier
type ClassifierFunc func(pos vec.Vec3) CellKind

func (f ClassifierFunc) Classify(pos vec.Vec3) CellKind { return f(pos) }

// KindTable - закрытая таблица «ID блока → класс клетки».
// Отсутствующие ID считаются препятствием.
type KindTable map[block.BlockID]CellKind

// Lookup возвращает класс для ID блока
func (t KindTable) Lookup(id block.BlockID) CellKind {
	return t[id]
}

// DefaultKindTable строит таблицу по роли блоков из регистра.
func DefaultKindTable() KindTable {
	table := make(KindTable)
	for _, v := range block.WoodVariants() {
		table[block.LogBlockID(v)] = Anchor
		table[block.LeavesBlockID(v)] = Foliage
	}
	for _, id := range block.Registered() {
		switch block.SupportOf(id) {
		case block.SupportAnchor:
			table[id] = Anchor
		case block.SupportFoliage:
			table[id] = Foliage
		}
	}
	return table
}

// BlockReader отдаёт ID блока; ok == false, если позиция не загружена.
type BlockReader interface {
	BlockIDAt(pos vec.Vec3) (id block.BlockID, ok bool)
}

type blockClassifier struct {
	reader BlockReader
	table  KindTable
}

// NewBlockClassifier собирает Classifier поверх чтения блоков и таблицы классов.
// Незагруженные позиции классифицируются как Obstacle: такая клетка не
// создаёт ложной опоры и только повышает шанс опадания.
func NewBlockClassifier(reader BlockReader, table KindTable) Classifier {
	if table == nil {
		table = DefaultKindTable()
	}
	return &blockClassifier{reader: reader, table: table}
}

func (c *blockClassifier) Classify(pos vec.Vec3) CellKind {
	id, ok := c.reader.BlockIDAt(pos)
	if !ok {
		return Obstacle
	}
	return c.table.Lookup(id)
}
