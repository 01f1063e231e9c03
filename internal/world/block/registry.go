package block

import "sort"

var registry = make(map[BlockID]BlockBehavior)

// Register добавляет поведение блока в регистр
func Register(id BlockID, behavior BlockBehavior) {
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// Registered возвращает отсортированный список зарегистрированных ID
func Registered() []BlockID {
	ids := make([]BlockID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ByName ищет блок по имени поведения (используется сценариями и админ-API)
func ByName(name string) (BlockID, bool) {
	for id, behavior := range registry {
		if behavior.Name() == name {
			return id, true
		}
	}
	return AirBlockID, false
}

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	GrassBlockID                // 2
	WaterBlockID                // 3
	DirtBlockID                 // 4

	// Стволы: LogBlockIDBase + WoodVariant
	LogBlockIDBase BlockID = 100

	// Листва: LeavesBlockIDBase + WoodVariant
	LeavesBlockIDBase BlockID = 200

	// Саженцы (выпадают из листвы): SaplingItemIDBase + WoodVariant
	SaplingItemIDBase BlockID = 300
)

// LogBlockID возвращает ID ствола для породы дерева
func LogBlockID(v WoodVariant) BlockID {
	return LogBlockIDBase + BlockID(v)
}

// LeavesBlockID возвращает ID листвы для породы дерева
func LeavesBlockID(v WoodVariant) BlockID {
	return LeavesBlockIDBase + BlockID(v)
}

// SaplingItemID возвращает ID саженца для породы дерева
func SaplingItemID(v WoodVariant) BlockID {
	return SaplingItemIDBase + BlockID(v)
}
