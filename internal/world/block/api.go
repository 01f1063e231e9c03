package block

import (
	"math/rand"

	"github.com/annel0/leafdecay/internal/vec"
)

// BlockAPI определяет интерфейс для взаимодействия блоков с игровым миром.
// Этот интерфейс предоставляет блокам возможность читать и изменять состояние
// мира, включая получение и установку блоков, работу с метаданными и
// управление системой обновлений.
type BlockAPI interface {
	// GetBlockID возвращает идентификатор блока в указанной позиции.
	GetBlockID(pos vec.Vec3) BlockID

	// SetBlock устанавливает блок в указанной позиции.
	SetBlock(pos vec.Vec3, id BlockID)

	// GetBlockMetadata возвращает значение метаданных блока по ключу.
	GetBlockMetadata(pos vec.Vec3, key string) interface{}

	// SetBlockMetadata устанавливает значение метаданных блока по ключу.
	SetBlockMetadata(pos vec.Vec3, key string, value interface{})

	// IsAreaLoaded сообщает, загружены ли все чанки в кубе радиуса radius.
	IsAreaLoaded(center vec.Vec3, radius int) bool

	// ScheduleUpdateOnce помечает блок для разового обновления в следующем тике.
	ScheduleUpdateOnce(pos vec.Vec3)

	// TriggerNeighborUpdates запускает разовое обновление для шести соседей.
	TriggerNeighborUpdates(pos vec.Vec3)

	// MarkFoliageForCheck взводит бит проверки опадания у всей листвы
	// в кубе радиуса radius вокруг center.
	MarkFoliageForCheck(center vec.Vec3, radius int)

	// Rand возвращает детерминированный источник случайности мира,
	// засеянный от сида конфигурации. Поведения не используют глобальный rand.
	Rand() *rand.Rand
}
