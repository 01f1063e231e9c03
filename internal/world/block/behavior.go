package block

import (
	"math/rand"

	"github.com/annel0/leafdecay/internal/vec"
)

type Metadata map[string]interface{}

// Ключи метаданных листвы
const (
	// MetaCheckDecay - бит «нужна проверка опадания». Сбрасывается, когда
	// листва нашла опору, и взводится заново при изменении соседних стволов.
	MetaCheckDecay = "check_decay"
	// MetaDecayable - false для листвы, поставленной игроком: она не опадает.
	MetaDecayable = "decayable"
)

// BlockBehavior определяет поведение блока
type BlockBehavior interface {
	ID() BlockID
	Name() string
	NeedsTick() bool
	TickUpdate(api BlockAPI, pos vec.Vec3)
	OnPlace(api BlockAPI, pos vec.Vec3)
	OnBreak(api BlockAPI, pos vec.Vec3)
	CreateMetadata() Metadata
}

// Dropper - блок, который при разрушении выпадает предметами
type Dropper interface {
	Drops(meta Metadata, rng *rand.Rand) []ItemStack
}

// Decayable - блок листвы, участвующий в проверке опадания
type Decayable interface {
	// Adjacency возвращает имя модели соседства ("orthogonal6" или "extended18")
	Adjacency() string
	// NeedsDecayCheck сообщает, взведён ли бит проверки для этих метаданных
	NeedsDecayCheck(meta Metadata) bool
}

// AsInt приводит числовое значение метаданных к int. Метаданные,
// пришедшие через JSON, содержат float64.
func AsInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	}
	return 0, false
}

// MetaInt читает целое значение метаданных с дефолтом
func MetaInt(meta Metadata, key string, def int) int {
	if meta == nil {
		return def
	}
	if v, ok := AsInt(meta[key]); ok {
		return v
	}
	return def
}

// MetaBool читает булево значение метаданных с дефолтом
func MetaBool(meta Metadata, key string, def bool) bool {
	if meta == nil {
		return def
	}
	if v, ok := meta[key].(bool); ok {
		return v
	}
	return def
}
