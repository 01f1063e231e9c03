package world

import (
	"github.com/annel0/leafdecay/internal/world/block"
)

// Block представляет собой блок в игровом мире
type Block struct {
	ID      block.BlockID  `json:"id"`                // Идентификатор типа блока
	Payload block.Metadata `json:"payload,omitempty"` // Метаданные блока (состояние)
}

// NewBlock создаёт новый блок с указанным ID и инициализированными метаданными
func NewBlock(id block.BlockID) Block {
	behavior, exists := block.Get(id)
	if !exists {
		return Block{
			ID:      id,
			Payload: make(block.Metadata),
		}
	}

	return Block{
		ID:      id,
		Payload: behavior.CreateMetadata(),
	}
}

// GetBehavior возвращает поведение для блока
func (b Block) GetBehavior() (block.BlockBehavior, bool) {
	return block.Get(b.ID)
}

// Name возвращает имя поведения или пустую строку для незарегистрированного ID
func (b Block) Name() string {
	if behavior, ok := b.GetBehavior(); ok {
		return behavior.Name()
	}
	return ""
}

// NeedsTick возвращает true, если блок требует обновления в тиках
func (b Block) NeedsTick() bool {
	behavior, exists := b.GetBehavior()
	if !exists {
		return false
	}
	return behavior.NeedsTick()
}

// Clone создаёт копию блока
func (b Block) Clone() Block {
	return Block{
		ID:      b.ID,
		Payload: cloneMetadata(b.Payload),
	}
}
