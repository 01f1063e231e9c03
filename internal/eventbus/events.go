package eventbus

// Типы событий мира, публикуемых в шину
const (
	TypeBlockEvent     = "BlockEvent"
	TypeItemSpawnEvent = "ItemSpawnEvent"
	TypeEffectEvent    = "EffectEvent"
	TypeDecayEvent     = "DecayEvent"
	TypeSyncBatch      = "SyncBatch"
)

// Position - мировые координаты блока в полезной нагрузке
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// BlockEvent - блок в позиции изменился
type BlockEvent struct {
	Position Position               `json:"pos"`
	Previous uint16                 `json:"prev"`
	BlockID  uint16                 `json:"block_id"`
	Metadata map[string]interface{} `json:"meta,omitempty"`
	Cause    string                 `json:"cause,omitempty"` // "set", "decay", "api"
}

// ItemSpawnEvent - в мире появился выпавший предмет
type ItemSpawnEvent struct {
	ItemID   string   `json:"id"`
	Item     uint16   `json:"item"`
	Count    int      `json:"count"`
	Position Position `json:"pos"`
}

// EffectEvent - визуальный эффект для клиентов
type EffectEvent struct {
	Effect   string   `json:"effect"`
	Position Position `json:"pos"`
	BlockID  uint16   `json:"block_id"`
}

// DecayEvent - итог проверки опадания листвы
type DecayEvent struct {
	Position  Position `json:"pos"`
	BlockID   uint16   `json:"block_id"`
	Outcome   string   `json:"outcome"`
	Distance  int      `json:"distance"`
	Adjacency string   `json:"adjacency"`
}
