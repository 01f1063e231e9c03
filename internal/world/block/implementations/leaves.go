package implementations

import (
	"fmt"
	"math/rand"

	"github.com/annel0/leafdecay/internal/decay"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// DefaultSaplingChance - листва роняет саженец с шансом 1 к 20
const DefaultSaplingChance = 20

// LeavesBehavior - листва одной породы. Опадает, если в радиусе 4
// не осталось связанного с ней ствола.
type LeavesBehavior struct {
	Variant block.WoodVariant
	// AdjacencyName - модель соседства: пальме нужны диагонали по рёбрам.
	AdjacencyName string
	// SaplingChance - саженец выпадает с шансом 1/SaplingChance; 0 - никогда.
	SaplingChance int
}

// NewLeavesBehavior создаёт листву с настройками по умолчанию
func NewLeavesBehavior(v block.WoodVariant) *LeavesBehavior {
	adj := decay.Orthogonal6
	if v == block.Palm {
		adj = decay.Extended18
	}
	return &LeavesBehavior{
		Variant:       v,
		AdjacencyName: adj.String(),
		SaplingChance: DefaultSaplingChance,
	}
}

func (b *LeavesBehavior) ID() block.BlockID {
	return block.LeavesBlockID(b.Variant)
}

func (b *LeavesBehavior) Name() string {
	return b.Variant.String() + "_leaves"
}

// NeedsTick - листва получает случайные тики через планировщик опадания
func (b *LeavesBehavior) NeedsTick() bool { return true }

// TickUpdate не используется: тик листвы обрабатывает планировщик опадания.
func (b *LeavesBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) {}

func (b *LeavesBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3) {}

// OnBreak будит ближайшую листву: она могла держаться через этот блок.
func (b *LeavesBehavior) OnBreak(api block.BlockAPI, pos vec.Vec3) {
	if !api.IsAreaLoaded(pos, 2) {
		return
	}
	api.MarkFoliageForCheck(pos, 1)
}

// CreateMetadata: естественная листва опадает и сразу ждёт проверки
func (b *LeavesBehavior) CreateMetadata() block.Metadata {
	return block.Metadata{
		block.MetaDecayable:  true,
		block.MetaCheckDecay: true,
	}
}

// PlayerPlacedMetadata - метаданные листвы, поставленной игроком
func PlayerPlacedMetadata() block.Metadata {
	return block.Metadata{
		block.MetaDecayable:  false,
		block.MetaCheckDecay: false,
	}
}

func (b *LeavesBehavior) Adjacency() string {
	return b.AdjacencyName
}

// NeedsDecayCheck: опадающая листва с взведённым битом проверки
func (b *LeavesBehavior) NeedsDecayCheck(meta block.Metadata) bool {
	return block.MetaBool(meta, block.MetaDecayable, true) &&
		block.MetaBool(meta, block.MetaCheckDecay, true)
}

// Drops возвращает саженец своей породы с шансом 1/SaplingChance
func (b *LeavesBehavior) Drops(meta block.Metadata, rng *rand.Rand) []block.ItemStack {
	if b.SaplingChance <= 0 || rng == nil {
		return nil
	}
	if rng.Intn(b.SaplingChance) != 0 {
		return nil
	}
	return []block.ItemStack{{Item: block.SaplingItemID(b.Variant), Count: 1}}
}

// LeavesOverrides - настройки листвы по имени породы
type LeavesOverrides struct {
	Adjacency     map[string]string
	SaplingChance map[string]int
}

// ConfigureLeaves перерегистрирует листву всех пород с учётом настроек.
func ConfigureLeaves(o LeavesOverrides) error {
	behaviors := make([]*LeavesBehavior, 0, len(block.WoodVariants()))
	for _, v := range block.WoodVariants() {
		behaviors = append(behaviors, NewLeavesBehavior(v))
	}

	for name, adjName := range o.Adjacency {
		v, err := block.ParseWoodVariant(name)
		if err != nil {
			return err
		}
		adj, err := decay.ParseAdjacency(adjName)
		if err != nil {
			return fmt.Errorf("листва %s: %w", name, err)
		}
		behaviors[v].AdjacencyName = adj.String()
	}

	for name, chance := range o.SaplingChance {
		v, err := block.ParseWoodVariant(name)
		if err != nil {
			return err
		}
		if chance < 0 {
			return fmt.Errorf("листва %s: отрицательный шанс саженца %d", name, chance)
		}
		behaviors[v].SaplingChance = chance
	}

	for _, b := range behaviors {
		block.Register(b.ID(), b)
	}
	return nil
}
