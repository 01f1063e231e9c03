package block

// Support описывает роль блока в расчёте опоры листвы.
// Таблица закрытая: роль определяется один раз по ID, без обращения к поведению.
type Support uint8

const (
	SupportNone    Support = iota // не участвует
	SupportAnchor                 // ствол, удерживает листву
	SupportFoliage                // листва, может опадать
)

func (s Support) String() string {
	switch s {
	case SupportAnchor:
		return "anchor"
	case SupportFoliage:
		return "foliage"
	default:
		return "none"
	}
}

// SupportOf возвращает роль блока по его ID
func SupportOf(id BlockID) Support {
	switch {
	case id >= LogBlockIDBase && id < LogBlockIDBase+BlockID(woodVariantCount):
		return SupportAnchor
	case id >= LeavesBlockIDBase && id < LeavesBlockIDBase+BlockID(woodVariantCount):
		return SupportFoliage
	default:
		return SupportNone
	}
}

// VariantOf возвращает породу для ствола, листвы или саженца
func VariantOf(id BlockID) (WoodVariant, bool) {
	for _, base := range []BlockID{LogBlockIDBase, LeavesBlockIDBase, SaplingItemIDBase} {
		if id >= base && id < base+BlockID(woodVariantCount) {
			return WoodVariant(id - base), true
		}
	}
	return 0, false
}
