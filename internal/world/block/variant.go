package block

import "fmt"

// WoodVariant - порода дерева. Общая для стволов, листвы и саженцев.
type WoodVariant uint8

const (
	Fir WoodVariant = iota
	Palm
	Sakura
	Cedar
	Mangrove
	Lavender
	Seasonal
	Dead
	Aspen

	woodVariantCount // всегда последний
)

var woodVariantNames = [...]string{
	Fir:      "fir",
	Palm:     "palm",
	Sakura:   "sakura",
	Cedar:    "cedar",
	Mangrove: "mangrove",
	Lavender: "lavender",
	Seasonal: "seasonal",
	Dead:     "dead",
	Aspen:    "aspen",
}

// WoodVariants возвращает все породы в порядке их ID
func WoodVariants() []WoodVariant {
	out := make([]WoodVariant, 0, woodVariantCount)
	for v := WoodVariant(0); v < woodVariantCount; v++ {
		out = append(out, v)
	}
	return out
}

func (v WoodVariant) String() string {
	if v < woodVariantCount {
		return woodVariantNames[v]
	}
	return fmt.Sprintf("wood(%d)", uint8(v))
}

// ParseWoodVariant разбирает имя породы из конфигурации
func ParseWoodVariant(name string) (WoodVariant, error) {
	for v, n := range woodVariantNames {
		if n == name {
			return WoodVariant(v), nil
		}
	}
	return 0, fmt.Errorf("неизвестная порода дерева %q", name)
}
