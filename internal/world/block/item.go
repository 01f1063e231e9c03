package block

// ItemStack - стопка предметов, выпадающая в мир
type ItemStack struct {
	Item  BlockID `json:"item"`
	Count int     `json:"count"`
}
