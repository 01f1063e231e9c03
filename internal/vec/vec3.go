package vec

import "fmt"

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Y - вертикальная ось, колонки чанков режутся по X и Z.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Center возвращает центр блока в мировых координатах
func (v Vec3) Center() Vec3Float {
	return Vec3Float{
		X: float64(v.X) + 0.5,
		Y: float64(v.Y) + 0.5,
		Z: float64(v.Z) + 0.5,
	}
}

// DistanceTo возвращает квадрат расстояния до другого вектора
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return float64(dx*dx + dy*dy + dz*dz)
}

// ChebyshevTo возвращает расстояние Чебышёва (максимум модулей разностей)
func (v Vec3) ChebyshevTo(other Vec3) int {
	return max(abs(v.X-other.X), abs(v.Y-other.Y), abs(v.Z-other.Z))
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// ChunkCoords возвращает координаты колонки чанка, в которой лежит блок
func (v Vec3) ChunkCoords() Vec2 {
	return Vec2{X: v.X >> 4, Y: v.Z >> 4}
}

// LocalInChunk возвращает локальные координаты внутри чанка (высота не меняется)
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: v.X & 0xF, Y: v.Y, Z: v.Z & 0xF}
}

// Less задаёт детерминированный порядок обхода (X, затем Y, затем Z)
func (v Vec3) Less(other Vec3) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
