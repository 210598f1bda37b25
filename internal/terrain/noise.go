package terrain

import "math"

// NoiseOracle is a deterministic, seeded fractal value-noise height field in
// world block coordinates. It stands in for a host terrain oracle.
type NoiseOracle struct {
	Seed        int64
	Base        float64 // Mean surface height
	Amplitude   float64
	Frequency   float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
}

// NewNoiseOracle returns rolling hills around base.
func NewNoiseOracle(seed int64, base int) *NoiseOracle {
	return &NoiseOracle{
		Seed:        seed,
		Base:        float64(base),
		Amplitude:   28,
		Frequency:   1.0 / 256,
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
	}
}

// Height returns the surface height at a world block position.
func (o *NoiseOracle) Height(worldX, worldZ int) int {
	n := o.fractalNoise(float64(worldX), float64(worldZ))
	return int(math.Round(o.Base + n*o.Amplitude))
}

func (o *NoiseOracle) fractalNoise(x, z float64) float64 {
	frequency := o.Frequency
	amplitude := 1.0
	noiseSum := 0.0
	maxAmplitude := 0.0

	for range o.Octaves {
		noiseSum += o.valueNoise(x*frequency, z*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= o.Persistence
		frequency *= o.Lacunarity
	}

	if maxAmplitude == 0 {
		return 0
	}
	return noiseSum / maxAmplitude
}

func (o *NoiseOracle) valueNoise(x, z float64) float64 {
	x0 := int(math.Floor(x))
	z0 := int(math.Floor(z))

	sx := smooth(x - float64(x0))
	sz := smooth(z - float64(z0))

	ix0 := lerp(random2D(x0, z0, o.Seed), random2D(x0+1, z0, o.Seed), sx)
	ix1 := lerp(random2D(x0, z0+1, o.Seed), random2D(x0+1, z0+1, o.Seed), sx)
	return lerp(ix0, ix1, sz)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func random2D(x, z int, seed int64) float64 {
	return float64(hash3(x, z, int(seed))&0xFFFF)/0x8000 - 1.0
}

func hash3(x, y, z int) uint32 {
	h := uint32(x*374761393 + y*668265263 + z*2147483647)
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}
