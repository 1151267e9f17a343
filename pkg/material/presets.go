package material

// Presets used by the canned scenes. Bands are low, mid, high.

func Concrete() *AcousticMaterial {
	return NewAcousticMaterial("concrete",
		[]float32{0.01, 0.02, 0.02},
		[]float32{0, 0, 0},
		[]float32{0.10, 0.15, 0.20})
}

func Carpet() *AcousticMaterial {
	return NewAcousticMaterial("carpet",
		[]float32{0.08, 0.37, 0.65},
		[]float32{0, 0, 0},
		[]float32{0.30, 0.50, 0.70})
}

func Glass() *AcousticMaterial {
	m := NewAcousticMaterial("glass",
		[]float32{0.18, 0.06, 0.04},
		[]float32{0.10, 0.04, 0.02},
		[]float32{0.05, 0.05, 0.05})
	m.ThicknessCm = 0.6
	return m
}

func Wood() *AcousticMaterial {
	return NewAcousticMaterial("wood",
		[]float32{0.15, 0.10, 0.07},
		[]float32{0.05, 0.02, 0.01},
		[]float32{0.20, 0.30, 0.40})
}

// Curtain is a heavy drape that lets part of the sound through
func Curtain() *AcousticMaterial {
	return NewAcousticMaterial("curtain",
		[]float32{0.10, 0.20, 0.30},
		[]float32{0.60, 0.50, 0.40},
		[]float32{0.50, 0.60, 0.70})
}

// Anechoic absorbs everything and transmits nothing
func Anechoic() *AcousticMaterial {
	return Uniform("anechoic", 1, 0, 1)
}
