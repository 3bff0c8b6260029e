package scene

// Band is one step of the temperature color scale.
type Band struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Label string `json:"label"`
}

var (
	BandIceBlue   = Band{Name: "ice-blue", Color: "#00BFFF", Label: "< 0°C"}
	BandBlue      = Band{Name: "blue", Color: "#4169E1", Label: "0-10°C"}
	BandGreen     = Band{Name: "green", Color: "#32CD32", Label: "10-20°C"}
	BandGold      = Band{Name: "gold", Color: "#FFD700", Label: "20-30°C"}
	BandOrangeRed = Band{Name: "orange-red", Color: "#FF4500", Label: "> 30°C"}
)

// TemperatureBand maps a temperature in °C to its color band. Boundary
// values belong to the upper band.
func TemperatureBand(celsius int) Band {
	switch {
	case celsius < 0:
		return BandIceBlue
	case celsius < 10:
		return BandBlue
	case celsius < 20:
		return BandGreen
	case celsius < 30:
		return BandGold
	default:
		return BandOrangeRed
	}
}

// Legend returns the bands from coldest to hottest.
func Legend() []Band {
	return []Band{BandIceBlue, BandBlue, BandGreen, BandGold, BandOrangeRed}
}
