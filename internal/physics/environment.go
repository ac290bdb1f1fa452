package physics

// Environment is the ambient condition a run happens in. AirDensity is
// derived from Temperature and Altitude; build values with NewEnvironment.
type Environment struct {
	Temperature float64 `json:"temperature" yaml:"temperature"` // °C
	Altitude    float64 `json:"altitude" yaml:"altitude"`       // m
	Surface     Surface `json:"surface_condition" yaml:"surface_condition"`
	AirDensity  float64 `json:"air_density" yaml:"-"` // kg/m³
}

func NewEnvironment(temperatureC, altitudeM float64, surface Surface) Environment {
	return Environment{
		Temperature: temperatureC,
		Altitude:    altitudeM,
		Surface:     surface,
		AirDensity:  Density(temperatureC, altitudeM),
	}
}

// StandardEnvironment is ISA sea level on a dry surface.
func StandardEnvironment() Environment {
	return NewEnvironment(15, 0, Dry)
}

// Refresh recomputes the derived density, for values decoded from JSON or
// YAML where only temperature and altitude were supplied.
func (e Environment) Refresh() Environment {
	e.AirDensity = Density(e.Temperature, e.Altitude)
	return e
}
