package catalog

// Polynomial holds coefficients ordered from lowest to highest degree.
// It converts raw epoch values (for example Unix time) to MJD TAI;
// [40587.0, 1.0/86400] converts from Unix seconds.
type Polynomial []float64

// Eval evaluates the polynomial at x using Horner's rule.
func (p Polynomial) Eval(x float64) float64 {
	var y float64
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}
