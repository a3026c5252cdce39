package catalog

import "math"

// ABZeroFlux is the flux of a zero-magnitude source in the AB system,
// in janskys.
const ABZeroFlux = 3631.0

// FluxFromABMag converts an AB magnitude to a linear flux in janskys.
func FluxFromABMag(mag float64) float64 {
	return math.Pow(10, -0.4*mag) * ABZeroFlux
}

// ABMagFromFlux is the inverse of FluxFromABMag.
func ABMagFromFlux(flux float64) float64 {
	return -2.5 * math.Log10(flux/ABZeroFlux)
}

// FluxErrFromABMagErr propagates an AB magnitude error to a flux error
// at the given magnitude.
func FluxErrFromABMagErr(magErr, mag float64) float64 {
	return math.Abs(magErr) * (math.Ln10 / 2.5) * FluxFromABMag(mag)
}
