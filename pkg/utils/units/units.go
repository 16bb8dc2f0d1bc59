// Package units provides the customary byte size multiples.
package units

const (
	Kb = 1024
	Mb = Kb * Kb
	Gb = Mb * Kb
)
