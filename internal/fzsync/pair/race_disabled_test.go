//go:build !race

package pair

const raceDetectorEnabled = false
