package detector

import (
	"errors"
	"fmt"
	"strings"
)

// PixelDims is a pixel dimension record of a detector readout area.
type PixelDims struct {
	Width  int
	Height int
}

// SizeConstants holds the pixel geometry of a detector model: the full
// readout area and the reduced region-of-interest area.
type SizeConstants struct {
	Name          string
	DetSizePixels PixelDims
	ROISizePixels PixelDims
}

// BeamXYConverter derives the beam centre, in pixels, from the detector
// distance. Implementations wrap a beamline lookup table; the lookup math
// itself is outside the coordination core.
type BeamXYConverter interface {
	BeamPositionPixels(detectorDistance float64) (x float64, y float64)
}

// Params holds the acquisition parameters of one data collection run.
//
// Directory always carries exactly one trailing separator; NormalizeDirectory
// enforces the invariant and is idempotent.
type Params struct {
	CurrentEnergy       float64
	ExposureTime        float64
	Directory           string
	Prefix              string
	RunNumber           int
	DetectorDistance    float64
	OmegaStart          float64
	OmegaIncrement      float64
	NumTriggers         int
	NumImagesPerTrigger int
	UseROIMode          bool

	// DetDistToBeamConverterPath is the beamline lookup table the
	// BeamXYConverter was built from, kept for run metadata.
	DetDistToBeamConverterPath string

	TriggerMode     TriggerMode
	SizeConstants   *SizeConstants
	BeamXYConverter BeamXYConverter
}

// NormalizeDirectory appends exactly one trailing separator if absent. It
// never duplicates an existing one.
func NormalizeDirectory(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}

// Validate checks the parameter preconditions that staging relies on.
//
// All violations are aggregated into a single error, one line per violated
// precondition, rather than failing on the first.
func (p *Params) Validate() error {
	var errs []error

	if p.SizeConstants == nil {
		errs = append(errs, ErrSizeConstantsNotSet)
	}
	if p.BeamXYConverter == nil {
		errs = append(errs, ErrBeamConverterNotSet)
	}

	return errors.Join(errs...)
}

// FullFilename derives the run filename from the prefix and run number.
func (p *Params) FullFilename() string {
	return fmt.Sprintf("%s_%d", p.Prefix, p.RunNumber)
}

// FullNumberOfImages is the total frame count of the run.
func (p *Params) FullNumberOfImages() int {
	return p.NumTriggers * p.NumImagesPerTrigger
}

// BeamPositionPixels returns the beam centre for the configured detector
// distance.
func (p *Params) BeamPositionPixels() (float64, float64) {
	return p.BeamXYConverter.BeamPositionPixels(p.DetectorDistance)
}
