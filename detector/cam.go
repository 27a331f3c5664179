package detector

import "github.com/arloliu/go-beamline/signal"

// Cam bundles the camera control points and readbacks the acquisition
// controller drives. Beamline assembly code wires each field to its device
// address; NewSimCam builds an in-process equivalent.
type Cam struct {
	AcquireTime   signal.Signal[float64]
	AcquirePeriod signal.Signal[float64]
	NumExposures  signal.Signal[int]
	NumImages     signal.Signal[int]
	NumTriggers   signal.Signal[int]
	ImageMode     signal.Signal[int]
	TriggerMode   signal.Signal[int]
	ROIMode       signal.Signal[int]
	PhotonEnergy  signal.Signal[float64]
	BeamCenterX   signal.Signal[float64]
	BeamCenterY   signal.Signal[float64]
	DetDistance   signal.Signal[float64]
	OmegaStart    signal.Signal[float64]
	OmegaIncr     signal.Signal[float64]
	Acquire       signal.Signal[int]

	// StaleParams goes high while camera settings are settling and drops to
	// zero when every pending write has been applied.
	StaleParams signal.Readback[int]
	// BitDepth reports the pixel bit depth the camera measured for the
	// configured energy.
	BitDepth signal.Readback[int]
}

// SimCam is a Cam backed by Sim signals, with the concrete sims exposed for
// test-side injection.
type SimCam struct {
	Cam

	StaleParamsSim *signal.Sim[int]
	BitDepthSim    *signal.Sim[int]
	PhotonSim      *signal.Sim[float64]
	AcquireSim     *signal.Sim[int]
}

// NewSimCam creates a simulated camera. All signals auto-settle; the stale
// parameters flag starts low and the bit depth defaults to 16.
func NewSimCam(j *signal.Journal) *SimCam {
	var fOpts []signal.SimOption[float64]
	var iOpts []signal.SimOption[int]
	if j != nil {
		fOpts = append(fOpts, signal.WithJournal[float64](j))
		iOpts = append(iOpts, signal.WithJournal[int](j))
	}

	staleParams := signal.NewSim("cam.stale_params", 0)
	bitDepth := signal.NewSim("cam.bit_depth", 16)
	photon := signal.NewSim("cam.photon_energy", 0.0, fOpts...)
	acquire := signal.NewSim("cam.acquire", 0, iOpts...)

	return &SimCam{
		Cam: Cam{
			AcquireTime:   signal.NewSim("cam.acquire_time", 0.0, fOpts...),
			AcquirePeriod: signal.NewSim("cam.acquire_period", 0.0, fOpts...),
			NumExposures:  signal.NewSim("cam.num_exposures", 0, iOpts...),
			NumImages:     signal.NewSim("cam.num_images", 0, iOpts...),
			NumTriggers:   signal.NewSim("cam.num_triggers", 0, iOpts...),
			ImageMode:     signal.NewSim("cam.image_mode", 0, iOpts...),
			TriggerMode:   signal.NewSim("cam.trigger_mode", 0, iOpts...),
			ROIMode:       signal.NewSim("cam.roi_mode", 0, iOpts...),
			PhotonEnergy:  photon,
			BeamCenterX:   signal.NewSim("cam.beam_center_x", 0.0, fOpts...),
			BeamCenterY:   signal.NewSim("cam.beam_center_y", 0.0, fOpts...),
			DetDistance:   signal.NewSim("cam.det_distance", 0.0, fOpts...),
			OmegaStart:    signal.NewSim("cam.omega_start", 0.0, fOpts...),
			OmegaIncr:     signal.NewSim("cam.omega_incr", 0.0, fOpts...),
			Acquire:       acquire,
			StaleParams:   staleParams,
			BitDepth:      bitDepth,
		},
		StaleParamsSim: staleParams,
		BitDepthSim:    bitDepth,
		PhotonSim:      photon,
		AcquireSim:     acquire,
	}
}
