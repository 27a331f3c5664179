package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/arloliu/go-beamline/detector"
)

//go:embed params_schema.json
var paramsSchemaJSON string

var paramsSchema = jsonschema.MustCompileString("params_schema.json", paramsSchemaJSON)

// paramsFile is the wire form of an acquisition parameter file.
type paramsFile struct {
	CurrentEnergy              float64 `json:"current_energy"`
	ExposureTime               float64 `json:"exposure_time"`
	Directory                  string  `json:"directory"`
	Prefix                     string  `json:"prefix"`
	RunNumber                  int     `json:"run_number"`
	DetectorDistance           float64 `json:"detector_distance"`
	OmegaStart                 float64 `json:"omega_start"`
	OmegaIncrement             float64 `json:"omega_increment"`
	NumTriggers                int     `json:"num_triggers"`
	NumImagesPerTrigger        int     `json:"num_images_per_trigger"`
	UseROIMode                 bool    `json:"use_roi_mode"`
	DetDistToBeamConverterPath string  `json:"det_dist_to_beam_converter_path"`
	TriggerMode                string  `json:"trigger_mode"`
	Detector                   string  `json:"detector"`
}

// LoadParams reads an acquisition parameter JSON file, validates it against
// the embedded schema and resolves the detector model into size constants.
//
// The beam position converter is beamline math outside the coordination core
// and stays nil; callers supply it before handing the parameters to the
// controller.
func LoadParams(path string) (*detector.Params, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read acquisition parameters %s: %w", path, err)
	}

	return ParseParams(raw)
}

// ParseParams validates and decodes raw acquisition parameter JSON.
func ParseParams(raw []byte) (*detector.Params, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse acquisition parameters: %w", err)
	}
	if err := paramsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("acquisition parameters do not match schema: %w", err)
	}

	var file paramsFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode acquisition parameters: %w", err)
	}

	triggerMode, err := parseTriggerMode(file.TriggerMode)
	if err != nil {
		return nil, err
	}

	sizeConstants, err := detector.LookupSizeConstants(file.Detector)
	if err != nil {
		return nil, err
	}

	return &detector.Params{
		CurrentEnergy:              file.CurrentEnergy,
		ExposureTime:               file.ExposureTime,
		Directory:                  detector.NormalizeDirectory(file.Directory),
		Prefix:                     file.Prefix,
		RunNumber:                  file.RunNumber,
		DetectorDistance:           file.DetectorDistance,
		OmegaStart:                 file.OmegaStart,
		OmegaIncrement:             file.OmegaIncrement,
		NumTriggers:                file.NumTriggers,
		NumImagesPerTrigger:        file.NumImagesPerTrigger,
		UseROIMode:                 file.UseROIMode,
		DetDistToBeamConverterPath: file.DetDistToBeamConverterPath,
		TriggerMode:                triggerMode,
		SizeConstants:              &sizeConstants,
	}, nil
}

func parseTriggerMode(mode string) (detector.TriggerMode, error) {
	switch mode {
	case "free_run":
		return detector.FreeRun, nil
	case "set_frames":
		return detector.SetFrames, nil
	default:
		return 0, fmt.Errorf("unknown trigger mode: %s", mode)
	}
}
