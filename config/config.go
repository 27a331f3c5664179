// Package config loads beamline configuration: the aperture preset table
// from a GDA-style beamline parameter file, and acquisition parameters from a
// schema-validated JSON file.
//
// Device topology and address configuration stay outside the coordination
// core; this package only produces the validated values the coordinators
// consume.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-beamline/aperture"
)

// beamline parameter key fragments, GDA naming
const (
	keyLargeAperture  = "LARGE_APERTURE"
	keyMediumAperture = "MEDIUM_APERTURE"
	keySmallAperture  = "SMALL_APERTURE"
	keyRobotLoad      = "ROBOT_LOAD"
)

// LoadAperturePositions reads a YAML beamline parameter file and builds the
// aperture preset table from its GDA-style keys, for example
// miniap_x_LARGE_APERTURE and sg_y_ROBOT_LOAD.
func LoadAperturePositions(path string) (*aperture.Positions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read beamline parameters %s: %w", path, err)
	}

	params := make(map[string]float64)
	if err := yaml.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("parse beamline parameters %s: %w", path, err)
	}

	return AperturePositionsFromBeamlineParams(params)
}

// AperturePositionsFromBeamlineParams builds the preset table from an
// already-loaded beamline parameter map.
func AperturePositionsFromBeamlineParams(params map[string]float64) (*aperture.Positions, error) {
	large, err := presetFromParams(params, keyLargeAperture)
	if err != nil {
		return nil, err
	}
	medium, err := presetFromParams(params, keyMediumAperture)
	if err != nil {
		return nil, err
	}
	small, err := presetFromParams(params, keySmallAperture)
	if err != nil {
		return nil, err
	}
	robotLoad, err := presetFromParams(params, keyRobotLoad)
	if err != nil {
		return nil, err
	}

	return &aperture.Positions{
		Large:     large,
		Medium:    medium,
		Small:     small,
		RobotLoad: robotLoad,
	}, nil
}

func presetFromParams(params map[string]float64, preset string) (aperture.Position, error) {
	var pos aperture.Position

	fields := []struct {
		prefix string
		target *float64
	}{
		{"miniap_x_", &pos.ApX},
		{"miniap_y_", &pos.ApY},
		{"miniap_z_", &pos.ApZ},
		{"sg_x_", &pos.SgX},
		{"sg_y_", &pos.SgY},
	}

	for _, field := range fields {
		key := field.prefix + preset
		val, ok := params[key]
		if !ok {
			return pos, fmt.Errorf("beamline parameter %s is missing", key)
		}
		*field.target = val
	}

	return pos, nil
}
