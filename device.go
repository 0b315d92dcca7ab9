package fwsym

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Device is a hardware model that firmware is released for.
type Device struct {
	Identifier   string `yaml:"identifier"`
	Name         string `yaml:"name"`
	Architecture string `yaml:"architecture"`
}

// Devices is the set of devices to check, keyed by OS family.
type Devices map[string][]Device

var (
	//go:embed devices.yaml
	defaultDevices []byte
)

// DefaultDevices returns the built-in Devices.
func DefaultDevices() (Devices, error) {
	return DecodeDevices(bytes.NewReader(defaultDevices))
}

// DecodeDevices decodes YAML-encoded Devices from r.
func DecodeDevices(r io.Reader) (Devices, error) {
	devices := Devices{}

	if err := yaml.NewDecoder(r).Decode(&devices); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode devices: %w", err)
	}

	for family, list := range devices {
		for _, device := range list {
			if device.Identifier == "" || device.Architecture == "" {
				return nil, fmt.Errorf("device in %s is missing identifier or architecture", family)
			}
		}
	}

	return devices, nil
}

// ReadDevices reads YAML-encoded Devices from the file at name.
func ReadDevices(name string) (Devices, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeDevices(f)
}

// For returns a copy of the Devices of the given OS family, so
// that callers cannot mutate the configuration during a run.
func (d Devices) For(os string) []Device {
	return slices.Clone(d[os])
}

// Has reports whether os is a configured OS family.
func (d Devices) Has(os string) bool {
	_, ok := d[os]
	return ok
}
