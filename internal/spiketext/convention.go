package spiketext

import (
	"fmt"
	"strings"
)

// Convention names the reserved cluster ids of a clustering format.
// Reserved ids occupy the lowest values, with Noise < MUA, and sorted clusters
// start directly after MUA.
type Convention struct {
	Name  string
	Noise int
	MUA   int
}

// Neuroscope reserves cluster 0 for noise and cluster 1 for multi-unit activity.
var Neuroscope = Convention{Name: "neuroscope", Noise: 0, MUA: 1}

var conventions = map[string]Convention{
	Neuroscope.Name: Neuroscope,
}

// ConventionByName resolves a registered convention. An empty name selects Neuroscope.
func ConventionByName(name string) (Convention, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Neuroscope, nil
	}
	conv, ok := conventions[key]
	if !ok {
		return Convention{}, fmt.Errorf("unknown cluster convention %q", name)
	}
	return conv, nil
}

// Validate checks the reserved id ordering.
func (c Convention) Validate() error {
	if c.Noise < 0 {
		return fmt.Errorf("convention %q: noise cluster must be non-negative", c.Name)
	}
	if c.MUA <= c.Noise {
		return fmt.Errorf("convention %q: mua cluster must follow the noise cluster", c.Name)
	}
	return nil
}

// reserved lists the ids whose absence from a file is compensated in the declared count.
func (c Convention) reserved() []int {
	return []int{c.Noise, c.MUA}
}

// firstCluster returns the lowest cluster id that becomes a unit.
func (c Convention) firstCluster(keepMUA bool) int {
	if keepMUA {
		return c.MUA
	}
	return c.MUA + 1
}

// Options controls how a pair is decoded.
type Options struct {
	KeepMUAUnits bool
	Convention   Convention
}

// DefaultOptions keeps MUA units under the Neuroscope convention.
func DefaultOptions() Options {
	return Options{KeepMUAUnits: true, Convention: Neuroscope}
}

func (o Options) convention() Convention {
	if o.Convention.Name == "" && o.Convention.Noise == 0 && o.Convention.MUA == 0 {
		return Neuroscope
	}
	return o.Convention
}
