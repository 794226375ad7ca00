// SPDX-License-Identifier: MIT
//
// File: instance.go
// Role: Problem instance schema and its conversion to corridor, safety
//       table and fleet.

package config

import (
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

// Instance errors.
var (
	// ErrUnknownStation indicates a reference to a station not listed in
	// Instance.Stations.
	ErrUnknownStation = errors.New("config: unknown station")

	// ErrDuplicateStation indicates a station listed twice.
	ErrDuplicateStation = errors.New("config: duplicate station")
)

// Instance is one timetabling problem.
type Instance struct {
	Horizon     int          `yaml:"horizon" validate:"gt=0"`
	Stations    []string     `yaml:"stations" validate:"min=2,dive,required"`
	Sections    []SectionDef `yaml:"sections" validate:"min=1,dive"`
	Dwell       []DwellDef   `yaml:"dwell" validate:"dive"`
	Supplements []SupplDef   `yaml:"supplements" validate:"dive"`
	Safety      []SafetyDef  `yaml:"safety" validate:"dive"`
	Trains      []TrainDef   `yaml:"trains" validate:"min=1,dive"`
}

// SectionDef gives the run time of a station pair per speed class.
type SectionDef struct {
	From        string      `yaml:"from" validate:"required"`
	To          string      `yaml:"to" validate:"required,nefield=From"`
	RunTimes    map[int]int `yaml:"run_times" validate:"min=1,dive,keys,gte=0,endkeys,gt=0"`
	SingleTrack bool        `yaml:"single_track"`
}

// DwellDef bounds the stop duration at a station.
type DwellDef struct {
	Station string `yaml:"station" validate:"required"`
	Min     int    `yaml:"min" validate:"gte=0"`
	Max     int    `yaml:"max" validate:"gtefield=Min"`
}

// SupplDef is the braking (stop) and acceleration (start) supplement of a
// speed class at a station.
type SupplDef struct {
	Station string `yaml:"station" validate:"required"`
	Speed   int    `yaml:"speed" validate:"gte=0"`
	Stop    int    `yaml:"stop" validate:"gte=0"`
	Start   int    `yaml:"start" validate:"gte=0"`
}

// SafetyDef is one safety-interval entry.
type SafetyDef struct {
	Station  string `yaml:"station" validate:"required"`
	Speed    int    `yaml:"speed" validate:"gte=0"`
	Category string `yaml:"category" validate:"oneof=aa ap pa pp ss sp ps"`
	Interval int    `yaml:"interval" validate:"gte=0"`
}

// TrainDef is one train's operating plan.
type TrainDef struct {
	ID        string   `yaml:"id" validate:"required"`
	Route     []string `yaml:"route" validate:"min=2,dive,required"`
	Stops     []string `yaml:"stops"`
	Speed     int      `yaml:"speed" validate:"gte=0"`
	Departure int      `yaml:"departure" validate:"gte=0"`
	Window    int      `yaml:"window" validate:"gte=0"`
}

// LoadInstance reads and validates the instance file at path.
func LoadInstance(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: open")
	}
	defer f.Close()

	in, err := DecodeInstance(f)
	if err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}

	return in, nil
}

// DecodeInstance reads an instance document from r and validates it.
func DecodeInstance(r io.Reader) (*Instance, error) {
	var in Instance
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if err := validator.New().Struct(&in); err != nil {
		return nil, errors.Wrap(err, "validate")
	}
	if err := in.checkStations(); err != nil {
		return nil, err
	}

	return &in, nil
}

func (in *Instance) checkStations() error {
	known := make(map[string]bool, len(in.Stations))
	for _, s := range in.Stations {
		if known[s] {
			return errors.Wrap(ErrDuplicateStation, s)
		}
		known[s] = true
	}
	check := func(where, s string) error {
		if !known[s] {
			return errors.Wrapf(ErrUnknownStation, "%s: %q", where, s)
		}
		return nil
	}
	for _, sec := range in.Sections {
		if err := check("section", sec.From); err != nil {
			return err
		}
		if err := check("section", sec.To); err != nil {
			return err
		}
	}
	for _, d := range in.Dwell {
		if err := check("dwell", d.Station); err != nil {
			return err
		}
	}
	for _, s := range in.Supplements {
		if err := check("supplement", s.Station); err != nil {
			return err
		}
	}
	for _, s := range in.Safety {
		if err := check("safety", s.Station); err != nil {
			return err
		}
	}
	for _, tr := range in.Trains {
		for _, s := range tr.Route {
			if err := check("train "+tr.ID, s); err != nil {
				return err
			}
		}
		for _, s := range tr.Stops {
			if err := check("train "+tr.ID+" stop", s); err != nil {
				return err
			}
		}
	}

	return nil
}

// Corridor returns the infrastructure part of the instance.
func (in *Instance) Corridor() *timegraph.Corridor {
	c := &timegraph.Corridor{
		Stations:    append([]string(nil), in.Stations...),
		RunTimes:    make(map[int]map[timegraph.Section]int),
		MinDwell:    make(map[string]int, len(in.Dwell)),
		MaxDwell:    make(map[string]int, len(in.Dwell)),
		StopAdd:     make(map[int]map[string]int),
		StartAdd:    make(map[int]map[string]int),
		SingleTrack: make(map[timegraph.Section]bool),
	}
	for _, sec := range in.Sections {
		s := timegraph.Section{From: sec.From, To: sec.To}
		for speed, run := range sec.RunTimes {
			if c.RunTimes[speed] == nil {
				c.RunTimes[speed] = make(map[timegraph.Section]int)
			}
			c.RunTimes[speed][s] = run
		}
		if sec.SingleTrack {
			c.SingleTrack[s] = true
		}
	}
	for _, d := range in.Dwell {
		c.MinDwell[d.Station], c.MaxDwell[d.Station] = d.Min, d.Max
	}
	for _, s := range in.Supplements {
		if c.StopAdd[s.Speed] == nil {
			c.StopAdd[s.Speed] = make(map[string]int)
			c.StartAdd[s.Speed] = make(map[string]int)
		}
		c.StopAdd[s.Speed][s.Station] = s.Stop
		c.StartAdd[s.Speed][s.Station] = s.Start
	}

	return c
}

// Table returns the safety-interval table.
func (in *Instance) Table() (*safety.Table, error) {
	t := safety.NewTable()
	for _, s := range in.Safety {
		cat, err := safety.ParseCategory(s.Category)
		if err != nil {
			return nil, errors.Wrapf(err, "config: safety at %s", s.Station)
		}
		if err = t.Set(s.Station, s.Speed, cat, s.Interval); err != nil {
			return nil, errors.Wrap(err, "config")
		}
	}

	return t, nil
}

// Fleet builds every train graph over corridor c.
func (in *Instance) Fleet(c *timegraph.Corridor) (fleet.Fleet, error) {
	f := make(fleet.Fleet, 0, len(in.Trains))
	for _, td := range in.Trains {
		stops := make(map[string]bool, len(td.Stops))
		for _, s := range td.Stops {
			stops[s] = true
		}
		tr, err := fleet.NewTrain(td.ID, c, timegraph.Route{
			Stations:           td.Route,
			Stops:              stops,
			Speed:              td.Speed,
			PreferredDeparture: td.Departure,
			Window:             td.Window,
		}, in.Horizon)
		if err != nil {
			return nil, errors.Wrapf(err, "config: train %s", td.ID)
		}
		f = append(f, tr)
	}
	if err := f.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}

	return f, nil
}

// Problem bundles the converted instance.
type Problem struct {
	Corridor *timegraph.Corridor
	Table    *safety.Table
	Fleet    fleet.Fleet
}

// Build converts the whole instance.
func (in *Instance) Build() (*Problem, error) {
	c := in.Corridor()
	t, err := in.Table()
	if err != nil {
		return nil, err
	}
	f, err := in.Fleet(c)
	if err != nil {
		return nil, err
	}

	return &Problem{Corridor: c, Table: t, Fleet: f}, nil
}
