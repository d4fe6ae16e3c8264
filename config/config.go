/*
 * config.go, part of pdbsite.
 *
 * Copyright 2026 The pdbsite authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package config reads the YAML configuration of a pdbsite run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/geometry"
	"github.com/rmera/pdbsite/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// S3 holds the parameters of an optional S3 mirror of PDB files.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"pathStyle"`
	Key       string `yaml:"key"`
}

// Annotation holds the parameters of the protein annotation service.
type Annotation struct {
	URL      string `yaml:"url"`
	CacheDir string `yaml:"cacheDir"` //empty disables the local cache
	Version  string `yaml:"version"`
}

// Input describes the columns of a peptide file. Column indexes start at 0,
// a negative index means the column is absent.
type Input struct {
	SequenceColumn  int    `yaml:"sequenceColumn"`
	RatioColumn     int    `yaml:"ratioColumn"`
	AccessionColumn int    `yaml:"accessionColumn"`
	SkipHeader      bool   `yaml:"skipHeader"`
	Separator       string `yaml:"separator"` //TAB or COMMA
}

// Config is the configuration of a run.
type Config struct {
	CacheDir             string     `yaml:"cacheDir"` //PDB files are kept here
	ResultsDir           string     `yaml:"resultsDir"`
	LogFile              string     `yaml:"logFile"` //the result log. If empty it is named after the calculation
	RemoteURL            string     `yaml:"remoteURL"`
	S3                   *S3        `yaml:"s3"`
	AtomKinds            string     `yaml:"atomKinds"`
	RemoveOtherChains    bool       `yaml:"removeOtherChains"`
	RemoveOtherMolecules bool       `yaml:"removeOtherMolecules"`
	OneModelPerProtein   *bool      `yaml:"oneModelPerProtein"`
	Calculation          string     `yaml:"calculation"`
	DistanceThreshold    float64    `yaml:"distanceThreshold"`
	ProbeRadius          float64    `yaml:"probeRadius"`
	SpherePoints         int        `yaml:"spherePoints"`
	Annotation           Annotation `yaml:"annotation"`
	MinFreeGB            float64    `yaml:"minFreeGB"`
	Compression          string     `yaml:"compression"`
	Input                Input      `yaml:"input"`
	PDBIDs               []string   `yaml:"pdbIDs"` //for PDB_SURFACE runs
	LogLevel             string     `yaml:"logLevel"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	one := true
	return Config{
		CacheDir:           "pdb",
		ResultsDir:         ".",
		RemoteURL:          store.DefaultURL,
		AtomKinds:          "K NZ",
		OneModelPerProtein: &one,
		Calculation:        geometry.Surface.String(),
		DistanceThreshold:  2.0,
		ProbeRadius:        1.4,
		SpherePoints:       960,
		MinFreeGB:          1,
		Compression:        store.None,
		Input: Input{
			SequenceColumn:  0,
			RatioColumn:     -1,
			AccessionColumn: 1,
			Separator:       "TAB",
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path. Fields missing from the file take their
// default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	return Parse(data)
}

// Parse reads a configuration from YAML data.
func Parse(data []byte) (Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("config.Parse: %w", err)
	}
	def := Default()
	if config.CacheDir == "" {
		config.CacheDir = def.CacheDir
	}
	if config.ResultsDir == "" {
		config.ResultsDir = def.ResultsDir
	}
	if config.RemoteURL == "" {
		config.RemoteURL = def.RemoteURL
	}
	if config.AtomKinds == "" {
		config.AtomKinds = def.AtomKinds
	}
	if config.OneModelPerProtein == nil {
		config.OneModelPerProtein = def.OneModelPerProtein
	}
	if config.Calculation == "" {
		config.Calculation = def.Calculation
	}
	if config.DistanceThreshold == 0 {
		config.DistanceThreshold = def.DistanceThreshold
	}
	if config.ProbeRadius == 0 {
		config.ProbeRadius = def.ProbeRadius
	}
	if config.SpherePoints == 0 {
		config.SpherePoints = def.SpherePoints
	}
	if config.Compression == "" {
		config.Compression = def.Compression
	}
	if config.Input.Separator == "" {
		config.Input.Separator = def.Input.Separator
	}
	if config.LogLevel == "" {
		config.LogLevel = def.LogLevel
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the values that can't be corrected with a default.
func (C Config) Validate() error {
	if _, err := geometry.ParseKind(C.Calculation); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := ParseAtomKinds(C.AtomKinds); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := C.Separator(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if C.Compression != store.None && C.Compression != store.Zstd {
		return fmt.Errorf("config: unknown compression %q", C.Compression)
	}
	if _, err := logrus.ParseLevel(C.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if C.SpherePoints < 0 || C.ProbeRadius < 0 || C.DistanceThreshold < 0 {
		return fmt.Errorf("config: negative geometry parameter: %w", pdbsite.ErrMalformed)
	}
	return nil
}

// ParseAtomKinds parses a list of atom kinds such as "K NZ,C SG": comma
// separated pairs of a one-letter residue code and an atom name. A residue
// can appear more than once.
func ParseAtomKinds(s string) (pdbsite.AtomKinds, error) {
	ret := make(pdbsite.AtomKinds)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		f := strings.Fields(pair)
		if len(f) != 2 {
			return nil, fmt.Errorf("ParseAtomKinds: %q is not a residue and an atom name: %w", pair, pdbsite.ErrMalformed)
		}
		if len(f[0]) != 1 {
			return nil, fmt.Errorf("ParseAtomKinds: residue %q is not a one-letter code: %w", f[0], pdbsite.ErrMalformed)
		}
		aa := strings.ToUpper(f[0])[0]
		ret[aa] = append(ret[aa], strings.ToUpper(f[1]))
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("ParseAtomKinds: no atom kinds in %q: %w", s, pdbsite.ErrMalformed)
	}
	return ret, nil
}

// Kind returns the calculation kind.
func (C Config) Kind() geometry.Kind {
	k, _ := geometry.ParseKind(C.Calculation)
	return k
}

// Kinds returns the parsed atom kinds.
func (C Config) Kinds() pdbsite.AtomKinds {
	k, _ := ParseAtomKinds(C.AtomKinds)
	return k
}

// Flags returns the removal flags of the surface calculations.
func (C Config) Flags() pdbsite.Flags {
	return pdbsite.Flags{RemoveOtherChains: C.RemoveOtherChains, RemoveOtherMolecules: C.RemoveOtherMolecules}
}

// OneModel tells whether only one structure per protein is used.
func (C Config) OneModel() bool {
	return C.OneModelPerProtein == nil || *C.OneModelPerProtein
}

// GeometryOptions returns the options of the geometry strategies.
func (C Config) GeometryOptions() *geometry.Options {
	O := geometry.DefaultOptions()
	O.Probe(C.ProbeRadius)
	O.Points(C.SpherePoints)
	O.Threshold(C.DistanceThreshold)
	return O
}

// Separator returns the field separator of the input files.
func (C Config) Separator() (rune, error) {
	switch strings.ToUpper(C.Input.Separator) {
	case "TAB", "\t":
		return '\t', nil
	case "COMMA", ",":
		return ',', nil
	}
	return 0, fmt.Errorf("unknown separator %q: %w", C.Input.Separator, pdbsite.ErrMalformed)
}

// LogPath returns the path of the result log.
func (C Config) LogPath() string {
	name := C.LogFile
	if name == "" {
		name = C.Kind().LogName()
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(C.ResultsDir, name)
}

// StoreConfig returns the configuration of the structure store, without a
// fetcher.
func (C Config) StoreConfig(log *logrus.Logger) store.Config {
	return store.Config{Dir: C.CacheDir, Compression: C.Compression, MinFreeGB: C.MinFreeGB, Logger: log}
}

// S3Config returns the configuration of the S3 mirror, and false if there is none.
func (C Config) S3Config() (store.S3Config, bool) {
	if C.S3 == nil || C.S3.Bucket == "" {
		return store.S3Config{}, false
	}
	return store.S3Config{
		Region:    C.S3.Region,
		Bucket:    C.S3.Bucket,
		Endpoint:  C.S3.Endpoint,
		PathStyle: C.S3.PathStyle,
		Key:       C.S3.Key,
	}, true
}

// Logger returns a logger at the configured level.
func (C Config) Logger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(C.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
