// Package catalog defines investment tracks and loads the read-only catalog
// the matcher scores against.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tracks.yaml
var defaultCatalog []byte

// Sentinel kinds for catalog errors.
var (
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrLoadCatalog    = errors.New("load catalog failed")
)

// ESGProfile is a track's environmental, social and governance emphasis.
type ESGProfile struct {
	E float64 `json:"E" yaml:"E"`
	S float64 `json:"S" yaml:"S"`
	G float64 `json:"G" yaml:"G"`
}

// Track is a predefined investment strategy scored against user preferences.
type Track struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	NameEn      string     `json:"nameEn" yaml:"nameEn"`
	Description string     `json:"description" yaml:"description"`
	RiskLevel   float64    `json:"riskLevel" yaml:"riskLevel"`
	TimeHorizon float64    `json:"timeHorizon" yaml:"timeHorizon"`
	ESGProfile  ESGProfile `json:"esgProfile" yaml:"esgProfile"`
	SDGs        []int      `json:"sdgs" yaml:"sdgs"`
	Examples    []string   `json:"examples" yaml:"examples"`
}

// Catalog is an immutable, ordered set of tracks.
type Catalog struct {
	tracks []Track
	byID   map[string]int
}

type document struct {
	Tracks []Track `yaml:"tracks"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a YAML catalog from path; an empty path selects the default.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	return New(doc.Tracks)
}

// New validates tracks and builds a catalog that owns copies of them.
func New(tracks []Track) (*Catalog, error) {
	c := &Catalog{
		tracks: make([]Track, 0, len(tracks)),
		byID:   make(map[string]int, len(tracks)),
	}
	for i, t := range tracks {
		if err := validate(t); err != nil {
			return nil, fmt.Errorf("%w: track %d: %w", ErrInvalidCatalog, i, err)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate track id %q", ErrInvalidCatalog, t.ID)
		}
		c.byID[t.ID] = len(c.tracks)
		c.tracks = append(c.tracks, clone(t))
	}
	return c, nil
}

func validate(t Track) error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("missing id")
	}
	for name, v := range map[string]float64{
		"riskLevel":    t.RiskLevel,
		"timeHorizon":  t.TimeHorizon,
		"esgProfile.E": t.ESGProfile.E,
		"esgProfile.S": t.ESGProfile.S,
		"esgProfile.G": t.ESGProfile.G,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s of %q out of range: %v", name, t.ID, v)
		}
	}
	for _, sdg := range t.SDGs {
		if sdg < 1 || sdg > 17 {
			return fmt.Errorf("sdg %d of %q out of range", sdg, t.ID)
		}
	}
	return nil
}

func clone(t Track) Track {
	t.SDGs = append([]int(nil), t.SDGs...)
	t.Examples = append([]string(nil), t.Examples...)
	return t
}

// Tracks returns a copy of the tracks in catalog order.
func (c *Catalog) Tracks() []Track {
	out := make([]Track, len(c.tracks))
	for i, t := range c.tracks {
		out[i] = clone(t)
	}
	return out
}

// Get looks a track up by id.
func (c *Catalog) Get(id string) (Track, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Track{}, false
	}
	return clone(c.tracks[i]), true
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	return len(c.tracks)
}
