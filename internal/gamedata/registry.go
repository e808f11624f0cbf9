package gamedata

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"

	"github.com/samdwyer/ancestralplane/internal/emotion"
)

// Data file names.
const (
	abilitiesFile = "abilities.json"
	realmsFile    = "realms.json"
	shadesFile    = "shades.json"
)

// ErrInvalidData is wrapped by every validation failure.
var ErrInvalidData = errors.New("invalid game data")

// Catalog is the loaded, validated tuning data.
type Catalog struct {
	abilities map[string]*AbilityDef
	byMode    map[emotion.Mode]*AbilityDef
	realms    []RealmDef
	shades    []ShadeDef
	weight    int
}

// LoadCatalog loads the embedded data files.
func LoadCatalog() (*Catalog, error) {
	return LoadCatalogFS(dataFS)
}

// MustLoadCatalog loads the embedded data, panicking on error.
// The embedded files are part of the build, so failure is a programming error.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalogFS loads and validates the data files from fsys.
func LoadCatalogFS(fsys fs.FS) (*Catalog, error) {
	abilities, err := LoadFS[AbilitiesFile](fsys, abilitiesFile)
	if err != nil {
		return nil, err
	}
	realms, err := LoadFS[RealmsFile](fsys, realmsFile)
	if err != nil {
		return nil, err
	}
	shades, err := LoadFS[ShadesFile](fsys, shadesFile)
	if err != nil {
		return nil, err
	}
	return NewCatalog(abilities.Abilities, realms.Realms, shades.Shades)
}

// NewCatalog builds a catalog from already decoded definitions.
func NewCatalog(abilities []AbilityDef, realms []RealmDef, shades []ShadeDef) (*Catalog, error) {
	c := &Catalog{
		abilities: make(map[string]*AbilityDef, len(abilities)),
		byMode:    make(map[emotion.Mode]*AbilityDef, len(abilities)),
		realms:    make([]RealmDef, len(realms)),
		shades:    shades,
	}

	for i := range abilities {
		a := &abilities[i]
		if _, dup := c.byMode[a.Mode]; dup {
			return nil, fmt.Errorf("%w: two abilities for mode %s", ErrInvalidData, a.Mode)
		}
		if timed, known := timedAbilities[a.ID]; known && timed != a.IsTimed() {
			return nil, fmt.Errorf("%w: ability %q timed=%v, want %v", ErrInvalidData, a.ID, a.IsTimed(), timed)
		}
		c.abilities[a.ID] = a
		c.byMode[a.Mode] = a
	}

	for _, r := range realms {
		if r.Index < 0 || r.Index >= len(realms) {
			return nil, fmt.Errorf("%w: realm %q has index %d", ErrInvalidData, r.ID, r.Index)
		}
		if c.realms[r.Index].ID != "" {
			return nil, fmt.Errorf("%w: duplicate realm index %d", ErrInvalidData, r.Index)
		}
		if g := r.Gate; g != nil && (g.MinSigned < -1 || g.MaxSigned > 1 || g.MinSigned > g.MaxSigned) {
			return nil, fmt.Errorf("%w: realm %q gate [%v, %v]", ErrInvalidData, r.ID, g.MinSigned, g.MaxSigned)
		}
		c.realms[r.Index] = r
	}
	if len(c.realms) == 0 {
		return nil, fmt.Errorf("%w: no realms defined", ErrInvalidData)
	}

	for _, s := range shades {
		if s.SpawnWeight <= 0 {
			return nil, fmt.Errorf("%w: shade %q has spawn weight %d", ErrInvalidData, s.ID, s.SpawnWeight)
		}
		c.weight += s.SpawnWeight
	}

	return c, nil
}

// Ability returns the ability definition with the given id, or nil.
func (c *Catalog) Ability(id string) *AbilityDef {
	return c.abilities[id]
}

// AbilityFor returns the ability bound to mode m, or nil (Neutral has none).
func (c *Catalog) AbilityFor(m emotion.Mode) *AbilityDef {
	return c.byMode[m]
}

// Realm returns the realm with the given index, or nil.
func (c *Catalog) Realm(index int) *RealmDef {
	if index < 0 || index >= len(c.realms) {
		return nil
	}
	return &c.realms[index]
}

// Realms returns every realm ordered by index.
func (c *Catalog) Realms() []RealmDef {
	return c.realms
}

// Shades returns every shade definition.
func (c *Catalog) Shades() []ShadeDef {
	return c.shades
}

// SpawnShade selects a shade definition by weighted probability.
func (c *Catalog) SpawnShade(rng *rand.Rand) *ShadeDef {
	if c.weight <= 0 {
		return nil
	}

	roll := rng.Intn(c.weight)
	cumulative := 0
	for i := range c.shades {
		cumulative += c.shades[i].SpawnWeight
		if roll < cumulative {
			return &c.shades[i]
		}
	}
	return &c.shades[len(c.shades)-1]
}
