package config

import (
	"embed"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed scenes/*.yaml
var builtinScenes embed.FS

// Vec is a YAML-friendly 3D vector: [x, y, z]
type Vec [3]float64

// Scene describes one configuration of the simulation: which emitters exist,
// which forces act on their entities, and the scoring rules that apply.
type Scene struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	YUp         bool          `yaml:"yUp"` // world Y points up when rendered
	Rules       Rules         `yaml:"rules"`
	Forces      []ForceSpec   `yaml:"forces"`
	Emitters    []EmitterSpec `yaml:"emitters"`
}

// Rules holds the scoring and round settings of a shooter scene.
type Rules struct {
	HitRadius    float64 `yaml:"hitRadius"`
	RoundSeconds float64 `yaml:"roundSeconds"` // 0 = endless
	Lives        int     `yaml:"lives"`
	LifePenalty  int     `yaml:"lifePenalty"` // lives lost per enemy shot
	Thrust       float64 `yaml:"thrust"`      // player thrust magnitude
	TurnRate     float64 `yaml:"turnRate"`    // degrees/s added per turn command
}

// ForceSpec is a named force that emitters bind by name.
type ForceSpec struct {
	Name      string  `yaml:"name"`
	Kind      string  `yaml:"kind"` // gravity, turbulence, radial, cyclic, thrust
	Vector    Vec     `yaml:"vector"`
	Min       Vec     `yaml:"min"`
	Max       Vec     `yaml:"max"`
	Strength  float64 `yaml:"strength"`
	Height    float64 `yaml:"height"`
	Axis      Vec     `yaml:"axis"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Magnitude float64 `yaml:"magnitude"`
}

// EmitterSpec describes one emitter and the template of what it spawns.
type EmitterSpec struct {
	Name      string  `yaml:"name"`
	Role      string  `yaml:"role"` // player, enemy, effect, ambient
	Mode      string  `yaml:"mode"` // continuous, burst
	Rate      float64 `yaml:"rate"`
	RateMin   float64 `yaml:"rateMin"` // re-rolled every tick when both set
	RateMax   float64 `yaml:"rateMax"`
	BurstSize int     `yaml:"burstSize"`
	Position  Vec     `yaml:"position"`
	Rotation  float64 `yaml:"rotation"`
	Physics   bool    `yaml:"physics"` // integrate with forces instead of translating
	Autostart bool    `yaml:"autostart"`
	Drain     bool    `yaml:"drain"`    // keep moving spawned entities while stopped
	ReplayMS  float64 `yaml:"replayMs"` // bursts replay on this period, 0 = once

	Velocity     Vec     `yaml:"velocity"`
	LifespanMS   float64 `yaml:"lifespanMs"` // -1 = immortal
	Mass         float64 `yaml:"mass"`    // 0 = default of 1
	Damping      float64 `yaml:"damping"` // in (0,1], 0 = default of 1 (no drag)
	SpeedJitter  float64 `yaml:"speedJitter"`
	Planar       bool    `yaml:"planar"`
	AlignHeading bool    `yaml:"alignHeading"`

	Color      string  `yaml:"color"`      // emitter color (hex)
	ChildColor string  `yaml:"childColor"` // spawned entity color (hex)
	ChildSize  float64 `yaml:"childSize"`  // spawned entity radius

	Movement MovementSpec `yaml:"movement"`
	Forces   []string     `yaml:"forces"`
}

// MovementSpec selects the emitter's self-movement policy.
type MovementSpec struct {
	Kind      string  `yaml:"kind"` // stationary, linear, circular, sine, dynamic
	Speed     float64 `yaml:"speed"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Rate      float64 `yaml:"rate"`
	Amplitude float64 `yaml:"amplitude"`
	Left      bool    `yaml:"left"`
}

var (
	forceKinds    = []string{"gravity", "turbulence", "radial", "cyclic", "thrust"}
	movementKinds = []string{"", "stationary", "linear", "circular", "sine", "dynamic"}
	roles         = []string{"", "player", "enemy", "effect", "ambient"}
	modes         = []string{"", "continuous", "burst"}
)

// ParseScene decodes and validates a YAML scene
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to parse scene")
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid scene %q", s.Name)
	}
	return &s, nil
}

// LoadScene reads a YAML scene from disk
func LoadScene(file string) (*Scene, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scene file")
	}
	return ParseScene(data)
}

// BuiltinScene returns one of the embedded presets by name
func BuiltinScene(name string) (*Scene, error) {
	data, err := builtinScenes.ReadFile(path.Join("scenes", name+".yaml"))
	if err != nil {
		return nil, errors.Errorf("unknown scene %q (have %s)", name, strings.Join(SceneNames(), ", "))
	}
	return ParseScene(data)
}

// SceneNames lists the embedded presets
func SceneNames() []string {
	entries, err := builtinScenes.ReadDir("scenes")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// ResolveScene loads SceneFile when set, otherwise the named preset
func (g GameConfig) ResolveScene() (*Scene, error) {
	if g.SceneFile != "" {
		return LoadScene(g.SceneFile)
	}
	return BuiltinScene(g.Scene)
}

// Validate checks every value the simulation treats as a precondition.
// The simulation itself never re-checks these.
func (s *Scene) Validate() error {
	if s.Name == "" {
		return errors.New("scene name is required")
	}
	if s.Rules.HitRadius < 0 {
		return errors.Errorf("hitRadius must be >= 0, got %v", s.Rules.HitRadius)
	}
	if s.Rules.RoundSeconds < 0 {
		return errors.Errorf("roundSeconds must be >= 0, got %v", s.Rules.RoundSeconds)
	}

	forces := make(map[string]bool, len(s.Forces))
	for _, f := range s.Forces {
		if f.Name == "" {
			return errors.New("force name is required")
		}
		if forces[f.Name] {
			return errors.Errorf("duplicate force %q", f.Name)
		}
		if !contains(forceKinds, f.Kind) {
			return errors.Errorf("force %q: unknown kind %q", f.Name, f.Kind)
		}
		forces[f.Name] = true
	}

	names := make(map[string]bool, len(s.Emitters))
	players := 0
	for i := range s.Emitters {
		e := &s.Emitters[i]
		if err := e.validate(forces); err != nil {
			return errors.Wrapf(err, "emitter %q", e.Name)
		}
		if names[e.Name] {
			return errors.Errorf("duplicate emitter %q", e.Name)
		}
		names[e.Name] = true
		if e.Role == "player" {
			players++
		}
	}
	if players > 1 {
		return errors.Errorf("at most one player emitter, got %d", players)
	}

	return nil
}

func (e *EmitterSpec) validate(forces map[string]bool) error {
	if e.Name == "" {
		return errors.New("name is required")
	}
	if !contains(roles, e.Role) {
		return errors.Errorf("unknown role %q", e.Role)
	}
	if !contains(modes, e.Mode) {
		return errors.Errorf("unknown mode %q", e.Mode)
	}
	if e.Mode == "burst" {
		if e.BurstSize < 1 {
			return errors.Errorf("burstSize must be >= 1, got %d", e.BurstSize)
		}
	} else if e.Rate <= 0 {
		return errors.Errorf("rate must be > 0, got %v", e.Rate)
	}
	if e.RateMin != 0 || e.RateMax != 0 {
		if e.RateMin <= 0 || e.RateMax < e.RateMin {
			return errors.Errorf("rate range invalid: min(%v) max(%v)", e.RateMin, e.RateMax)
		}
	}
	if e.ReplayMS < 0 {
		return errors.Errorf("replayMs must be >= 0, got %v", e.ReplayMS)
	}
	if e.LifespanMS != -1 && e.LifespanMS <= 0 {
		return errors.Errorf("lifespanMs must be -1 or > 0, got %v", e.LifespanMS)
	}
	if e.Mass < 0 {
		return errors.Errorf("mass must be > 0, or 0 for the default, got %v", e.Mass)
	}
	if e.Damping < 0 || e.Damping > 1 {
		return errors.Errorf("damping must be in (0,1], or 0 for the default, got %v", e.Damping)
	}
	if e.SpeedJitter < 0 || e.SpeedJitter > 1 {
		return errors.Errorf("speedJitter must be in [0,1], got %v", e.SpeedJitter)
	}
	if !contains(movementKinds, e.Movement.Kind) {
		return errors.Errorf("unknown movement %q", e.Movement.Kind)
	}
	if e.Movement.Kind == "linear" || e.Movement.Kind == "sine" {
		if e.Movement.Max < e.Movement.Min {
			return errors.Errorf("movement bounds invalid: min(%v) > max(%v)", e.Movement.Min, e.Movement.Max)
		}
	}
	for _, name := range e.Forces {
		if !forces[name] {
			return errors.Errorf("unknown force %q", name)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
