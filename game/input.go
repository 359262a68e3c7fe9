package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/afterimage/creature"
)

// InputSource supplies the intent snapshot for each tick. ok is false once
// the source has nothing more to give.
type InputSource interface {
	Next(tick int) (in creature.Intents, ok bool)
}

// InputFunc adapts a function to InputSource.
type InputFunc func(tick int) (creature.Intents, bool)

// Next calls f.
func (f InputFunc) Next(tick int) (creature.Intents, bool) { return f(tick) }

// Idle is an endless source with nothing pressed.
var Idle = InputFunc(func(int) (creature.Intents, bool) { return creature.Intents{}, true })

// Segment holds one set of intents for a number of ticks.
type Segment struct {
	Ticks   int              `yaml:"ticks"`
	Intents creature.Intents `yaml:"intents"`
}

// ScriptInput replays a fixed list of segments. With Loop set the script
// starts over after its last segment.
type ScriptInput struct {
	Loop     bool      `yaml:"loop"`
	Segments []Segment `yaml:"segments"`

	segment int
	used    int
}

// ParseScript reads a script from YAML.
func ParseScript(data []byte) (*ScriptInput, error) {
	var s ScriptInput
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing input script: %w", err)
	}
	for i, seg := range s.Segments {
		if seg.Ticks <= 0 {
			return nil, fmt.Errorf("input script segment %d: ticks must be positive, got %d", i, seg.Ticks)
		}
	}
	return &s, nil
}

// LoadScript reads a script file.
func LoadScript(path string) (*ScriptInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input script: %w", err)
	}
	return ParseScript(data)
}

// Next returns the intents for the next tick. The tick argument is ignored;
// the script advances one tick per call.
func (s *ScriptInput) Next(int) (creature.Intents, bool) {
	if len(s.Segments) == 0 {
		return creature.Intents{}, false
	}
	if s.segment >= len(s.Segments) {
		if !s.Loop {
			return creature.Intents{}, false
		}
		s.segment = 0
	}

	seg := s.Segments[s.segment]
	s.used++
	if s.used >= seg.Ticks {
		s.segment++
		s.used = 0
	}
	return seg.Intents, true
}

// Len returns the script length in ticks.
func (s *ScriptInput) Len() int {
	n := 0
	for _, seg := range s.Segments {
		n += seg.Ticks
	}
	return n
}
