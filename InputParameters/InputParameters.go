package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// ParameterInput holds the run parameters, organized as named sections of
// key/value pairs parsed from the YAML input deck, e.g.:
//
//	time:
//	  tlim: 0.4
//	  cfl_number: 0.3
//	mesh:
//	  nx1: 64
//
// Defaults supplied through the GetOrAdd* calls are stored back into the
// table so that Print reproduces the effective configuration of the run.
type ParameterInput struct {
	Sections map[string]map[string]interface{}
}

func NewParameterInput() (pin *ParameterInput) {
	pin = &ParameterInput{
		Sections: make(map[string]map[string]interface{}),
	}
	return
}

func (pin *ParameterInput) Parse(data []byte) error {
	if pin.Sections == nil {
		pin.Sections = make(map[string]map[string]interface{})
	}
	return yaml.Unmarshal(data, &pin.Sections)
}

func (pin *ParameterInput) DoesParameterExist(section, name string) bool {
	blk, ok := pin.Sections[section]
	if !ok {
		return false
	}
	_, ok = blk[name]
	return ok
}

func (pin *ParameterInput) GetReal(section, name string) float64 {
	v, ok := pin.lookup(section, name)
	if !ok {
		panic(fmt.Errorf("parameter [%s]/%s not found in input deck", section, name))
	}
	return toReal(section, name, v)
}

func (pin *ParameterInput) GetInteger(section, name string) int {
	v, ok := pin.lookup(section, name)
	if !ok {
		panic(fmt.Errorf("parameter [%s]/%s not found in input deck", section, name))
	}
	return toInteger(section, name, v)
}

func (pin *ParameterInput) GetString(section, name string) string {
	v, ok := pin.lookup(section, name)
	if !ok {
		panic(fmt.Errorf("parameter [%s]/%s not found in input deck", section, name))
	}
	return toString(v)
}

func (pin *ParameterInput) GetOrAddReal(section, name string, def float64) float64 {
	if v, ok := pin.lookup(section, name); ok {
		return toReal(section, name, v)
	}
	pin.set(section, name, def)
	return def
}

func (pin *ParameterInput) GetOrAddInteger(section, name string, def int) int {
	if v, ok := pin.lookup(section, name); ok {
		return toInteger(section, name, v)
	}
	pin.set(section, name, def)
	return def
}

func (pin *ParameterInput) GetOrAddString(section, name, def string) string {
	if v, ok := pin.lookup(section, name); ok {
		return toString(v)
	}
	pin.set(section, name, def)
	return def
}

func (pin *ParameterInput) SetReal(section, name string, val float64) {
	pin.set(section, name, val)
}

func (pin *ParameterInput) SetInteger(section, name string, val int) {
	pin.set(section, name, val)
}

func (pin *ParameterInput) lookup(section, name string) (interface{}, bool) {
	blk, ok := pin.Sections[section]
	if !ok {
		return nil, false
	}
	v, ok := blk[name]
	return v, ok
}

func (pin *ParameterInput) set(section, name string, val interface{}) {
	if pin.Sections == nil {
		pin.Sections = make(map[string]map[string]interface{})
	}
	if _, ok := pin.Sections[section]; !ok {
		pin.Sections[section] = make(map[string]interface{})
	}
	pin.Sections[section][name] = val
}

// yaml.Unmarshal routes through JSON, so numbers arrive as float64
func toReal(section, name string, v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	default:
		panic(fmt.Errorf("parameter [%s]/%s is not a number: %v", section, name, v))
	}
}

func toInteger(section, name string, v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	default:
		panic(fmt.Errorf("parameter [%s]/%s is not an integer: %v", section, name, v))
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (pin *ParameterInput) Print() {
	sections := make([]string, 0, len(pin.Sections))
	for s := range pin.Sections {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	for _, s := range sections {
		fmt.Printf("<%s>\n", s)
		keys := make([]string, 0, len(pin.Sections[s]))
		for k := range pin.Sections[s] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-16s = %v\n", k, pin.Sections[s][k])
		}
	}
}
