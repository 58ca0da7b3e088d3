// Package config implements C2: devcontainer.json parsing, global-config
// merge, and variable substitution.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StringOrSlice handles fields the devcontainer spec allows as either a
// single string or an array of strings (dockerComposeFile, runServices, ...).
type StringOrSlice []string

func (s *StringOrSlice) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = []string{str}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("StringOrSlice: expected string or []string, got: %s", string(data))
	}
	*s = arr
	return nil
}

func (s StringOrSlice) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

// LifecycleEntry is one named (or anonymous) lifecycle command.
type LifecycleEntry struct {
	Name    string
	Command string
	Args    []string
}

// LifecycleCommand handles the three JSON forms devcontainer.json allows for
// every hook in §4.3's catalog: string, array (exec form), or a map of named
// commands run in parallel.
type LifecycleCommand struct {
	Commands []LifecycleEntry
}

// Argv returns each entry rendered as an argv slice suitable for exec,
// preferring Args when present (exec form avoids a shell).
func (c *LifecycleCommand) Argv() [][]string {
	if c == nil {
		return nil
	}
	out := make([][]string, 0, len(c.Commands))
	for _, e := range c.Commands {
		if len(e.Args) > 0 {
			out = append(out, e.Args)
		} else if e.Command != "" {
			out = append(out, []string{"sh", "-c", e.Command})
		}
	}
	return out
}

func (c *LifecycleCommand) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		c.Commands = []LifecycleEntry{{Command: str}}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		c.Commands = []LifecycleEntry{{Args: arr}}
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err == nil {
		c.Commands = make([]LifecycleEntry, 0, len(m))
		for name, cmd := range m {
			entry := LifecycleEntry{Name: name}
			switch v := cmd.(type) {
			case string:
				entry.Command = v
			case []interface{}:
				for _, item := range v {
					if s, ok := item.(string); ok {
						entry.Args = append(entry.Args, s)
					}
				}
			}
			c.Commands = append(c.Commands, entry)
		}
		return nil
	}
	return fmt.Errorf("LifecycleCommand: expected string, []string, or map, got: %s", string(data))
}

func (c LifecycleCommand) MarshalJSON() ([]byte, error) {
	if len(c.Commands) == 0 {
		return json.Marshal(nil)
	}
	if len(c.Commands) == 1 && c.Commands[0].Name == "" {
		e := c.Commands[0]
		if e.Command != "" {
			return json.Marshal(e.Command)
		}
		return json.Marshal(e.Args)
	}
	m := make(map[string]interface{}, len(c.Commands))
	for _, e := range c.Commands {
		name := e.Name
		if name == "" {
			name = "default"
		}
		if e.Command != "" {
			m[name] = e.Command
		} else {
			m[name] = e.Args
		}
	}
	return json.Marshal(m)
}

// PortSpec is one forwardPorts/portsAttributes entry: int, "host:container"
// string, or the full object form.
type PortSpec struct {
	Container     int
	Host          int
	Label         string
	Protocol      string
	OnAutoForward string
}

func (p *PortSpec) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		p.Container = int(num)
		p.Host = p.Container
		p.Protocol = "tcp"
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		return p.parseString(str)
	}
	var obj struct {
		ContainerPort int    `json:"containerPort"`
		HostPort      int    `json:"hostPort"`
		Label         string `json:"label"`
		Protocol      string `json:"protocol"`
		OnAutoForward string `json:"onAutoForward"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		p.Container = obj.ContainerPort
		p.Host = obj.HostPort
		if p.Host == 0 {
			p.Host = p.Container
		}
		p.Label = obj.Label
		p.Protocol = obj.Protocol
		if p.Protocol == "" {
			p.Protocol = "tcp"
		}
		p.OnAutoForward = obj.OnAutoForward
		return nil
	}
	return fmt.Errorf("PortSpec: expected int, string, or object, got: %s", string(data))
}

func (p *PortSpec) parseString(s string) error {
	p.Protocol = "tcp"
	if idx := strings.LastIndex(s, "/"); idx != -1 {
		p.Protocol = s[idx+1:]
		s = s[:idx]
	}
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		port, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("PortSpec: invalid port number: %s", parts[0])
		}
		p.Container, p.Host = port, port
	case 2:
		host, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("PortSpec: invalid host port: %s", parts[0])
		}
		container, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("PortSpec: invalid container port: %s", parts[1])
		}
		p.Host, p.Container = host, container
	default:
		return fmt.Errorf("PortSpec: invalid format: %s", s)
	}
	return nil
}

func (p PortSpec) MarshalJSON() ([]byte, error) {
	if p.Host == p.Container && p.Label == "" && p.Protocol == "tcp" && p.OnAutoForward == "" {
		return json.Marshal(p.Container)
	}
	return json.Marshal(map[string]interface{}{
		"containerPort": p.Container,
		"hostPort":      p.Host,
		"label":         p.Label,
		"protocol":      p.Protocol,
		"onAutoForward": p.OnAutoForward,
	})
}

func (p PortSpec) String() string {
	if p.Host == p.Container {
		if p.Protocol != "" && p.Protocol != "tcp" {
			return fmt.Sprintf("%d/%s", p.Container, p.Protocol)
		}
		return strconv.Itoa(p.Container)
	}
	if p.Protocol != "" && p.Protocol != "tcp" {
		return fmt.Sprintf("%d:%d/%s", p.Host, p.Container, p.Protocol)
	}
	return fmt.Sprintf("%d:%d", p.Host, p.Container)
}

// PortSpecs is forwardPorts' top-level array of mixed-form PortSpec entries.
type PortSpecs []PortSpec

func (ps *PortSpecs) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*ps = make([]PortSpec, 0, len(raw))
	for _, item := range raw {
		var spec PortSpec
		if err := json.Unmarshal(item, &spec); err != nil {
			return err
		}
		*ps = append(*ps, spec)
	}
	return nil
}

// FeatureConfig is one entry of the `features` map: an OCI reference to
// `true` (defaults) or an options object.
type FeatureConfig struct {
	ID      string
	Enabled bool
	Options map[string]interface{}
}

// ParseFeatures converts the raw `features` map into an ordered slice,
// preserving the OCI reference as a field rather than a map key so
// dependency-ordering code can reshuffle it freely.
func ParseFeatures(features map[string]interface{}) []FeatureConfig {
	if features == nil {
		return nil
	}
	result := make([]FeatureConfig, 0, len(features))
	for id, opts := range features {
		cfg := FeatureConfig{ID: id}
		switch v := opts.(type) {
		case bool:
			cfg.Enabled = v
		case map[string]interface{}:
			cfg.Enabled = true
			cfg.Options = v
		default:
			cfg.Enabled = true
			cfg.Options = map[string]interface{}{"value": opts}
		}
		result = append(result, cfg)
	}
	return result
}
