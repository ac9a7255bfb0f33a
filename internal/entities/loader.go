package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a data file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a format from a file extension, defaulting to JSON
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// EncounterFile is a data file describing an ability library and the
// participants of one encounter.
//
// Example:
//
//	abilities:
//	  - name: Basic Strike
//	    dice: 1d4
//	    cost: 1
//	participants:
//	  - id: hero
//	    side: player
//	    hp: 20
//	    loadout: [Basic Strike]
type EncounterFile struct {
	Abilities    []*Ability
	Participants []*Participant
}

type encounterWire struct {
	Abilities    []*Ability        `json:"abilities"`
	Participants []json.RawMessage `json:"participants"`
}

// LoadEncounterFile reads an encounter data file from disk
func LoadEncounterFile(path string) (*EncounterFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("entities: open encounter file %q: %w", path, err)
	}
	defer f.Close()

	ef, err := LoadEncounter(f, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("entities: parse encounter file %q: %w", path, err)
	}
	return ef, nil
}

// LoadEncounter parses an encounter file. Participants may list ability
// objects inline or name abilities from the library under "loadout"; named
// abilities are cloned so each participant owns its cooldowns.
func LoadEncounter(r io.Reader, format Format) (*EncounterFile, error) {
	data, err := normalize(r, format)
	if err != nil {
		return nil, err
	}

	var wire encounterWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("entities: decode encounter: %w", err)
	}

	library := make(map[string]*Ability, len(wire.Abilities))
	for _, a := range wire.Abilities {
		if a == nil || a.Name == "" {
			return nil, fmt.Errorf("entities: ability without name")
		}
		library[strings.ToLower(a.Name)] = a
	}

	ef := &EncounterFile{Abilities: wire.Abilities}
	for i, raw := range wire.Participants {
		p, err := decodeParticipant(raw, library)
		if err != nil {
			return nil, fmt.Errorf("entities: participant %d: %w", i, err)
		}
		ef.Participants = append(ef.Participants, p)
	}
	return ef, nil
}

// LoadAbilities parses a list of ability templates
func LoadAbilities(r io.Reader, format Format) ([]*Ability, error) {
	data, err := normalize(r, format)
	if err != nil {
		return nil, err
	}
	var abilities []*Ability
	if err := json.Unmarshal(data, &abilities); err != nil {
		return nil, fmt.Errorf("entities: decode abilities: %w", err)
	}
	return abilities, nil
}

// LoadParticipants parses a list of participants
func LoadParticipants(r io.Reader, format Format) ([]*Participant, error) {
	data, err := normalize(r, format)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("entities: decode participants: %w", err)
	}
	out := make([]*Participant, 0, len(raws))
	for i, raw := range raws {
		p, err := decodeParticipant(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("entities: participant %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeParticipant(raw json.RawMessage, library map[string]*Ability) (*Participant, error) {
	var p Participant
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	var refs struct {
		Loadout []string `json:"loadout"`
	}
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, err
	}
	for _, name := range refs.Loadout {
		tmpl, ok := library[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("loadout names unknown ability %q", name)
		}
		p.Abilities = append(p.Abilities, tmpl.Clone())
	}
	return &p, nil
}

// normalize returns the document as JSON so both formats share one decode
// path, including every custom UnmarshalJSON in this package.
func normalize(r io.Reader, format Format) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("entities: read data: %w", err)
	}
	if format != FormatYAML {
		return data, nil
	}

	var doc any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("entities: decode yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("entities: convert yaml: %w", err)
	}
	return out, nil
}
