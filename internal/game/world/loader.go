package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlScenarioFile is the top-level YAML structure for scenario files.
type yamlScenarioFile struct {
	Scenario yamlScenario `yaml:"scenario"`
}

type yamlScenario struct {
	Name       string          `yaml:"name"`
	Factions   []yamlFaction   `yaml:"factions"`
	Characters []yamlCharacter `yaml:"characters"`
	Cities     []yamlCity      `yaml:"cities"`
	Roads      []yamlRoad      `yaml:"roads"`
}

type yamlFaction struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Leader  string   `yaml:"leader"`
	Members []string `yaml:"members"`
	Color   string   `yaml:"color"`
}

type yamlCharacter struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Traits    []string `yaml:"traits"`
	Stats     Stats    `yaml:"stats"`
	Skills    Skills   `yaml:"skills"`
	Role      string   `yaml:"role"`
	City      string   `yaml:"city"`
	BirthTick *int     `yaml:"birth_tick"`
	Parent    string   `yaml:"parent"`
}

type yamlCity struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Tier        string          `yaml:"tier"`
	Controller  string          `yaml:"controller"`
	Gold        int             `yaml:"gold"`
	Garrison    int             `yaml:"garrison"`
	Development int             `yaml:"development"`
	Food        int             `yaml:"food"`
	Units       UnitComposition `yaml:"units"`
	Specialty   string          `yaml:"specialty"`
	Districts   []string        `yaml:"districts"`
	Path        string          `yaml:"path"`
}

type yamlRoad struct {
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	TravelTime int    `yaml:"travel_time"`
	Kind       string `yaml:"kind"`
}

// ScenarioRoad is a road definition parsed from a scenario file, consumed by
// the sim package's road service.
type ScenarioRoad struct {
	From       string
	To         string
	TravelTime int
	Kind       string
}

// LoadScenario reads a scenario YAML file and builds a fresh Registry plus
// the road definitions. Referential integrity is validated the same way the
// registry enforces it at runtime: every leader, member, controller, and
// road endpoint must resolve.
//
// Precondition: path must point to a valid YAML scenario file.
// Postcondition: returns a populated Registry and roads, or a non-nil error.
func LoadScenario(path string) (*Registry, []ScenarioRoad, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var file yamlScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parsing scenario file %s: %w", path, err)
	}
	sc := file.Scenario
	if sc.Name == "" {
		return nil, nil, fmt.Errorf("scenario file %s: scenario.name must not be empty", path)
	}

	r := NewRegistry()

	for _, yc := range sc.Characters {
		if yc.ID == "" {
			return nil, nil, fmt.Errorf("scenario %q: character with empty id", sc.Name)
		}
		birth := NoBirthTick
		if yc.BirthTick != nil {
			birth = *yc.BirthTick
		}
		c := &Character{
			ID:        yc.ID,
			Name:      yc.Name,
			Stats:     clampStats(yc.Stats),
			Skills:    clampSkills(yc.Skills),
			Role:      Role(yc.Role),
			CityID:    yc.City,
			BirthTick: birth,
			ParentID:  yc.Parent,
		}
		for _, t := range yc.Traits {
			c.Traits = append(c.Traits, Trait(t))
		}
		if err := r.AddCharacter(c); err != nil {
			return nil, nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}

	for _, yf := range sc.Factions {
		if _, ok := r.Character(yf.Leader); !ok {
			return nil, nil, fmt.Errorf("scenario %q: faction %q leader %q not found", sc.Name, yf.ID, yf.Leader)
		}
		members := append([]string(nil), yf.Members...)
		for _, m := range members {
			if _, ok := r.Character(m); !ok {
				return nil, nil, fmt.Errorf("scenario %q: faction %q member %q not found", sc.Name, yf.ID, m)
			}
		}
		f := &Faction{
			ID:        yf.ID,
			Name:      yf.Name,
			LeaderID:  yf.Leader,
			MemberIDs: members,
			Color:     yf.Color,
		}
		if !f.HasMember(f.LeaderID) {
			return nil, nil, fmt.Errorf("scenario %q: faction %q leader %q is not a member", sc.Name, yf.ID, yf.Leader)
		}
		if err := r.AddFaction(f); err != nil {
			return nil, nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}

	for _, yc := range sc.Cities {
		tier := TierMinor
		switch yc.Tier {
		case "major":
			tier = TierMajor
		case "minor", "":
		default:
			return nil, nil, fmt.Errorf("scenario %q: city %q has unknown tier %q", sc.Name, yc.ID, yc.Tier)
		}
		if yc.Controller != "" {
			if _, ok := r.Character(yc.Controller); !ok {
				return nil, nil, fmt.Errorf("scenario %q: city %q controller %q not found", sc.Name, yc.ID, yc.Controller)
			}
		}
		if len(yc.Districts) > MaxDistricts {
			return nil, nil, fmt.Errorf("scenario %q: city %q has %d districts (max %d)", sc.Name, yc.ID, len(yc.Districts), MaxDistricts)
		}
		city := &City{
			ID:           yc.ID,
			Name:         yc.Name,
			Tier:         tier,
			ControllerID: yc.Controller,
			Gold:         maxInt(yc.Gold, 0),
			Garrison:     maxInt(yc.Garrison, 0),
			Development:  clampInt(yc.Development, 0, MaxDevelopment),
			Food:         clampInt(yc.Food, 0, MaxFood),
			Units:        yc.Units,
			Specialty:    Improvement(yc.Specialty),
			Path:         CityPath(yc.Path),
		}
		for _, d := range yc.Districts {
			city.Districts = append(city.Districts, District(d))
		}
		if err := r.AddCity(city); err != nil {
			return nil, nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}

	// Character city references are validated after cities exist.
	for _, c := range r.Characters() {
		if c.CityID == "" {
			continue
		}
		if _, ok := r.City(c.CityID); !ok {
			return nil, nil, fmt.Errorf("scenario %q: character %q references unknown city %q", sc.Name, c.ID, c.CityID)
		}
	}

	var roads []ScenarioRoad
	for _, yr := range sc.Roads {
		if _, ok := r.City(yr.From); !ok {
			return nil, nil, fmt.Errorf("scenario %q: road endpoint %q not found", sc.Name, yr.From)
		}
		if _, ok := r.City(yr.To); !ok {
			return nil, nil, fmt.Errorf("scenario %q: road endpoint %q not found", sc.Name, yr.To)
		}
		tt := yr.TravelTime
		if tt <= 0 {
			tt = 1
		}
		roads = append(roads, ScenarioRoad{From: yr.From, To: yr.To, TravelTime: tt, Kind: yr.Kind})
	}

	return r, roads, nil
}

func clampStats(s Stats) Stats {
	return Stats{
		Military:     clampInt(s.Military, 0, MaxStat),
		Intelligence: clampInt(s.Intelligence, 0, MaxStat),
		Charm:        clampInt(s.Charm, 0, MaxStat),
	}
}

func clampSkills(s Skills) Skills {
	return Skills{
		Leadership: clampInt(s.Leadership, 0, MaxSkill),
		Tactics:    clampInt(s.Tactics, 0, MaxSkill),
		Commerce:   clampInt(s.Commerce, 0, MaxSkill),
		Espionage:  clampInt(s.Espionage, 0, MaxSkill),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
