package gamedata

import (
	"errors"
	"fmt"
)

// WaveDef is one hostile roster from waves.yaml.
type WaveDef struct {
	Name     string       `yaml:"name"`
	Hostiles []WaveSpawns `yaml:"hostiles"`
}

// WaveSpawns places Count hostiles of one archetype.
type WaveSpawns struct {
	Archetype string `yaml:"archetype"`
	Count     int    `yaml:"count"`
}

// Size returns the total number of hostiles in the wave.
func (w WaveDef) Size() int {
	n := 0
	for _, h := range w.Hostiles {
		n += h.Count
	}
	return n
}

// WavesFile represents the structure of waves.yaml.
type WavesFile struct {
	Waves []WaveDef `yaml:"waves"`
}

// LoadWaves loads the wave rosters and checks that every archetype they
// reference exists in the given registry.
func LoadWaves(enemies *EnemyRegistry) ([]WaveDef, error) {
	file, err := Load[WavesFile]("waves.yaml")
	if err != nil {
		return nil, err
	}
	if len(file.Waves) == 0 {
		return nil, errors.New("no waves loaded from waves.yaml")
	}
	for _, w := range file.Waves {
		for _, h := range w.Hostiles {
			if h.Count < 1 {
				return nil, fmt.Errorf("wave %q spawns %d of %q", w.Name, h.Count, h.Archetype)
			}
			if enemies != nil && enemies.GetByID(h.Archetype) == nil {
				return nil, fmt.Errorf("wave %q references unknown archetype %q", w.Name, h.Archetype)
			}
		}
	}
	return file.Waves, nil
}
