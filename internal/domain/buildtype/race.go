package buildtype

import (
	"fmt"
	"strings"
)

// Race identifies which faction a type belongs to. Supply is tracked per race.
type Race int

const (
	RaceTerran Race = iota
	RaceProtoss
	RaceZerg
)

// NumRaces is the size of per-race arrays.
const NumRaces = 3

func (r Race) String() string {
	switch r {
	case RaceTerran:
		return "terran"
	case RaceProtoss:
		return "protoss"
	case RaceZerg:
		return "zerg"
	default:
		return fmt.Sprintf("race(%d)", int(r))
	}
}

// ParseRace converts a catalog race name into a Race.
func ParseRace(s string) (Race, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "terran":
		return RaceTerran, nil
	case "protoss":
		return RaceProtoss, nil
	case "zerg":
		return RaceZerg, nil
	default:
		return 0, fmt.Errorf("unknown race %q", s)
	}
}

// Races lists every race in index order.
func Races() []Race {
	return []Race{RaceTerran, RaceProtoss, RaceZerg}
}
