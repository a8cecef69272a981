package enums

import (
	"fmt"
	"strings"
)

// Subgenre is the closed set of catalog categories a story is tagged with.
type Subgenre string

const (
	SubgenreContemporary  Subgenre = "contemporary"
	SubgenreHistorical    Subgenre = "historical"
	SubgenreParanormal    Subgenre = "paranormal"
	SubgenreFantasy       Subgenre = "fantasy"
	SubgenreSciFi         Subgenre = "scifi"
	SubgenreSuspense      Subgenre = "suspense"
	SubgenreBillionaire   Subgenre = "billionaire"
	SubgenreSmallTown     Subgenre = "small_town"
	SubgenreSecondChance  Subgenre = "second_chance"
	SubgenreEnemiesLovers Subgenre = "enemies_to_lovers"
)

func AllSubgenres() []Subgenre {
	return []Subgenre{
		SubgenreContemporary,
		SubgenreHistorical,
		SubgenreParanormal,
		SubgenreFantasy,
		SubgenreSciFi,
		SubgenreSuspense,
		SubgenreBillionaire,
		SubgenreSmallTown,
		SubgenreSecondChance,
		SubgenreEnemiesLovers,
	}
}

// ParseSubgenre normalizes raw input to a known subgenre. Anything outside
// the closed set is rejected.
func ParseSubgenre(raw string) (Subgenre, error) {
	value := Subgenre(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range AllSubgenres() {
		if s == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown subgenre %q", raw)
}
