package emotion

// Archetype names a speaking-character temperament. The remap below is plain
// keyed data: no character needs polymorphism to bend a detected emotion
// toward its voice.
type Archetype string

const (
	ArchetypeGentle    Archetype = "gentle"
	ArchetypeEnergetic Archetype = "energetic"
	ArchetypeStern     Archetype = "stern"
	ArchetypeNarrator  Archetype = "narrator"
)

var archetypeRemap = map[Archetype]map[Emotion]Emotion{
	ArchetypeGentle: {
		Excited: Happy,
		Angry:   Serious,
	},
	ArchetypeEnergetic: {
		Happy: Excited,
		Calm:  Happy,
	},
	ArchetypeStern: {
		Happy:   Calm,
		Excited: Serious,
	},
	ArchetypeNarrator: {
		Excited: Serious,
		Angry:   Serious,
		Happy:   Calm,
	},
}

// Remap adjusts a detected emotion for a character archetype. Unknown
// archetypes and unmapped emotions pass through unchanged.
func Remap(a Archetype, e Emotion) Emotion {
	if table, ok := archetypeRemap[a]; ok {
		if mapped, ok := table[e]; ok {
			return mapped
		}
	}
	return e
}
