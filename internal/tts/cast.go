package tts

import (
	"strings"

	"paperstage/internal/script/emotion"
)

// Character binds one speaking role to its per-provider voice ids and the
// temperament used to bend detected emotions toward its voice.
type Character struct {
	ID        string
	Name      string
	Romaji    string
	Short     string
	Archetype emotion.Archetype
	// Voices maps provider name to that provider's voice id.
	Voices map[string]string
	Speed  float64
	Pitch  float64
	Volume float64
}

// VoiceFor builds the settings for one synthesis against a provider,
// remapping the detected emotion through the character's archetype.
func (c *Character) VoiceFor(provider string, detected emotion.Emotion) VoiceSettings {
	return VoiceSettings{
		VoiceID: c.Voices[provider],
		Speed:   c.Speed,
		Pitch:   c.Pitch,
		Volume:  c.Volume,
		Emotion: emotion.Remap(c.Archetype, detected),
	}
}

// Cast resolves the speaker names that appear in scripts to characters.
// Lookup is case-folded over every alias a character answers to.
type Cast struct {
	characters []*Character
	byAlias    map[string]*Character
}

func NewCast(characters []*Character) *Cast {
	c := &Cast{byAlias: make(map[string]*Character)}
	for _, ch := range characters {
		c.Add(ch)
	}
	return c
}

// Add registers a character under its id, name, romaji and short aliases.
func (c *Cast) Add(ch *Character) {
	c.characters = append(c.characters, ch)
	for _, alias := range []string{ch.ID, ch.Name, ch.Romaji, ch.Short} {
		if alias == "" {
			continue
		}
		c.byAlias[strings.ToLower(alias)] = ch
	}
}

// Resolve maps a script speaker name to a character.
func (c *Cast) Resolve(speaker string) (*Character, bool) {
	ch, ok := c.byAlias[strings.ToLower(strings.TrimSpace(speaker))]
	return ch, ok
}

// Characters returns the cast in registration order.
func (c *Cast) Characters() []*Character {
	return c.characters
}

// DefaultCast is the stock troupe used when no cast file is configured.
func DefaultCast() *Cast {
	return NewCast([]*Character{
		{
			ID:        "ling",
			Name:      "玲",
			Romaji:    "Ling",
			Short:     "ln",
			Archetype: emotion.ArchetypeGentle,
			Voices:    map[string]string{"cloud": "female-tianmei", "local": "8", "gcloud": "cmn-CN-Wavenet-A"},
			Speed:     1.0,
			Volume:    1.0,
		},
		{
			ID:        "rin",
			Name:      "凛",
			Romaji:    "Rin",
			Short:     "rn",
			Archetype: emotion.ArchetypeEnergetic,
			Voices:    map[string]string{"cloud": "female-shaonv", "local": "1", "gcloud": "cmn-CN-Wavenet-B"},
			Speed:     1.1,
			Volume:    1.0,
		},
		{
			ID:        "sensei",
			Name:      "先生",
			Romaji:    "Sensei",
			Short:     "ss",
			Archetype: emotion.ArchetypeStern,
			Voices:    map[string]string{"cloud": "male-qn-jingying", "local": "13", "gcloud": "cmn-CN-Wavenet-C"},
			Speed:     0.95,
			Volume:    1.0,
		},
		{
			ID:        "narrator",
			Name:      "旁白",
			Romaji:    "Narrator",
			Archetype: emotion.ArchetypeNarrator,
			Voices:    map[string]string{"cloud": "presenter_male", "local": "11", "gcloud": "cmn-CN-Wavenet-D"},
			Speed:     1.0,
			Volume:    1.0,
		},
	})
}
