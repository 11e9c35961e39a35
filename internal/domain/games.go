package domain

import "strings"

// Game describes one entry of the static LFG catalog: display data plus the
// bounds the lifecycle service validates against.
type Game struct {
	Key        string
	Name       string
	Emoji      string
	GameTypes  []string // empty = free-form types allowed
	MinPlayers int
	MaxPlayers int
}

// Catalog is the set of games the bot accepts LFG posts for. Keys are
// normalized to lowercase on lookup.
type Catalog struct {
	games map[string]Game
	order []string
}

func NewCatalog(games []Game) *Catalog {
	c := &Catalog{games: make(map[string]Game, len(games))}
	for _, g := range games {
		key := strings.ToLower(g.Key)
		g.Key = key
		if _, dup := c.games[key]; !dup {
			c.order = append(c.order, key)
		}
		c.games[key] = g
	}
	return c
}

func (c *Catalog) Lookup(key string) (Game, bool) {
	g, ok := c.games[strings.ToLower(strings.TrimSpace(key))]
	return g, ok
}

// All returns the games in declaration order, for autocomplete menus.
func (c *Catalog) All() []Game {
	out := make([]Game, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.games[k])
	}
	return out
}

// ValidType reports whether gameType is acceptable for the given game. Games
// without a fixed type list accept anything non-empty.
func (g Game) ValidType(gameType string) bool {
	if len(g.GameTypes) == 0 {
		return strings.TrimSpace(gameType) != ""
	}
	for _, t := range g.GameTypes {
		if strings.EqualFold(t, gameType) {
			return true
		}
	}
	return false
}

func (g Game) ValidPlayerCount(n int) bool {
	return n >= g.MinPlayers && n <= g.MaxPlayers
}

// DefaultCatalog mirrors the games the community currently runs sessions for.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Game{
		{
			Key:   "overwatch",
			Name:  "Overwatch",
			Emoji: "🎮",
			GameTypes: []string{
				"Quick Play", "Competitive", "Arcade", "Stadium", "Custom",
			},
			MinPlayers: 1,
			MaxPlayers: 6,
		},
		{
			Key:   "valorant",
			Name:  "Valorant",
			Emoji: "🎯",
			GameTypes: []string{
				"Unrated", "Competitive", "Swift Play", "Escalation", "Spike Rush", "Deathmatch",
			},
			MinPlayers: 1,
			MaxPlayers: 5,
		},
		{
			Key:   "cs2",
			Name:  "Counter-Strike 2",
			Emoji: "💣",
			GameTypes: []string{
				"Competitive", "Premier", "Casual", "Deathmatch", "Arms Race",
			},
			MinPlayers: 1,
			MaxPlayers: 5,
		},
		{
			Key:   "leagueoflegends",
			Name:  "League of Legends",
			Emoji: "⚔️",
			GameTypes: []string{
				"Ranked Solo/Duo", "Ranked Flex", "Draft", "ARAM",
			},
			MinPlayers: 1,
			MaxPlayers: 5,
		},
		{Key: "minecraft", Name: "Minecraft", Emoji: "⛏️", MinPlayers: 1, MaxPlayers: 10},
		{Key: "fortnite", Name: "Fortnite", Emoji: "🎪", MinPlayers: 1, MaxPlayers: 4},
		{Key: "apex", Name: "Apex Legends", Emoji: "🔫", MinPlayers: 1, MaxPlayers: 3},
		{Key: "dota2", Name: "Dota 2", Emoji: "🗡️", MinPlayers: 1, MaxPlayers: 5},
		{Key: "phasmophobia", Name: "Phasmophobia", Emoji: "👻", MinPlayers: 1, MaxPlayers: 4},
	})
}
