// Package config loads all runtime configuration from environment
// variables using caarlos0/env. The three game lookup tables live here too:
// they are static data loaded once at process start, and everything the
// gamification engine knows about damage, boss HP, and XP rewards comes
// from them.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultMaxHP is the boss HP used when a goal's status has no entry in the
// HP table. Unknown difficulty/status keys are never an error; they just
// fall back to the defaults (0 damage, 0 XP, 100 HP).
const DefaultMaxHP = 100

// Config holds the full server configuration.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/goalraiders.db"`

	// JWTSecret signs and verifies bearer tokens. Any issuer sharing this
	// secret can mint identities; tokens for unseen subjects provision a
	// new user on first request.
	JWTSecret string `env:"JWT_SECRET"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`

	Game GameConfig `envPrefix:"GAME_"`
}

// GameConfig is the set of lookup tables driving the gamification rules.
//
// Maps parse from env as comma-separated key:value pairs, e.g.
//
//	GAME_DAMAGE="Easy:5,Medium:15,Hard:25,Epic:40"
//
// The defaults mirror the tables the web client ships with.
type GameConfig struct {
	DamageByDifficulty map[string]int `env:"DAMAGE" envDefault:"Easy:10,Medium:20,Hard:30,Epic:50"`
	MaxHPByStatus      map[string]int `env:"BOSS_HP" envDefault:"Easy:50,Medium:100,Hard:200,Epic:400"`
	XPRewardByStatus   map[string]int `env:"XP_REWARD" envDefault:"Easy:20,Medium:50,Hard:100,Epic:200"`
}

// Damage returns the hit-point damage dealt by a task of the given
// difficulty. Unrecognized difficulties deal zero damage.
func (g GameConfig) Damage(difficulty string) int {
	return g.DamageByDifficulty[difficulty]
}

// MaxHP returns the boss HP for a goal status, falling back to
// DefaultMaxHP for unrecognized statuses.
func (g GameConfig) MaxHP(status string) int {
	if hp, ok := g.MaxHPByStatus[status]; ok {
		return hp
	}
	return DefaultMaxHP
}

// XPReward returns the experience granted for defeating a goal with the
// given status. Unrecognized statuses grant nothing.
func (g GameConfig) XPReward(status string) int {
	return g.XPRewardByStatus[status]
}

// Load parses the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}
	return cfg, nil
}
