package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/paul0vinicius/chasing-chairs/internal/round"
)

const EnvPrefix = "CHAIRS"

type Config struct {
	Bind             string
	Port             int
	GraceDelay       time.Duration
	SpawnDelayMin    time.Duration
	SpawnDelayMax    time.Duration
	CelebrationDelay time.Duration
	MusicTimeout     time.Duration
	MusicAPI         string
	MusicQueries     []string
	RoomTTL          time.Duration
	WinScore         int
	Origins          []string
	RedisURL         string
	DatabaseURL      string
	PublicURL        string
	Profile          bool
	Verbose          bool
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	durations := []struct {
		flag string
		d    time.Duration
	}{
		{"grace-delay", c.GraceDelay},
		{"spawn-delay-min", c.SpawnDelayMin},
		{"spawn-delay-max", c.SpawnDelayMax},
		{"celebration-delay", c.CelebrationDelay},
		{"music-timeout", c.MusicTimeout},
		{"room-ttl", c.RoomTTL},
	}
	for _, d := range durations {
		if d.d < 0 {
			return fmt.Errorf("--%s must not be negative: %s", d.flag, d.d)
		}
	}
	if c.MusicTimeout == 0 {
		return errors.New("--music-timeout must be positive; leave --music-api empty to play without music")
	}
	if c.SpawnDelayMin > c.SpawnDelayMax {
		return errors.New("--spawn-delay-min must not exceed --spawn-delay-max")
	}
	if c.WinScore < 0 {
		return fmt.Errorf("--win-score must not be negative: %d", c.WinScore)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

func (c *Config) Round() round.Config {
	return round.Config{
		GraceDelay:       c.GraceDelay,
		SpawnDelayMin:    c.SpawnDelayMin,
		SpawnDelayMax:    c.SpawnDelayMax,
		CelebrationDelay: c.CelebrationDelay,
		MusicTimeout:     c.MusicTimeout,
		WinScore:         c.WinScore,
	}
}

// NewCommand builds the root command. Flags fall back to CHAIRS_* environment
// variables, which may come from a .env file in the working directory.
func NewCommand(cfg *Config, version string, run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "chasing-chairs",
		Short:         "Multiplayer musical-chairs game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: CHAIRS_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 3001, "port to listen on (env: CHAIRS_PORT)")
	fs.DurationVar(&cfg.GraceDelay, "grace-delay", 2*time.Second, "pause before the first round once two players are in (env: CHAIRS_GRACE_DELAY)")
	fs.DurationVar(&cfg.SpawnDelayMin, "spawn-delay-min", 10*time.Second, "shortest wait before the chair appears (env: CHAIRS_SPAWN_DELAY_MIN)")
	fs.DurationVar(&cfg.SpawnDelayMax, "spawn-delay-max", 13*time.Second, "longest wait before the chair appears (env: CHAIRS_SPAWN_DELAY_MAX)")
	fs.DurationVar(&cfg.CelebrationDelay, "celebration-delay", 3*time.Second, "pause between a claim and the next round (env: CHAIRS_CELEBRATION_DELAY)")
	fs.DurationVar(&cfg.MusicTimeout, "music-timeout", 5*time.Second, "give up on the music lookup after this long, must be positive (env: CHAIRS_MUSIC_TIMEOUT)")
	fs.StringVar(&cfg.MusicAPI, "music-api", "https://api.deezer.com", "music search base URL, empty disables music (env: CHAIRS_MUSIC_API)")
	fs.StringSliceVar(&cfg.MusicQueries, "music-query", []string{"brazilian funk"}, "search terms, one picked per round (env: CHAIRS_MUSIC_QUERY)")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", 0, "remove rooms idle for this long, 0 disables (env: CHAIRS_ROOM_TTL)")
	fs.IntVar(&cfg.WinScore, "win-score", 0, "score that ends the match, 0 plays forever (env: CHAIRS_WIN_SCORE)")
	fs.StringSliceVar(&cfg.Origins, "origin", []string{"*"}, "host patterns allowed to open websockets (env: CHAIRS_ORIGIN)")
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "keep rooms in redis instead of memory (env: CHAIRS_REDIS_URL)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres DSN for round history (env: CHAIRS_DATABASE_URL)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "client URL encoded in room QR codes (env: CHAIRS_PUBLIC_URL)")
	fs.BoolVar(&cfg.Profile, "profile", false, "register pprof handlers under /debug (env: CHAIRS_PROFILE)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log at debug level (env: CHAIRS_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
