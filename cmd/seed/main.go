// Command seed loads user records and group memberships into the directory.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dkeye/Relay/internal/adapters/auth"
	"github.com/dkeye/Relay/internal/adapters/store"
	"github.com/dkeye/Relay/internal/domain"
)

type fixtureUser struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Email  string   `yaml:"email"`
	Groups []string `yaml:"groups"`
}

type fixture struct {
	Users []fixtureUser `yaml:"users"`
}

func main() {
	file := pflag.StringP("file", "f", "config/seed.yaml", "fixture with users and their groups")
	path := pflag.String("badger-path", "./data/directory", "directory database path")
	secret := pflag.String("jwt-secret", "", "when set, print a token for every seeded user")
	ttl := pflag.Duration("token-ttl", 24*time.Hour, "lifetime of printed tokens")
	pflag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := seed(context.Background(), *file, *path, *secret, *ttl); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func loadFixture(file string) (fixture, error) {
	var fx fixture
	data, err := os.ReadFile(file)
	if err != nil {
		return fx, err
	}
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fx, fmt.Errorf("parse %s: %w", file, err)
	}
	return fx, nil
}

func (u fixtureUser) record() (domain.UserRecord, error) {
	ident, err := domain.NewIdentity(u.ID, u.Name)
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("user %q: %w", u.ID, err)
	}
	groups := make([]domain.GroupID, 0, len(u.Groups))
	for _, g := range u.Groups {
		groups = append(groups, domain.GroupID(g))
	}
	return domain.UserRecord{ID: ident.ID, Name: ident.Name, Email: u.Email, Groups: groups}, nil
}

func seed(ctx context.Context, file, path, secret string, ttl time.Duration) error {
	fx, err := loadFixture(file)
	if err != nil {
		return err
	}
	dir, err := store.Open(path, false)
	if err != nil {
		return err
	}
	defer dir.Close()

	var issuer *auth.JWTVerifier
	if secret != "" {
		issuer = auth.NewJWTVerifier(secret)
	}
	for _, u := range fx.Users {
		rec, err := u.record()
		if err != nil {
			return err
		}
		if err := dir.Put(ctx, rec); err != nil {
			return err
		}
		log.Info().Str("user_id", string(rec.ID)).Int("groups", len(rec.Groups)).Msg("seeded")
		if issuer == nil {
			continue
		}
		token, err := issuer.Issue(rec, ttl)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", rec.ID, token)
	}
	return nil
}
