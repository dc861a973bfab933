package directory

import (
	"chat-relay/domain"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

//go:embed roster/roster.json
var defaultRoster embed.FS

var validate = validator.New()

type rosterFile struct {
	Users  []Seed        `json:"users" validate:"required,min=1,dive"`
	Groups []rosterGroup `json:"groups" validate:"dive"`
}

type rosterGroup struct {
	Name    string   `json:"name" validate:"required,min=1,max=64"`
	Members []string `json:"members" validate:"required,min=1,dive,required"`
}

// Load builds the directory from a roster file. An empty path falls back to
// the embedded default roster. It returns the directory and the user seeds
// for the credential store.
func Load(path string) (*Directory, []Seed, error) {
	data, err := read(path)
	if err != nil {
		return nil, nil, err
	}

	var roster rosterFile
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, nil, fmt.Errorf("roster parsing failed: %w", err)
	}
	if err := validate.Struct(roster); err != nil {
		return nil, nil, fmt.Errorf("roster validation failed: %w", err)
	}

	dir := &Directory{
		identities: make(map[string]struct{}, len(roster.Users)),
		groups:     make(map[string]domain.Group, len(roster.Groups)),
	}
	for _, u := range roster.Users {
		if _, ok := dir.identities[u.Username]; ok {
			return nil, nil, fmt.Errorf("duplicate roster user %q", u.Username)
		}
		dir.identities[u.Username] = struct{}{}
	}

	// Group members must be known users: an unknown member could never be
	// delivered to and would silently shrink every fan-out.
	for _, g := range roster.Groups {
		if _, ok := dir.groups[g.Name]; ok {
			return nil, nil, fmt.Errorf("duplicate roster group %q", g.Name)
		}
		members := make(map[string]struct{}, len(g.Members))
		for _, m := range g.Members {
			if _, ok := dir.identities[m]; !ok {
				return nil, nil, fmt.Errorf("group %q member %q is not a roster user", g.Name, m)
			}
			members[m] = struct{}{}
		}
		dir.groups[g.Name] = domain.Group{Name: g.Name, Members: members}
	}

	return dir, roster.Users, nil
}

func read(path string) ([]byte, error) {
	if path == "" {
		return defaultRoster.ReadFile("roster/roster.json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster file %s: %w", path, err)
	}
	return data, nil
}
