package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

const profilesRelPath = "rustty/profiles.toml"

// DefaultGroup is the group of a new profile.
const DefaultGroup = "DEFAUT"

// Profile is a saved connection target. Secrets are never stored.
type Profile struct {
	ID            string `toml:"id"`
	Name          string `toml:"name"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Username      string `toml:"username"`
	Group         string `toml:"group"`
	Theme         string `toml:"theme"`
	TerminalCount int    `toml:"terminal_count"`
}

// NewProfile returns a profile with a fresh id and default values.
func NewProfile() Profile {
	return Profile{
		ID:            uuid.New().String(),
		Name:          "Nouveau Profil",
		Port:          DefaultPort,
		Group:         DefaultGroup,
		Theme:         "slate",
		TerminalCount: DefaultTerminalCount,
	}
}

func (p Profile) String() string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(p.Group), p.Name)
}

// Matches reports whether query occurs in the profile's name, group, host
// or username, ignoring case. An empty query matches everything.
func (p Profile) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{p.Name, p.Group, p.Host, p.Username} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// ProfileStore is the list of saved profiles and the file it came from.
type ProfileStore struct {
	path     string
	Profiles []Profile `toml:"profile"`
}

// ProfilesPath returns the location of the profiles file.
func ProfilesPath() (string, error) {
	path, err := xdg.DataFile(profilesRelPath)
	if err != nil {
		return "", fmt.Errorf("failed to get profiles path: %w", err)
	}
	return path, nil
}

// LoadProfiles reads the profiles file from the XDG data directory.
func LoadProfiles() (*ProfileStore, error) {
	path, err := ProfilesPath()
	if err != nil {
		return nil, err
	}
	return LoadProfilesFile(path)
}

// LoadProfilesFile reads profiles from path. A missing file yields an
// empty store bound to path.
func LoadProfilesFile(path string) (*ProfileStore, error) {
	s := &ProfileStore{path: path}
	// #nosec G304 - path is the user's own data file
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	for i := range s.Profiles {
		normalizeProfile(&s.Profiles[i])
	}
	return s, nil
}

// Save writes the store back to its file.
func (s *ProfileStore) Save() error {
	if s.path == "" {
		return errors.New("profile store has no file")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	return nil
}

// Path returns the file backing the store.
func (s *ProfileStore) Path() string { return s.path }

// Upsert adds p, or replaces the profile with the same id. A profile
// without an id gets a new one. It returns the stored profile.
func (s *ProfileStore) Upsert(p Profile) Profile {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	normalizeProfile(&p)
	if i := s.index(p.ID); i >= 0 {
		s.Profiles[i] = p
	} else {
		s.Profiles = append(s.Profiles, p)
	}
	return p
}

// Delete removes the profile with id and reports whether it existed.
func (s *ProfileStore) Delete(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.Profiles = slices.Delete(s.Profiles, i, i+1)
	return true
}

// Find returns the profile with id.
func (s *ProfileStore) Find(id string) (Profile, bool) {
	if i := s.index(id); i >= 0 {
		return s.Profiles[i], true
	}
	return Profile{}, false
}

// ByName returns the first profile named name, ignoring case.
func (s *ProfileStore) ByName(name string) (Profile, bool) {
	for _, p := range s.Profiles {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Profile{}, false
}

// Search returns the profiles matching query, sorted by group then name.
func (s *ProfileStore) Search(query string) []Profile {
	var out []Profile
	for _, p := range s.Profiles {
		if p.Matches(query) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b Profile) int {
		if c := strings.Compare(strings.ToUpper(a.Group), strings.ToUpper(b.Group)); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

func (s *ProfileStore) index(id string) int {
	return slices.IndexFunc(s.Profiles, func(p Profile) bool { return p.ID == id })
}

func normalizeProfile(p *Profile) {
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.TerminalCount <= 0 {
		p.TerminalCount = DefaultTerminalCount
	}
}
