package pipeline

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tilewright/tilewright/pkg/errors"
)

// Profile is a TOML generation profile. Every field is optional;
// pointer fields distinguish an absent key from an explicit zero, so a
// profile can be layered between defaults and command-line flags.
type Profile struct {
	Sample         *string `toml:"sample"`
	FragmentWidth  *int    `toml:"fragment_width"`
	FragmentHeight *int    `toml:"fragment_height"`
	NoReflection   *bool   `toml:"no_reflection"`
	NoRotation     *bool   `toml:"no_rotation"`
	NoIntern       *bool   `toml:"no_intern"`
	OutputWidth    *int    `toml:"output_width"`
	OutputHeight   *int    `toml:"output_height"`
	Periodic       *bool   `toml:"periodic"`
	ContainsGround *bool   `toml:"contains_ground"`
	Seed           *uint64 `toml:"seed"`
	MaxAttempts    *int    `toml:"max_attempts"`
}

// LoadProfile reads a TOML profile from disk.
func LoadProfile(path string) (*Profile, error) {
	if err := errors.ValidateSamplePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "profile not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read profile %s", path)
	}

	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse profile %s", path)
	}
	return &p, nil
}

// Apply overlays the profile's set keys onto opts. Absent keys leave
// opts untouched.
func (p *Profile) Apply(opts *Options) {
	if p == nil || opts == nil {
		return
	}
	if p.Sample != nil {
		opts.SamplePath = *p.Sample
	}
	if p.FragmentWidth != nil {
		opts.FragmentWidth = *p.FragmentWidth
	}
	if p.FragmentHeight != nil {
		opts.FragmentHeight = *p.FragmentHeight
	}
	if p.NoReflection != nil {
		opts.NoReflection = *p.NoReflection
	}
	if p.NoRotation != nil {
		opts.NoRotation = *p.NoRotation
	}
	if p.NoIntern != nil {
		opts.NoIntern = *p.NoIntern
	}
	if p.OutputWidth != nil {
		opts.OutputWidth = *p.OutputWidth
	}
	if p.OutputHeight != nil {
		opts.OutputHeight = *p.OutputHeight
	}
	if p.Periodic != nil {
		opts.Periodic = *p.Periodic
	}
	if p.ContainsGround != nil {
		opts.ContainsGround = *p.ContainsGround
	}
	if p.Seed != nil {
		opts.Seed = *p.Seed
	}
	if p.MaxAttempts != nil {
		opts.MaxAttempts = *p.MaxAttempts
	}
}

// LoadOptions builds Options from a TOML profile on disk.
func LoadOptions(path string) (Options, error) {
	p, err := LoadProfile(path)
	if err != nil {
		return Options{}, err
	}
	var opts Options
	p.Apply(&opts)
	return opts, nil
}
