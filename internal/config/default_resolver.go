package config

import "github.com/tauraamui/edgevector/pkg/configdef"

// DefaultCreateResolver resolves and creates the config file at path, or
// at the env/user config location when path is empty.
func DefaultCreateResolver(path string) configdef.CreateResolver {
	return defaultCreateResolver{path: path}
}

type defaultCreateResolver struct {
	path string
}

func (d defaultCreateResolver) Resolve() (configdef.Values, error) {
	return load(d.path)
}

func (d defaultCreateResolver) Create() error {
	_, err := create(d.path)
	return err
}
