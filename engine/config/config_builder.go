package config

import "github.com/spf13/viper"

// LoaderBuilderOption is a functional option for Load.
type LoaderBuilderOption func(l *loader)

// WithFile reads the given TOML file instead of searching for chaos.toml. A missing file is an error.
func WithFile(path string) LoaderBuilderOption {
	return func(l *loader) {
		l.file = path
	}
}

// WithSearchPaths replaces the directories searched for chaos.toml. No paths disables the search.
func WithSearchPaths(paths ...string) LoaderBuilderOption {
	return func(l *loader) {
		l.searchPaths = paths
	}
}

// WithBindings registers a hook run after the file is read, typically binding command line flags with
// v.BindPFlag so that set flags take precedence over the file and the environment.
func WithBindings(bind func(v *viper.Viper) error) LoaderBuilderOption {
	return func(l *loader) {
		l.bindings = append(l.bindings, bind)
	}
}
