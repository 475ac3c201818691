package engine

type ApplicationConfig struct {
	// The application name used in windowing and as the Vulkan application name.
	Name string
	// ConfigPath points at the TOML configuration. A missing file means defaults.
	ConfigPath string
}
