package config

type AppConfig struct {
	AllocatorConfig *AllocatorConfig
	ArenaConfig     *ArenaConfig
	LogLevel        string
}

func New() *AppConfig {
	return &AppConfig{
		AllocatorConfig: NewAllocatorConfig(),
		ArenaConfig:     NewArenaConfig(),
		LogLevel:        "info",
	}
}
