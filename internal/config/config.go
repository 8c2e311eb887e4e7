package config

import "github.com/spf13/viper"

// SetDefaults seeds every tunable with a usable value so a bare install
// runs without a config file. Secrets (api keys) have no default and come
// from the environment or the file.
func SetDefaults() {
	viper.SetDefault("tts.preferred", "local")
	viper.SetDefault("tts.fallback", true)
	viper.SetDefault("tts.max_retries", 2)
	viper.SetDefault("tts.retry_delay_ms", 500)

	viper.SetDefault("tts.cloud.base_url", "https://api.minimax.chat/v1/t2a_v2")
	viper.SetDefault("tts.cloud.model", "speech-01-turbo")
	viper.SetDefault("tts.cloud.timeout_s", 30)

	viper.SetDefault("tts.local.base_url", "http://127.0.0.1:50021")
	viper.SetDefault("tts.local.query_timeout_s", 10)
	viper.SetDefault("tts.local.synth_timeout_s", 60)

	viper.SetDefault("tts.gcloud.language", "cmn-CN")
	viper.SetDefault("tts.gcloud.voice", "cmn-CN-Wavenet-A")

	viper.SetDefault("cache.dir", "cache")
	viper.SetDefault("cache.capacity", 100)
	viper.SetDefault("cache.base_url", "/cache")
	viper.SetDefault("cache.max_age_days", 30)

	viper.SetDefault("script.auto_next", []string{
		"changeBackground", "changeFigure", "bgm", "playBgm", "playEffect", "playSoundEffect", "setVar", "label",
	})
	viper.SetDefault("script.asset_base", "game/")
	viper.SetDefault("script.scene_ext", ".txt")

	viper.SetDefault("batch.concurrency", 3)

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("session.ttl_h", 2)

	viper.SetDefault("generate.base_url", "https://api.openai.com/v1")
	viper.SetDefault("generate.model", "gpt-4o-mini")
}

// Load reads the config file if one exists; a missing file is fine, the
// defaults and environment carry a fresh install.
func Load() {
	viper.SetConfigName("paperstage")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.paperstage")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("paperstage")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}
