package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"paperstage/internal/api"
	"paperstage/internal/audio"
	"paperstage/internal/cli/scheme/colours"
	"paperstage/internal/config"
	"paperstage/internal/generate"
	"paperstage/internal/script/emotion"
	"paperstage/internal/script/parser"
	"paperstage/internal/session"
	"paperstage/internal/tts"
	"paperstage/internal/tts/cache"
)

func main() {
	config.SetDefaults()
	config.Load()

	if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:   "paperstage",
		Short: "🎭 Turn papers into voiced stage plays",
		Long: `
┌─────────────────────────────────────┐
│  📄 Welcome to PaperStage! 🎭      │
│  Academic papers, performed as      │
│  voiced dialogue scripts 🔊        │
└─────────────────────────────────────┘

PaperStage turns a paper into a dialogue script, detects each line's
emotion, and synthesizes character voices with caching and fallback.
		`,
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(
		serveCmd(),
		generateCmd(),
		parseCmd(),
		speakCmd(),
		batchCmd(),
		cacheCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}

func newParser() *parser.Parser {
	return parser.New(parser.Config{
		AutoNextCommands: viper.GetStringSlice("script.auto_next"),
		AssetBase:        viper.GetString("script.asset_base"),
		SceneExtension:   viper.GetString("script.scene_ext"),
	})
}

func newCache() (*cache.Cache, error) {
	return cache.New(cache.Config{
		Dir:      viper.GetString("cache.dir"),
		BaseURL:  viper.GetString("cache.base_url"),
		Capacity: viper.GetInt("cache.capacity"),
	})
}

// newService assembles the provider pool from config. Providers that fail
// to construct are left out; availability probes handle the rest.
func newService(ctx context.Context, c *cache.Cache) *tts.Service {
	var providers []tts.Provider

	providers = append(providers, tts.NewLocalProvider(tts.LocalConfig{
		BaseURL:      viper.GetString("tts.local.base_url"),
		QueryTimeout: time.Duration(viper.GetInt("tts.local.query_timeout_s")) * time.Second,
		SynthTimeout: time.Duration(viper.GetInt("tts.local.synth_timeout_s")) * time.Second,
	}))

	providers = append(providers, tts.NewCloudProvider(tts.CloudConfig{
		BaseURL: viper.GetString("tts.cloud.base_url"),
		APIKey:  viper.GetString("tts.cloud.api_key"),
		Model:   viper.GetString("tts.cloud.model"),
		Timeout: time.Duration(viper.GetInt("tts.cloud.timeout_s")) * time.Second,
	}))

	if _, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
		gcloud, err := tts.NewGCloudProvider(ctx, tts.GCloudConfig{
			LanguageCode: viper.GetString("tts.gcloud.language"),
			DefaultVoice: viper.GetString("tts.gcloud.voice"),
		})
		if err != nil {
			logrus.WithError(err).Warn("gcloud provider unavailable")
		} else {
			providers = append(providers, gcloud)
		}
	}

	return tts.NewService(tts.ServiceConfig{
		Preferred:  viper.GetString("tts.preferred"),
		Fallback:   viper.GetBool("tts.fallback"),
		MaxRetries: viper.GetInt("tts.max_retries"),
		RetryDelay: time.Duration(viper.GetInt("tts.retry_delay_ms")) * time.Millisecond,
	}, c, providers...)
}

func newBatch(svc *tts.Service, cast *tts.Cast) *tts.BatchProcessor {
	return tts.NewBatchProcessor(svc, emotion.NewDetector(), cast, viper.GetInt("batch.concurrency"))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "🌐 Run the HTTP API",
		Long:  "Serve the upload/generate/synthesize API with websocket progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			c, err := newCache()
			if err != nil {
				return err
			}
			p := newParser()
			cast := tts.DefaultCast()
			svc := newService(ctx, c)
			batch := newBatch(svc, cast)

			sessions := session.NewStore(time.Duration(viper.GetInt("session.ttl_h")) * time.Hour)
			defer sessions.Close()

			var gen *generate.Generator
			if key := viper.GetString("generate.api_key"); key != "" {
				gen, err = generate.New(ctx, generate.Config{
					BaseURL: viper.GetString("generate.base_url"),
					APIKey:  key,
					Model:   viper.GetString("generate.model"),
				}, p)
				if err != nil {
					return err
				}
			} else {
				colours.Warning.Println("⚠️  generate.api_key not set, script generation disabled")
			}

			server := api.NewServer(p, emotion.NewDetector(), cast, svc, batch, gen, sessions)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigChan
				colours.Warning.Println("\n👋 Shutting down")
				cancel()
				os.Exit(0)
			}()

			addr := viper.GetString("server.addr")
			colours.Success.Printf("🎭 PaperStage listening on %s\n", addr)
			return server.Router().Run(addr)
		},
	}
}

func generateCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate [paper-file]",
		Short: "📝 Generate a script from a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paper, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			p := newParser()
			gen, err := generate.New(cmd.Context(), generate.Config{
				BaseURL: viper.GetString("generate.base_url"),
				APIKey:  viper.GetString("generate.api_key"),
				Model:   viper.GetString("generate.model"),
			}, p)
			if err != nil {
				return err
			}

			script, sentences, err := gen.GenerateScript(cmd.Context(), string(paper))
			if err != nil {
				return err
			}

			if out == "" {
				out = args[0] + ".scene.txt"
			}
			if err := os.WriteFile(out, []byte(script), 0644); err != nil {
				return err
			}
			colours.Success.Printf("✨ %d lines written to %s\n", len(sentences), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output script file")
	return cmd
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [script-file]",
		Short: "🔍 Parse a script to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			sentences := newParser().ParseScript(string(script))
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sentences)
		},
	}
}

func speakCmd() *cobra.Command {
	var speaker string
	cmd := &cobra.Command{
		Use:   "speak [text]",
		Short: "🔊 Synthesize and play one line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCache()
			if err != nil {
				return err
			}
			cast := tts.DefaultCast()
			ch, ok := cast.Resolve(speaker)
			if !ok {
				return fmt.Errorf("speaker not in cast: %s", speaker)
			}

			detected := emotion.NewDetector().Detect(args[0])
			colours.Emotion.Printf("(%s, confidence %.2f)\n", detected.Emotion, detected.Confidence)

			svc := newService(cmd.Context(), c)
			res, err := svc.GenerateSpeech(cmd.Context(), tts.Request{
				Text:      args[0],
				Character: ch,
				Emotion:   detected.Emotion,
			})
			if err != nil {
				return err
			}

			data, _, err := c.Get(res.Key)
			if err != nil {
				return err
			}
			player := audio.NewPlayer()
			if err := player.Play(filepath.Base(res.URL), data); err != nil {
				return err
			}
			player.Wait()
			return nil
		},
	}
	cmd.Flags().StringVarP(&speaker, "speaker", "s", "narrator", "Cast member to voice the line")
	return cmd
}

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [script-file]",
		Short: "🎬 Synthesize every line of a script",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one script file")
			}
			script, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			c, err := newCache()
			if err != nil {
				return err
			}
			cast := tts.DefaultCast()
			svc := newService(cmd.Context(), c)
			batch := newBatch(svc, cast)

			result := batch.ProcessScript(cmd.Context(), newParser(), string(script), func(p tts.Progress) {
				colours.Info.Printf("\r🎙️  %d/%d", p.Done, p.Total)
			})
			fmt.Println()

			colours.Success.Printf("✅ %d succeeded", result.Succeeded)
			if result.Failed > 0 {
				colours.Error.Printf("  ❌ %d failed", result.Failed)
			}
			if result.Skipped > 0 {
				colours.Warning.Printf("  ⏭️  %d skipped", result.Skipped)
			}
			fmt.Printf("  (%d cache hits)\n", result.CacheHits)
			return nil
		},
	}
}

func cacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "💾 Inspect and maintain the audio cache",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "📊 Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCache()
			if err != nil {
				return err
			}
			files, err := os.ReadDir(c.Dir())
			if err != nil {
				return err
			}
			var count int
			var size int64
			for _, f := range files {
				info, err := f.Info()
				if err != nil || f.IsDir() {
					continue
				}
				count++
				size += info.Size()
			}
			colours.Title.Println("Audio cache")
			fmt.Printf("  dir:     %s\n", c.Dir())
			fmt.Printf("  entries: %d\n", count)
			fmt.Printf("  size:    %.2f MB\n", float64(size)/(1024*1024))
			return nil
		},
	}

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "🧹 Remove entries older than cache.max_age_days",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCache()
			if err != nil {
				return err
			}
			removed, err := c.CleanOldEntries(viper.GetInt("cache.max_age_days"))
			if err != nil {
				return err
			}
			colours.Success.Printf("🧹 Removed %d entries\n", removed)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "🗑️ Remove every cached entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCache()
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return err
			}
			colours.Success.Println("🗑️ Cache cleared")
			return nil
		},
	}

	cacheCmd.AddCommand(statusCmd, cleanCmd, clearCmd)
	return cacheCmd
}
