package main

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

type client struct {
	baseURL    string
	httpClient *http.Client
}

type analyzeResp struct {
	Success bool    `json:"success"`
	Score   float64 `json:"score"`
	Details struct {
		ScutScore     float64 `json:"scut_score"`
		MebeautyScore float64 `json:"mebeauty_score"`
		EnsembleScore float64 `json:"ensemble_score"`
	} `json:"details"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	Provider         string `json:"provider"`
	Provenance       string `json:"provenance"`
	Error            string `json:"error"`
}

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

type profile struct {
	BaseURL string `yaml:"baseUrl"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func newClient(baseURL string) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

func (c *client) request(method, path string, body any) (int, []byte, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, nil
}

func main() {
	baseURL := getenv("RMB_BASE_URL", "http://localhost:8080")
	profileName := getenv("RMB_PROFILE", "")
	ui := newUI()

	root := &cobra.Command{
		Use:   "rmb",
		Short: "ratemybeard CLI",
		Long:  "ratemybeard CLI for scoring face images against the ensemble service.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "Base URL for the ratemybeard service")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadConfig()
		active := resolveProfileName(profileName, cfg)
		prof := cfg.Profiles[active]

		flags := cmd.Flags()
		if !flags.Changed("base-url") {
			if v := strings.TrimSpace(os.Getenv("RMB_BASE_URL")); v != "" {
				baseURL = v
			} else if prof.BaseURL != "" {
				baseURL = prof.BaseURL
			}
		}
		if !flags.Changed("profile") && profileName == "" && active != "" {
			profileName = active
		}
		return nil
	}

	root.AddCommand(initCmd(&profileName, ui))
	root.AddCommand(analyzeCmd(&baseURL, ui))
	root.AddCommand(healthCmd(&baseURL, ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func initCmd(profileName *string, ui *ui) *cobra.Command {
	var (
		baseURL  string
		noPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]

			if baseURL == "" {
				baseURL = prof.BaseURL
			}
			if baseURL == "" {
				baseURL = "http://localhost:8080"
			}

			if !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				baseURL = prompt(reader, "Base URL", baseURL)
			}

			prof.BaseURL = strings.TrimSpace(baseURL)
			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}

			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Initialized profile '%s' at %s\n", ui.ok("[OK]"), active, cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for the ratemybeard service")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Skip interactive prompts")
	return cmd
}

func analyzeCmd(baseURL *string, ui *ui) *cobra.Command {
	var rawJSON bool
	cmd := &cobra.Command{
		Use:   "analyze <image-file> [image-file...]",
		Short: "Score one or more face images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*baseURL)

			if len(args) == 1 {
				return analyzeOne(c, args[0], rawJSON, true, ui)
			}

			var bar *progressbar.ProgressBar
			if isTerminal(int(os.Stderr.Fd())) && !rawJSON {
				bar = progressbar.NewOptions(len(args),
					progressbar.OptionSetDescription("Scoring images"),
					progressbar.OptionSetWidth(18),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			var failures int
			for _, path := range args {
				if err := analyzeOne(c, path, rawJSON, false, ui); err != nil {
					failures++
					fmt.Fprintf(os.Stderr, "%s %s: %v\n", ui.err("[ERROR]"), path, err)
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d images failed", failures, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print raw JSON responses")
	return cmd
}

func analyzeOne(c *client, path string, rawJSON, spin bool, ui *ui) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	body := map[string]any{"image_data": base64.StdEncoding.EncodeToString(data)}

	var sp *spinner.Spinner
	if spin && isTerminal(int(os.Stderr.Fd())) {
		sp = spinner.New(spinner.CharSets[14], 120*time.Millisecond)
		sp.Suffix = " Scoring " + filepath.Base(path) + "..."
		sp.Start()
	}
	status, resp, err := c.request("POST", "/v1/analyze", body)
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return err
	}
	if rawJSON {
		fmt.Println(string(resp))
		if status >= 300 {
			return fmt.Errorf("error (%d)", status)
		}
		return nil
	}
	if status >= 300 {
		return fmt.Errorf("error (%d): %s", status, string(resp))
	}

	var out analyzeResp
	if err := json.Unmarshal(resp, &out); err != nil {
		fmt.Println(string(resp))
		return nil
	}
	printResult(filepath.Base(path), out, ui)
	return nil
}

func printResult(name string, out analyzeResp, ui *ui) {
	tag := ui.ok("[OK]")
	note := ""
	switch out.Provenance {
	case "fallback":
		tag = ui.warn("[FALLBACK]")
		note = ui.dim(" (no model reachable, placeholder score)")
	case "mixed":
		note = ui.dim(" (one model degraded)")
	}
	fmt.Printf("%s %s  score %s%s\n", tag, ui.title(name), ui.ok(fmt.Sprintf("%.2f", out.Score)), note)
	fmt.Printf("  %s scut=%.2f mebeauty=%.2f ensemble=%.2f\n",
		ui.dim("models:"), out.Details.ScutScore, out.Details.MebeautyScore, out.Details.EnsembleScore)
	fmt.Printf("  %s %dms via %s\n", ui.dim("took:"), out.ProcessingTimeMS, out.Provider)
}

func healthCmd(baseURL *string, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*baseURL)
			sp := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			sp.Suffix = " Checking service..."
			if isTerminal(int(os.Stderr.Fd())) {
				sp.Start()
			}
			status, resp, err := c.request("GET", "/healthz", nil)
			sp.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			fmt.Printf("%s %s\n", ui.ok("[OK]"), string(resp))
			return nil
		},
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func isTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

func helpTemplate(ui *ui) string {
	title := ui.title("rmb")
	return fmt.Sprintf(`%s — CLI for ratemybeard

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  rmb init
  rmb analyze face.jpg
  rmb analyze --json shots/*.jpg
  rmb health

`, title, configPath())
}

func configPath() string {
	if v := strings.TrimSpace(os.Getenv("RMB_CONFIG_DIR")); v != "" {
		return filepath.Join(v, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".rmb", "config.yaml")
}

func loadConfig() (cliConfig, string, error) {
	path := configPath()
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cliConfig{Profiles: map[string]profile{}}, path, nil
		}
		return cfg, path, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, path, nil
}

func saveConfig(cfg cliConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(flag string, cfg cliConfig) string {
	if strings.TrimSpace(flag) != "" {
		return strings.TrimSpace(flag)
	}
	if v := strings.TrimSpace(os.Getenv("RMB_PROFILE")); v != "" {
		return v
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}
