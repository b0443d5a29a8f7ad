package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, "collect-materials-config.json", `{
  "projectName": "portal",
  "cdpPort": 9333,
  "collectOptions": {"htmlSource": true, "iframeDepth": 12},
  "pages": [
    {"name": "01-login", "url": "https://app.test/login", "waitFor": "domcontentloaded",
     "actions": [{"type": "type", "selector": "#user", "text": "${APP_USER}"}]}
  ],
  "interactiveFlows": [{"name": "checkout", "startUrl": "https://app.test/cart"}]
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "portal", cfg.ProjectName)
	assert.Equal(t, 9333, cfg.CDPPort)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, "playwright", cfg.Driver)
	assert.Equal(t, "Asia/Taipei", cfg.Timezone)
	assert.Equal(t, path, cfg.ConfigFilePath)

	opts := cfg.CollectOptions
	assert.True(t, opts.AriaSnapshot, "absent options keep their defaults")
	assert.True(t, opts.Screenshot)
	assert.True(t, opts.CodegenRecording)
	assert.True(t, opts.SanitizeHTML)
	assert.True(t, opts.HTMLSource)
	assert.Equal(t, 10, opts.IframeDepth)

	require.Len(t, cfg.Pages, 1)
	assert.Equal(t, "${APP_USER}", cfg.Pages[0].Actions[0].Text)
	assert.Equal(t, "https://app.test/cart", cfg.InteractiveFlows[0].StartURL)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "materials.yaml", `
projectName: portal
driver: rod
outputDir: out
collectOptions:
  screenshot: false
  iframeDepth: 0
logging:
  verbosity: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "rod", cfg.Driver)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.False(t, cfg.CollectOptions.Screenshot)
	assert.Equal(t, 0, cfg.CollectOptions.IframeDepth)
	assert.Equal(t, "debug", cfg.Logging.Verbosity)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeFile(t, "bad.json", `{"projectName": [`))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = LoadConfig(writeFile(t, "empty.json", `{}`))
	assert.ErrorContains(t, err, "projectName is required")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "port too low", mutate: func(c *Config) { c.CDPPort = 80 }, wantErr: "invalid cdpPort"},
		{name: "port too high", mutate: func(c *Config) { c.CDPPort = 70000 }, wantErr: "invalid cdpPort"},
		{name: "port bounds", mutate: func(c *Config) { c.CDPPort = 1024 }},
		{name: "unknown driver", mutate: func(c *Config) { c.Driver = "selenium" }, wantErr: "invalid driver"},
		{name: "empty driver", mutate: func(c *Config) { c.Driver = "" }},
		{name: "page without name", mutate: func(c *Config) { c.Pages = []PageTarget{{URL: "https://x"}} }, wantErr: "pages[0]: name is required"},
		{name: "bad waitFor", mutate: func(c *Config) { c.Pages = []PageTarget{{Name: "a", WaitFor: "idle"}} }, wantErr: "invalid waitFor"},
		{
			name:    "unknown action",
			mutate:  func(c *Config) { c.Pages = []PageTarget{{Name: "a", Actions: []PageAction{{Type: "hover"}}}} },
			wantErr: `unknown action type: "hover"`,
		},
		{name: "bad verbosity", mutate: func(c *Config) { c.Logging.Verbosity = "loud" }, wantErr: "invalid logging verbosity"},
		{name: "negative depth", mutate: func(c *Config) { c.CollectOptions.IframeDepth = -4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ProjectName = "p"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.GreaterOrEqual(t, cfg.CollectOptions.IframeDepth, 0)
			assert.NotEmpty(t, cfg.Driver)
		})
	}
}

func TestRedactedForLog(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pages = []PageTarget{{Name: "a", Actions: []PageAction{
		{Type: ActionType, Selector: "#pw", Text: "hunter2"},
		{Type: ActionClick, Selector: "#go", Text: "kept"},
	}}}

	red := cfg.RedactedForLog()

	assert.Equal(t, "***", red.Pages[0].Actions[0].Text)
	assert.Equal(t, "kept", red.Pages[0].Actions[1].Text)
	assert.Equal(t, "hunter2", cfg.Pages[0].Actions[0].Text, "original is untouched")
}

func TestParseVerbosity(t *testing.T) {
	for in, want := range map[string]Verbosity{
		"quiet": VerbosityQuiet, "": VerbosityNormal, "Verbose": VerbosityVerbose, " debug ": VerbosityDebug,
	} {
		got, ok := ParseVerbosity(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseVerbosity("chatty")
	assert.False(t, ok)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "MATERIALS_TEST_NEW=fresh\nMATERIALS_TEST_SET=\"from file\"\n")
	t.Setenv("MATERIALS_TEST_SET", "from env")
	t.Setenv("MATERIALS_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("MATERIALS_TEST_NEW"))

	loaded, err := LoadDotEnv(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "fresh", os.Getenv("MATERIALS_TEST_NEW"))
	assert.Equal(t, "from env", os.Getenv("MATERIALS_TEST_SET"))

	loaded, err = LoadDotEnv(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("APP_PASSWORD", "s3cr$t")
	assert.Equal(t, "s3cr$t", expandEnv("${APP_PASSWORD}"))
	assert.Equal(t, "pre-s3cr$t-post", expandEnv("pre-${APP_PASSWORD}-post"))
	assert.Equal(t, "$APP_PASSWORD", expandEnv("$APP_PASSWORD"))
	assert.Equal(t, "", expandEnv("${MATERIALS_UNSET_VARIABLE}"))
}
