// Package settings resolves the server configuration from a settings file, a
// .env file, the process environment, and the editor.
//
// Later sources win: file < .env < environment < editor < command-line flags.
package settings

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// FileNames are the settings files Discover looks for, in order.
var FileNames = []string{".chtlls.hcl", ".chtlls.yaml", ".chtlls.yml"}

type Settings struct {
	Compiler CompilerSettings `json:"compiler" yaml:"compiler"`
	Preview  PreviewSettings  `json:"preview" yaml:"preview"`
	Format   FormatSettings   `json:"format" yaml:"format"`
	Log      LogSettings      `json:"log" yaml:"log"`
}

type CompilerSettings struct {
	Path string `json:"path" yaml:"path" hcl:"path,optional"`
}

type PreviewSettings struct {
	AutoRefresh  bool   `json:"autoRefresh" yaml:"auto_refresh" hcl:"auto_refresh,optional"`
	Host         string `json:"host" yaml:"host" hcl:"host,optional"`
	Port         int    `json:"port" yaml:"port" hcl:"port,optional"`
	InjectReload bool   `json:"injectReload" yaml:"inject_reload" hcl:"inject_reload,optional"`
}

type FormatSettings struct {
	TabSize      int  `json:"tabSize" yaml:"tab_size" hcl:"tab_size,optional"`
	InsertSpaces bool `json:"insertSpaces" yaml:"insert_spaces" hcl:"insert_spaces,optional"`
}

type LogSettings struct {
	Level string `json:"level" yaml:"level" hcl:"level,optional"`
}

func Default() Settings {
	return Settings{
		Compiler: CompilerSettings{Path: "chtlc"},
		Preview: PreviewSettings{
			AutoRefresh:  false,
			Host:         "localhost",
			Port:         3000,
			InjectReload: true,
		},
		Format: FormatSettings{TabSize: 4, InsertSpaces: true},
		Log:    LogSettings{Level: "info"},
	}
}

// LogLevel parses Log.Level, falling back to info.
func (s Settings) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s.Log.Level))
	if err != nil || s.Log.Level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// hclFile points each block at the matching section of a Settings so that
// attributes missing from the file keep their current values.
type hclFile struct {
	Compiler *CompilerSettings `hcl:"compiler,block"`
	Preview  *PreviewSettings  `hcl:"preview,block"`
	Format   *FormatSettings   `hcl:"format,block"`
	Log      *LogSettings      `hcl:"log,block"`
}

// Discover returns the first settings file present in dir.
func Discover(fs afero.Fs, dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if ok, _ := afero.Exists(fs, path); ok {
			return path, true
		}
	}
	return "", false
}

// Load reads the settings file at path over the defaults. The format follows
// the extension: .yaml/.yml is YAML, anything else is HCL.
func Load(fs afero.Fs, path string) (Settings, error) {
	s := Default()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return s, errors.Errorf("reading settings file: %w", err)
	}

	if err := s.decode(data, path); err != nil {
		return Default(), err
	}
	return s, nil
}

func (s *Settings) decode(data []byte, path string) error {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(s); err != nil {
			return errors.Errorf("parsing YAML: %w", err)
		}
		return nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return errors.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	target := hclFile{
		Compiler: &s.Compiler,
		Preview:  &s.Preview,
		Format:   &s.Format,
		Log:      &s.Log,
	}
	if diags := gohcl.DecodeBody(file.Body, ctx, &target); diags.HasErrors() {
		return errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return nil
}

// Resolve layers, lowest first: defaults, the settings file in dir, dir/.env,
// then environ. Sources that fail are skipped and their errors combined into
// the returned error, so the settings are usable either way.
func Resolve(fs afero.Fs, dir string, environ []string) (Settings, error) {
	s := Default()
	var errs error

	if dir != "" {
		if path, ok := Discover(fs, dir); ok {
			loaded, err := Load(fs, path)
			if err != nil {
				errs = multierr.Append(errs, errors.Errorf("loading %s: %w", path, err))
			} else {
				s = loaded
			}
		}

		dotenv, err := LoadDotEnv(fs, filepath.Join(dir, ".env"))
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if err := s.ApplyEnv(dotenv); err != nil {
			errs = multierr.Append(errs, errors.Errorf("applying .env: %w", err))
		}
	}

	if err := s.ApplyEnv(EnvMap(environ)); err != nil {
		errs = multierr.Append(errs, errors.Errorf("applying environment: %w", err))
	}

	return s, errs
}

// LoadDotEnv parses the .env file at path. A missing file yields no variables.
func LoadDotEnv(fs afero.Fs, path string) (map[string]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		if ok, _ := afero.Exists(fs, path); !ok {
			return map[string]string{}, nil
		}
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", path, err)
	}
	return env, nil
}

const (
	EnvCompilerPath       = "CHTL_COMPILER_PATH"
	EnvPreviewAutoRefresh = "CHTL_PREVIEW_AUTO_REFRESH"
	EnvPreviewPort        = "CHTL_PREVIEW_PORT"
	EnvLogLevel           = "CHTL_LOG_LEVEL"
)

// ApplyEnv overlays the CHTL_* variables in env.
func (s *Settings) ApplyEnv(env map[string]string) error {
	if v, ok := env[EnvCompilerPath]; ok && v != "" {
		s.Compiler.Path = v
	}
	if v, ok := env[EnvPreviewAutoRefresh]; ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Errorf("parsing %s: %w", EnvPreviewAutoRefresh, err)
		}
		s.Preview.AutoRefresh = b
	}
	if v, ok := env[EnvPreviewPort]; ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Errorf("parsing %s: %w", EnvPreviewPort, err)
		}
		s.Preview.Port = port
	}
	if v, ok := env[EnvLogLevel]; ok && v != "" {
		s.Log.Level = v
	}
	return nil
}

// EnvMap turns os.Environ style entries into a map.
func EnvMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}

type lspSection struct {
	Compiler *struct {
		Path *string `json:"path"`
	} `json:"compiler"`
	Preview *struct {
		AutoRefresh  *bool   `json:"autoRefresh"`
		Host         *string `json:"host"`
		Port         *int    `json:"port"`
		InjectReload *bool   `json:"injectReload"`
	} `json:"preview"`
	Format *struct {
		TabSize      *int  `json:"tabSize"`
		InsertSpaces *bool `json:"insertSpaces"`
	} `json:"format"`
	Log *struct {
		Level *string `json:"level"`
	} `json:"log"`
}

// ApplyLSP overlays editor settings, shaped {"chtl": {"compiler": {"path": ...}}}.
// Null or empty input changes nothing.
func (s *Settings) ApplyLSP(raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}

	var wrapper struct {
		Chtl *lspSection `json:"chtl"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return errors.Errorf("decoding editor settings: %w", err)
	}
	sec := wrapper.Chtl
	if sec == nil {
		return nil
	}

	if sec.Compiler != nil && sec.Compiler.Path != nil && *sec.Compiler.Path != "" {
		s.Compiler.Path = *sec.Compiler.Path
	}
	if p := sec.Preview; p != nil {
		if p.AutoRefresh != nil {
			s.Preview.AutoRefresh = *p.AutoRefresh
		}
		if p.Host != nil && *p.Host != "" {
			s.Preview.Host = *p.Host
		}
		if p.Port != nil {
			s.Preview.Port = *p.Port
		}
		if p.InjectReload != nil {
			s.Preview.InjectReload = *p.InjectReload
		}
	}
	if f := sec.Format; f != nil {
		if f.TabSize != nil && *f.TabSize > 0 {
			s.Format.TabSize = *f.TabSize
		}
		if f.InsertSpaces != nil {
			s.Format.InsertSpaces = *f.InsertSpaces
		}
	}
	if l := sec.Log; l != nil && l.Level != nil {
		s.Log.Level = *l.Level
	}
	return nil
}
