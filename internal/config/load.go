package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/imamik/shepherd/internal/provider"
)

// EnvConfig names the variable holding the default settings path.
const EnvConfig = "SHEPHERD_CONFIG"

// DefaultPath returns $SHEPHERD_CONFIG, or ~/.config/shepherd/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "shepherd", "config.yaml")
}

// Load merges defaults, the file at path and the environment. An empty path
// falls back to DefaultPath, and a missing default file is not an error.
// All failures are classified as provider.KindConfig.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	s := Default()
	if path != "" {
		if err := loadFile(path, s); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				err = nil
			} else {
				return nil, provider.Wrap(provider.KindConfig, err, "failed to load config "+path)
			}
		}
	}

	applyEnv(s)

	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func loadFile(path string, s *Settings) error {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), s)
		if err != nil {
			return fmt.Errorf("failed to parse toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys: %v", undecoded)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
	}
	return nil
}

// applyEnv overlays environment variables on s.
//
// Environment Variables:
//   - ANSIBLE_INVENTORY, then ANSIBLE_HOSTS: inventory path
//   - AWS_PROFILE, then AWS_DEFAULT_PROFILE: AWS shared profile
//   - HCLOUD_TOKEN: Hetzner Cloud API token
//   - SHEPHERD_S3_ENDPOINT, SHEPHERD_S3_REGION: object storage endpoint
//   - SHEPHERD_S3_ACCESS_KEY, SHEPHERD_S3_SECRET_KEY: object storage credentials
func applyEnv(s *Settings) {
	setFromEnv(&s.Inventory, "ANSIBLE_INVENTORY", "ANSIBLE_HOSTS")
	setFromEnv(&s.AWS.Profile, "AWS_PROFILE", "AWS_DEFAULT_PROFILE")
	setFromEnv(&s.HCloud.Token, "HCLOUD_TOKEN")
	setFromEnv(&s.S3.Endpoint, "SHEPHERD_S3_ENDPOINT")
	setFromEnv(&s.S3.Region, "SHEPHERD_S3_REGION")
	setFromEnv(&s.S3.AccessKey, "SHEPHERD_S3_ACCESS_KEY")
	setFromEnv(&s.S3.SecretKey, "SHEPHERD_S3_SECRET_KEY")
}

// setFromEnv sets dst from the first non-empty variable in names.
func setFromEnv(dst *string, names ...string) {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			*dst = v
			return
		}
	}
}

var validate = validator.New()

// Validate checks s and reports the first violations as a config error.
func Validate(s *Settings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return provider.Wrap(provider.KindConfig, err, "invalid configuration")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return provider.Errorf(provider.KindConfig, "invalid configuration: %s", strings.Join(msgs, ", "))
}
