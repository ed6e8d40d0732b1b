package report

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/giving-cli/internal/model"
)

// Manifest labels the contents of a year's output directory. It is written
// after every run, successful or not, so partial outputs are never
// unlabeled.
type Manifest struct {
	RunID       string          `yaml:"run_id" json:"run_id"`
	Year        int             `yaml:"year" json:"year"`
	Status      model.RunStatus `yaml:"status" json:"status"`
	FailedStep  string          `yaml:"failed_step,omitempty" json:"failed_step,omitempty"`
	Error       string          `yaml:"error,omitempty" json:"error,omitempty"`
	GeneratedAt time.Time       `yaml:"generated_at" json:"generated_at"`
	Summary     *model.Summary  `yaml:"summary,omitempty" json:"summary,omitempty"`
}

// WriteManifest writes m to path as YAML.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "report: marshal manifest")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create manifest dir")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "report: write manifest")
	}
	return eris.Wrap(os.Rename(tmp, path), "report: rename manifest")
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "report: parse manifest %s", path)
	}
	return &m, nil
}
