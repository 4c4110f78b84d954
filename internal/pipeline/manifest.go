package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"genoalign/internal/guidetree"
)

// Manifest records what a run consumed and produced. It is the persisted
// copy of the leaf mapping between the user's tree and the guide tree.
type Manifest struct {
	RunID     string              `yaml:"run_id"`
	Started   time.Time           `yaml:"started"`
	Finished  time.Time           `yaml:"finished"`
	GenomeDir string              `yaml:"genome_dir"`
	TreeFile  string              `yaml:"tree_file,omitempty"`
	PlotTree  string              `yaml:"plot_tree,omitempty"`
	GuideTree string              `yaml:"guide_tree,omitempty"`
	Leaves    guidetree.LeafIndex `yaml:"leaves,omitempty"`
	Genomes   []string            `yaml:"genomes"`
	Alignment AlignmentRecord     `yaml:"alignment"`
	Plots     []string            `yaml:"plots"`
}

type AlignmentRecord struct {
	XMFA     string `yaml:"xmfa"`
	Backbone string `yaml:"backbone"`
	Key      string `yaml:"key"`
	Reused   bool   `yaml:"reused"`
}

func newManifest() *Manifest {
	return &Manifest{RunID: uuid.NewString(), Started: time.Now().UTC()}
}

func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}
