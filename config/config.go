// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, ex: COX1_EMAIL, COX1_CLUSTAL_MAX_POLLS.
const EnvPrefix = "COX1"

// PathConfig is where each stage reads and writes its files.
type PathConfig struct {
	// directory of per-species FASTA files
	Sequences string `mapstructure:"sequences"`

	// multi-FASTA of every fetched record
	Combined string `mapstructure:"combined"`

	// aligned FASTA from the alignment service
	Aligned string `mapstructure:"aligned"`

	// raw BLAST XML report
	BLAST string `mapstructure:"blast"`
}

// NCBIConfig is for the Entrez E-utilities.
type NCBIConfig struct {
	BaseURL string `mapstructure:"base-url"`
}

// ClustalConfig is for the EBI Clustal Omega job service.
type ClustalConfig struct {
	BaseURL string `mapstructure:"base-url"`

	// sleep between status queries
	PollInterval time.Duration `mapstructure:"poll-interval"`

	// status queries made before giving up
	MaxPolls int `mapstructure:"max-polls"`

	// sequence type: dna, rna or protein
	SeqType string `mapstructure:"stype"`

	// output format requested at submission
	OutFormat string `mapstructure:"outfmt"`

	// columns of each record printed by inspect
	Width int `mapstructure:"width"`
}

// BLASTConfig is for the remote BLAST search.
type BLASTConfig struct {
	BaseURL string `mapstructure:"base-url"`

	// ex: blastn
	Program string `mapstructure:"program"`

	// ex: nt
	Database string `mapstructure:"database"`

	PollInterval time.Duration `mapstructure:"poll-interval"`

	// total time to wait on a search
	MaxWait time.Duration `mapstructure:"max-wait"`

	// hits to report
	Hits int `mapstructure:"hits"`

	// hits requested from the service, zero for its default
	HitlistSize int `mapstructure:"hitlist-size"`

	// symbols of each alignment row printed per hit
	Width int `mapstructure:"width"`

	// hits with a smaller fraction of identical columns are dropped
	MinIdentity float64 `mapstructure:"min-identity"`
}

// RetryConfig bounds retries of transient Entrez failures.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max-attempts"`
	InitialInterval time.Duration `mapstructure:"initial-interval"`
	MaxInterval     time.Duration `mapstructure:"max-interval"`
}

// HTTPConfig is shared by every remote client.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config is the root-level settings struct and is a mix
// of settings available in settings.yaml, the environment
// and the command line
type Config struct {
	// contact email sent to NCBI and EBI, required by EBI for jobs
	Email string `mapstructure:"email"`

	// tool name sent to NCBI
	Tool string `mapstructure:"tool"`

	// optional NCBI API key for higher request rates
	APIKey string `mapstructure:"api-key"`

	// gene to fetch for every species
	Gene string `mapstructure:"gene"`

	// organisms to fetch the gene for
	Species []string `mapstructure:"species"`

	Verbose bool `mapstructure:"verbose"`

	Paths   PathConfig    `mapstructure:"paths"`
	NCBI    NCBIConfig    `mapstructure:"ncbi"`
	Clustal ClustalConfig `mapstructure:"clustal"`
	BLAST   BLASTConfig   `mapstructure:"blast"`
	Retry   RetryConfig   `mapstructure:"retry"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

// SetDefaults registers every setting's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("email", "")
	v.SetDefault("tool", "cox1")
	v.SetDefault("api-key", "")
	v.SetDefault("gene", "COX1")
	v.SetDefault("species", []string{"Homo sapiens", "Pan troglodytes", "Gorilla gorilla"})
	v.SetDefault("verbose", false)

	v.SetDefault("paths.sequences", "sequences")
	v.SetDefault("paths.combined", "combined.fasta")
	v.SetDefault("paths.aligned", "aligned.fasta")
	v.SetDefault("paths.blast", "blast.xml")

	v.SetDefault("ncbi.base-url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")

	v.SetDefault("clustal.base-url", "https://www.ebi.ac.uk/Tools/services/rest/clustalo")
	v.SetDefault("clustal.poll-interval", 5*time.Second)
	v.SetDefault("clustal.max-polls", 120)
	v.SetDefault("clustal.stype", "dna")
	v.SetDefault("clustal.outfmt", "fa")
	v.SetDefault("clustal.width", 50)

	v.SetDefault("blast.base-url", "https://blast.ncbi.nlm.nih.gov/Blast.cgi")
	v.SetDefault("blast.program", "blastn")
	v.SetDefault("blast.database", "nt")
	v.SetDefault("blast.poll-interval", 20*time.Second)
	v.SetDefault("blast.max-wait", 30*time.Minute)
	v.SetDefault("blast.hits", 3)
	v.SetDefault("blast.hitlist-size", 0)
	v.SetDefault("blast.width", 75)
	v.SetDefault("blast.min-identity", 0.0)

	v.SetDefault("retry.max-attempts", 4)
	v.SetDefault("retry.initial-interval", time.Second)
	v.SetDefault("retry.max-interval", 15*time.Second)

	v.SetDefault("http.timeout", 2*time.Minute)
}

// Read sets v up to read the environment and a settings file. If file is
// empty, settings.yaml is looked for in the working directory and then
// in ~/.cox1; a missing file there is not an error.
func Read(v *viper.Viper, file string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read settings from %s: %w", file, err)
		}
		return nil
	}

	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".cox1"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config and checks it.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// New returns a new Config struct populated by the global Viper
// instance, which cmd binds to the settings file and flags.
func New() (*Config, error) {
	return Load(viper.GetViper())
}

// Validate checks the bounds that keep polling and retries finite.
func (c *Config) Validate() error {
	var problems []string

	if c.Gene == "" {
		problems = append(problems, "gene must be set")
	}
	if c.Clustal.PollInterval <= 0 {
		problems = append(problems, "clustal.poll-interval must be positive")
	}
	if c.Clustal.MaxPolls < 1 {
		problems = append(problems, "clustal.max-polls must be at least 1")
	}
	if c.BLAST.PollInterval <= 0 {
		problems = append(problems, "blast.poll-interval must be positive")
	}
	if c.BLAST.MaxWait < c.BLAST.PollInterval {
		problems = append(problems, "blast.max-wait must be at least blast.poll-interval")
	}
	if c.BLAST.Hits < 0 {
		problems = append(problems, "blast.hits must not be negative")
	}
	if c.BLAST.MinIdentity < 0 || c.BLAST.MinIdentity > 1 {
		problems = append(problems, "blast.min-identity must be between 0 and 1")
	}
	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.max-attempts must be at least 1")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		problems = append(problems, fmt.Sprintf("email %q is not an address", c.Email))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	return nil
}
