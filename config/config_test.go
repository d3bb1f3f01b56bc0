// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(t *testing.T, file string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if err := Read(v, file); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return v
}

func TestLoad_defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := Load(newViper(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Gene != "COX1" {
		t.Errorf("Gene = %q, want COX1", c.Gene)
	}
	wantSpecies := []string{"Homo sapiens", "Pan troglodytes", "Gorilla gorilla"}
	if !reflect.DeepEqual(c.Species, wantSpecies) {
		t.Errorf("Species = %v, want %v", c.Species, wantSpecies)
	}
	if c.Clustal.PollInterval != 5*time.Second || c.Clustal.MaxPolls != 120 {
		t.Errorf("Clustal polling = %v x %d", c.Clustal.PollInterval, c.Clustal.MaxPolls)
	}
	if c.BLAST.Hits != 3 || c.BLAST.Width != 75 || c.Clustal.Width != 50 {
		t.Errorf("report widths = %d hits, %d blast, %d clustal", c.BLAST.Hits, c.BLAST.Width, c.Clustal.Width)
	}
	if c.Email != "" {
		t.Errorf("Email = %q, want empty by default", c.Email)
	}
}

func TestLoad_env(t *testing.T) {
	t.Setenv("COX1_EMAIL", "dev@example.org")
	t.Setenv("COX1_CLUSTAL_MAX_POLLS", "7")
	t.Setenv("COX1_BLAST_POLL_INTERVAL", "30s")

	c, err := Load(newViper(t, filepath.Join("testdata", "settings.yaml")))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Email != "dev@example.org" {
		t.Errorf("Email = %q", c.Email)
	}
	if c.Clustal.MaxPolls != 7 {
		t.Errorf("Clustal.MaxPolls = %d, want 7", c.Clustal.MaxPolls)
	}
	if c.BLAST.PollInterval != 30*time.Second {
		t.Errorf("BLAST.PollInterval = %v, want 30s", c.BLAST.PollInterval)
	}
}

func TestLoad_file(t *testing.T) {
	c, err := Load(newViper(t, filepath.Join("testdata", "settings.yaml")))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !reflect.DeepEqual(c.Species, []string{"Mus musculus", "Rattus norvegicus"}) {
		t.Errorf("Species = %v", c.Species)
	}
	if c.Paths.Sequences != "seqs" {
		t.Errorf("Paths.Sequences = %q", c.Paths.Sequences)
	}
	if c.Clustal.PollInterval != 2*time.Second {
		t.Errorf("Clustal.PollInterval = %v", c.Clustal.PollInterval)
	}
	// untouched keys keep their defaults
	if c.BLAST.Program != "blastn" {
		t.Errorf("BLAST.Program = %q", c.BLAST.Program)
	}
}

func TestNew(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v := viper.GetViper()
	SetDefaults(v)
	if err := Read(v, filepath.Join("testdata", "settings.yaml")); err != nil {
		t.Fatal(err)
	}

	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Paths.Sequences != "seqs" {
		t.Errorf("Paths.Sequences = %q, want the global settings file's value", c.Paths.Sequences)
	}
}

func TestRead_missingFile(t *testing.T) {
	v := viper.New()
	if err := Read(v, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for an explicit settings file that doesn't exist")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		SetDefaults(v)
		var c Config
		if err := v.Unmarshal(&c); err != nil {
			t.Fatal(err)
		}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"zero polls", func(c *Config) { c.Clustal.MaxPolls = 0 }, "clustal.max-polls"},
		{"zero interval", func(c *Config) { c.Clustal.PollInterval = 0 }, "clustal.poll-interval"},
		{"short blast wait", func(c *Config) { c.BLAST.MaxWait = time.Second }, "blast.max-wait"},
		{"identity over 1", func(c *Config) { c.BLAST.MinIdentity = 1.5 }, "blast.min-identity"},
		{"no retries", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max-attempts"},
		{"bad email", func(c *Config) { c.Email = "nobody" }, "not an address"},
		{"no gene", func(c *Config) { c.Gene = "" }, "gene"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestMain(m *testing.M) {
	os.Unsetenv("COX1_EMAIL")
	os.Exit(m.Run())
}
