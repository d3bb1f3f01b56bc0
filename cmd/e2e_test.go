package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const alignedFasta = `>hom1 Homo sapiens COX1
ATGTTCGCCGACCGTTGACTATTC
>pan1 Pan troglodytes COX1
ATGTTCGCCGACCGTTGAC-ATTC
`

const blastPut = `<!--QBlastInfoBegin
    RID = 7ZX2RTWA016
    RTOE = 1
QBlastInfoEnd
-->`

const blastReady = `<!--QBlastInfoBegin
	Status=READY
QBlastInfoEnd
-->
<!--QBlastInfoBegin
	ThereAreHits=yes
QBlastInfoEnd
-->`

// services fakes Entrez, Clustal Omega and BLAST, counting calls to each
type services struct {
	entrez, clustal, blast *httptest.Server

	fetches, alignments, searches int
}

func newServices(t *testing.T) *services {
	t.Helper()

	report, err := os.ReadFile(filepath.Join("..", "internal", "blast", "testdata", "cox1.xml"))
	if err != nil {
		t.Fatal(err)
	}

	records := map[string]string{
		`"Homo sapiens"[Organism] AND COX1[Gene]`:    "hom1",
		`"Pan troglodytes"[Organism] AND COX1[Gene]`: "pan1",
	}

	s := &services{}
	s.entrez = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/esearch.fcgi":
			id, ok := records[q.Get("term")]
			if !ok {
				fmt.Fprint(w, `{"esearchresult":{"count":"0","idlist":[]}}`)
				return
			}
			fmt.Fprintf(w, `{"esearchresult":{"count":"1","idlist":["%s"]}}`, id)
		case "/efetch.fcgi":
			s.fetches++
			fmt.Fprintf(w, ">%s COX1\nATGTTCGCCGACCGTTGACTATTC\n", q.Get("id"))
		default:
			http.NotFound(w, r)
		}
	}))

	s.clustal = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/run":
			s.alignments++
			fmt.Fprint(w, "clustalo-R20260101-1")
		case strings.HasPrefix(r.URL.Path, "/status/"):
			fmt.Fprint(w, "FINISHED")
		case strings.HasPrefix(r.URL.Path, "/result/"):
			fmt.Fprint(w, alignedFasta)
		default:
			http.NotFound(w, r)
		}
	}))

	s.blast = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		switch {
		case r.Form.Get("CMD") == "Put":
			s.searches++
			fmt.Fprint(w, blastPut)
		case r.Form.Get("FORMAT_OBJECT") == "SearchInfo":
			fmt.Fprint(w, blastReady)
		default:
			w.Write(report)
		}
	}))

	t.Cleanup(func() {
		s.entrez.Close()
		s.clustal.Close()
		s.blast.Close()
	})
	return s
}

// settings writes a settings file pointing every client at the fakes
func (s *services) settings(t *testing.T, species ...string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	var list strings.Builder
	for _, sp := range species {
		fmt.Fprintf(&list, "  - %s\n", sp)
	}

	file := filepath.Join(dir, "settings.yaml")
	contents := fmt.Sprintf(`email: dev@example.org
species:
%spaths:
  sequences: %s
  combined: %s
  aligned: %s
  blast: %s
ncbi:
  base-url: %s
clustal:
  base-url: %s
  poll-interval: 1ms
blast:
  base-url: %s
  poll-interval: 1ms
  max-wait: 1s
retry:
  initial-interval: 1ms
  max-interval: 2ms
`,
		list.String(),
		filepath.Join(dir, "sequences"),
		filepath.Join(dir, "combined.fasta"),
		filepath.Join(dir, "aligned.fasta"),
		filepath.Join(dir, "blast.xml"),
		s.entrez.URL, s.clustal.URL, s.blast.URL,
	)
	if err := os.WriteFile(file, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return file, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func Test_runExec(t *testing.T) {
	tests := []struct {
		name           string
		species        []string
		wantErr        bool
		wantAlignments int
		wantSearches   int
	}{
		{"end to end test", []string{"Homo sapiens", "Pan troglodytes", "Gorilla gorilla"}, false, 1, 1},
		{"single species skips alignment", []string{"Homo sapiens", "Gorilla gorilla"}, false, 0, 1},
		{"no species found", []string{"Gorilla gorilla"}, true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServices(t)
			file, dir := s.settings(t, tt.species...)

			out, err := execute(t, "run", "--config", file, "--log-json")
			if (err != nil) != tt.wantErr {
				t.Fatalf("run error = %v, wantErr %v", err, tt.wantErr)
			}
			if s.alignments != tt.wantAlignments || s.searches != tt.wantSearches {
				t.Errorf("alignments=%d searches=%d, want %d, %d", s.alignments, s.searches, tt.wantAlignments, tt.wantSearches)
			}
			if tt.wantErr {
				return
			}

			if tt.wantAlignments > 0 && !strings.Contains(out, "Alignment length: 24\n") {
				t.Errorf("output missing the inspection:\n%s", out)
			}
			if !strings.Contains(out, "****Alignment****") {
				t.Errorf("output missing the blast report:\n%s", out)
			}
			if _, err := os.Stat(filepath.Join(dir, "blast.xml")); err != nil {
				t.Errorf("blast report not saved: %v", err)
			}
		})
	}
}

func Test_fetchExec_args(t *testing.T) {
	s := newServices(t)
	file, dir := s.settings(t, "Gorilla gorilla")

	out, err := execute(t, "fetch", "Pan troglodytes", "--config", file, "--no-progress")
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}

	want := filepath.Join(dir, "sequences", "Pan_troglodytes_COX1.fasta")
	if strings.TrimSpace(out) != want {
		t.Errorf("fetch wrote %q, want %q", out, want)
	}
	if s.fetches != 1 {
		t.Errorf("fetched %d records, want 1", s.fetches)
	}
}

func Test_reportExec(t *testing.T) {
	s := newServices(t)
	file, dir := s.settings(t, "Homo sapiens")

	report, err := os.ReadFile(filepath.Join("..", "internal", "blast", "testdata", "cox1.xml"))
	if err != nil {
		t.Fatal(err)
	}
	saved := filepath.Join(dir, "saved.xml")
	if err := os.WriteFile(saved, report, 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "report", saved, "--config", file, "--min-identity", "0.9")
	if err != nil {
		t.Fatalf("report error = %v", err)
	}
	if got := strings.Count(out, "****Alignment****"); got != 2 {
		t.Errorf("report printed %d hits, want 2:\n%s", got, out)
	}
	if s.searches != 0 {
		t.Errorf("report searched %d times, want 0", s.searches)
	}
}

func Test_alignExec_noEmail(t *testing.T) {
	t.Setenv("COX1_EMAIL", "")
	file := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(file, []byte("gene: COX1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "align", "--config", file, "--email", ""); err == nil {
		t.Error("expected align to fail without a contact email")
	}
}

func Test_makeDocs(t *testing.T) {
	dir := t.TempDir()
	if err := makeDocs(dir); err != nil {
		t.Fatalf("makeDocs() error = %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "cox1_blast.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "---\nlayout: default\ntitle: blast\nparent: cox1\n") {
		t.Errorf("unexpected front matter:\n%s", b)
	}
}
