package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pfrederiksen/odds-alchemist/internal/logger"
	"github.com/pfrederiksen/odds-alchemist/internal/odds"
)

const oddsPage = `<html><body><table>
<tr><th>番</th><th>馬名</th><th>単勝</th><th>複勝</th></tr>
<tr><td>1</td><td><a href="/horse/1">Thunder</a></td><td>4.5</td><td>1.2 - 1.8</td></tr>
<tr><td>2</td><td>Lightning</td><td>2.5</td><td>1.1-1.4</td></tr>
<tr><td>3</td><td>Storm</td><td>---</td><td>---</td></tr>
</table></body></html>`

// execute runs the CLI with args and returns stdout, stderr and the exit code
func execute(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()

	a := &app{
		newLogger: func(debug bool, w io.Writer) (*zap.Logger, error) {
			return logger.NewWithWriter(debug, w), nil
		},
	}
	cmd := a.rootCmd()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	code := run(cmd)
	return stdout.String(), stderr.String(), code
}

func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("SINK", "dryrun")
	t.Setenv("EXTRACT_STRATEGY", "pattern")
	t.Setenv("TARGET_URL", "")
}

func TestExtract_Stdin(t *testing.T) {
	isolate(t)

	stdout, _, code := execute(t, oddsPage, "extract")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
	}

	for _, want := range []string{"Thunder", "Lightning", "Storm", "1.2-1.8", "Total: 3 horses"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestExtract_FileJSON(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "race.html")
	if err := os.WriteFile(path, []byte(oddsPage), 0600); err != nil {
		t.Fatal(err)
	}

	stdout, _, code := execute(t, "", "extract", "--file", path, "--format", "json", "--sort", "win")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}

	var result struct {
		Source  string        `json:"source"`
		Records []odds.Record `json:"records"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}

	if result.Source != path {
		t.Errorf("source = %q, want %q", result.Source, path)
	}
	got := make([]string, len(result.Records))
	for i, r := range result.Records {
		got[i] = r.HorseNumber
	}
	if strings.Join(got, ",") != "2,1,3" {
		t.Errorf("win order = %v, want [2 1 3]", got)
	}
}

func TestExtract_URL(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, oddsPage)
	}))
	defer srv.Close()

	stdout, _, code := execute(t, "", "extract", "--url", srv.URL)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "Thunder") {
		t.Errorf("output missing Thunder:\n%s", stdout)
	}
}

func TestExtract_NoOdds(t *testing.T) {
	isolate(t)

	stdout, _, code := execute(t, "<p>racing abandoned</p>", "extract")
	if code != ExitSuccess {
		t.Errorf("exit code = %d, want %d", code, ExitSuccess)
	}
	if !strings.Contains(stdout, "No odds found.") {
		t.Errorf("output = %q", stdout)
	}
}

func TestExtract_InvalidFlags(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "format", args: []string{"extract", "--format", "xml"}},
		{name: "sort", args: []string{"extract", "--sort", "odds"}},
		{name: "strategy", args: []string{"extract", "--strategy", "guess"}},
		{name: "file and url", args: []string{"extract", "--file", "a.html", "--url", "http://x"}},
		{name: "missing file", args: []string{"extract", "--file", "missing.html"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := execute(t, oddsPage, tt.args...)
			if code != ExitError {
				t.Errorf("exit code = %d, want %d", code, ExitError)
			}
			if !strings.Contains(stderr, "Error:") {
				t.Errorf("stderr = %q, want an error message", stderr)
			}
		})
	}
}

func TestSync_DryRun(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, oddsPage)
	}))
	defer srv.Close()

	stdout, stderr, code := execute(t, "", "sync", "--url", srv.URL, "--range", "Race1!A:F")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	for _, want := range []string{
		"--- Append 3 rows to Race1!A:F",
		"\t1\tThunder\t4.5\t1.2\t1.8",
		"Appended 3 rows to Race1!A:F (18 cells",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, `"saved rows"`) {
		t.Errorf("expected 'saved rows' log on stderr:\n%s", stderr)
	}
}

func TestSync_NoOdds(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<table><tr><th>番</th></tr></table>")
	}))
	defer srv.Close()

	stdout, stderr, code := execute(t, "", "sync", "--url", srv.URL)
	if code != ExitNoOdds {
		t.Errorf("exit code = %d, want %d", code, ExitNoOdds)
	}
	if strings.Contains(stdout, "--- Append") {
		t.Error("nothing should reach the sink")
	}
	if !strings.Contains(stderr, "no odds data found") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestSync_Failures(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tests := []struct {
		name string
		args []string
	}{
		{name: "no url", args: []string{"sync"}},
		{name: "fetch error", args: []string{"sync", "--url", srv.URL}},
		{name: "unknown sink", args: []string{"sync", "--url", srv.URL, "--sink", "ftp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, code := execute(t, "", tt.args...)
			if code != ExitError {
				t.Errorf("exit code = %d, want %d", code, ExitError)
			}
		})
	}
}

func TestMissingEnvFile(t *testing.T) {
	isolate(t)

	_, stderr, code := execute(t, oddsPage, "--env-file", "missing.env", "extract")
	if code != ExitError {
		t.Errorf("exit code = %d, want %d", code, ExitError)
	}
	if !strings.Contains(stderr, "missing.env") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSortRecords(t *testing.T) {
	win := func(s string) decimal.NullDecimal {
		return decimal.NewNullDecimal(decimal.RequireFromString(s))
	}
	records := func() []odds.Record {
		return []odds.Record{
			odds.NewRecord("10", "Zephyr").WithWin(win("3.1")),
			odds.NewRecord("2", "alpha"),
			odds.NewRecord("7", "Breeze").WithWin(win("1.9")),
			odds.NewRecord("1", "Comet"),
		}
	}

	tests := []struct {
		order SortOrder
		want  string
	}{
		{SortByPage, "10,2,7,1"},
		{SortByNumber, "1,2,7,10"},
		{SortByName, "2,7,1,10"},
		{SortByWin, "7,10,1,2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			recs := records()
			sortRecords(recs, tt.order)

			got := make([]string, len(recs))
			for i, r := range recs {
				got[i] = r.HorseNumber
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("order = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	if o, err := ParseSortOrder(""); err != nil || o != SortByPage {
		t.Errorf("ParseSortOrder(\"\") = %v, %v", o, err)
	}
	if o, err := ParseSortOrder(" WIN "); err != nil || o != SortByWin {
		t.Errorf("ParseSortOrder(WIN) = %v, %v", o, err)
	}
	if _, err := ParseSortOrder("odds"); err == nil {
		t.Error("ParseSortOrder(odds) should fail")
	}
}
