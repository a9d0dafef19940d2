package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/geoinspect/pkg/extract"
)

const snapshot = `
variables:
  - name: pt
    shape: point
    points: [[1, 2]]
  - name: poly
    shape: polygon
    points: [[0, 0], [0, 4], [4, 4], [4, 0], [0, 0]]
  - name: xs
    shape: values
    container: deque
    values: [1, 2, 3]
  - name: ys
    shape: values
    values: [5, 6]
  - name: geo
    shape: point
    cs: geographic
    points: [[4.4, 50.8]]
`

const userTypes = `
shapes:
  - kind: MultiGeometry
    id: my::Scene
    container: $this.items
`

type harness struct {
	dir      string
	snapshot string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{dir: dir, snapshot: filepath.Join(dir, "snapshot.yaml")}
	require.NoError(t, os.WriteFile(h.snapshot, []byte(snapshot), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.yaml"), []byte(userTypes), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("logging:\n  pretty: false\nuser_types: [types.yaml]\n"), 0o600))
	return h
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(h.dir, "config.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadWKT(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "load", h.snapshot, "pt", "poly", "xs;ys", "--format", "wkt")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"POINT(1 2)",
		"POLYGON((0 0,0 4,4 4,4 0,0 0))",
		"MULTIPOINT((1 5),(2 6),(3 0))",
	}, strings.Split(strings.TrimSpace(out), "\n"))
}

func TestLoadText(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "load", h.snapshot, "pt", "missing", "poly")
	require.NoError(t, err)
	assert.Contains(t, out, "pt")
	assert.Contains(t, out, "Point")
	assert.Contains(t, out, "POINT(1 2)")
	assert.Contains(t, out, "invalid expression")
	assert.NotContains(t, out, "traits mismatch")
}

func TestLoadTraitsMismatch(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "load", h.snapshot, "pt", "geo")
	require.ErrorIs(t, err, extract.ErrTraitsMismatch)
	assert.Contains(t, out, "POINT(1 2)")
	assert.Contains(t, out, "POINT(4.4 50.8)")
	assert.Contains(t, out, "traits mismatch")
}

func TestLoadJSON(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "load", h.snapshot, "--format", "json", "--kind", "Point,Polygon", "--parsed-only")
	require.ErrorIs(t, err, extract.ErrTraitsMismatch)

	var report struct {
		Results []struct {
			Name  string `json:"name"`
			Kind  string `json:"kind"`
			WKT   string `json:"wkt"`
			Error string `json:"error"`
		} `json:"results"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	got := map[string]string{}
	for _, r := range report.Results {
		if r.Error != "" {
			got[r.Name] = "error"
			continue
		}
		got[r.Name] = r.Kind
	}
	assert.Equal(t, map[string]string{
		"geo":  "Point",
		"poly": "Polygon",
		"pt":   "Point",
		"xs":   "error",
		"ys":   "error",
	}, got)
	assert.Len(t, report.Warnings, 1)
}

func TestLoadErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "load", h.snapshot, "missing")
	assert.ErrorContains(t, err, "no value could be loaded")

	_, err = h.run(t, "load", h.snapshot, "pt", "--format", "svg")
	assert.ErrorContains(t, err, "unsupported format")

	_, err = h.run(t, "load", h.snapshot, "pt", "--kind", "Blob")
	assert.ErrorContains(t, err, "unknown kind")

	_, err = h.run(t, "load", filepath.Join(h.dir, "absent.yaml"))
	assert.Error(t, err)

	_, err = h.run(t, "load")
	assert.Error(t, err)
}

func TestTypes(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "boost::geometry::model::point")
	assert.Contains(t, out, "std::vector")
	assert.Contains(t, out, "user:my::Scene")

	out, err = h.run(t, "types", "-o", "json")
	require.NoError(t, err)
	var rows []creatorRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)
	assert.Equal(t, "Point", rows[0].Kind)
	assert.Equal(t, 1, rows[0].Order)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "geoinspect version")
}
