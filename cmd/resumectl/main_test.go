package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/resume"
)

func init() {
	errors.DisableColors()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writePage renders a page with one signal, one computed and one button,
// and writes both the page and the bare snapshot into dir.
func writePage(t *testing.T, dir string, extraBody string) (page, snapshot string) {
	t.Helper()
	g := reactive.NewGraph()
	name := reactive.NewSignal(g, "ada", reactive.Key("name"))
	greeting := reactive.NewComputed(g, func() string { return "hello " + name.Get() }, reactive.Key("greeting"))
	greeting.Get()

	ser := resume.NewSerializer(g)
	_, err := ser.RegisterNode(
		resume.Element{Tag: "button", Attrs: map[string]string{"data-rid": "greet"}},
		resume.Listener{Event: "click", HandlerID: "greet.click"},
	)
	require.NoError(t, err)
	snap, err := ser.CreateSnapshot(context.Background(), resume.Meta{Route: "/hello"})
	require.NoError(t, err)
	script, err := ser.EmbedInHTML(snap)
	require.NoError(t, err)
	data, err := snap.Encode()
	require.NoError(t, err)

	page = filepath.Join(dir, "page.html")
	snapshot = filepath.Join(dir, "snapshot.json")
	html := `<html><body><button data-rid="greet">hi</button>` + extraBody + script + `</body></html>`
	require.NoError(t, os.WriteFile(page, []byte(html), 0644))
	require.NoError(t, os.WriteFile(snapshot, data, 0644))
	return page, snapshot
}

func TestInspect(t *testing.T) {
	page, snapshot := writePage(t, t.TempDir(), "")

	out, err := run(t, "inspect", page)
	require.NoError(t, err)
	assert.Contains(t, out, "/hello")
	assert.Contains(t, out, `"ada"`)
	assert.Contains(t, out, "greeting")
	assert.Contains(t, out, "click → greet.click")
	assert.Contains(t, out, "true")

	out, err = run(t, "inspect", snapshot, "--width", "4")
	require.NoError(t, err)
	assert.Contains(t, out, `"ad…`)
}

func TestInspectErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "inspect", filepath.Join(dir, "missing.html"))
	assert.Equal(t, "E140", errors.Code(err))

	plain := filepath.Join(dir, "plain.html")
	require.NoError(t, os.WriteFile(plain, []byte("<p>hi</p>"), 0644))
	_, err = run(t, "inspect", plain)
	assert.Equal(t, "E141", errors.Code(err))

	_, err = run(t, "inspect")
	assert.Error(t, err)
}

func TestEmbed(t *testing.T) {
	_, snapshot := writePage(t, t.TempDir(), "")

	out, err := run(t, "embed", snapshot)
	require.NoError(t, err)
	out = strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(out, `<script type="application/json" id="__RESUME_STATE__">`))

	doc, err := resume.ParseDocumentString("<html><body>" + out + "</body></html>")
	require.NoError(t, err)
	assert.True(t, resume.CanResume(doc))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"signals": 3}`), 0644))
	_, err = run(t, "embed", bad)
	assert.Equal(t, "E060", errors.Code(err))
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	page, snapshot := writePage(t, dir, "")

	out, err := run(t, "verify", page, "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "resumed in")
	assert.Contains(t, out, "1 resolved")
	assert.Contains(t, out, "1 attached")

	_, err = run(t, "verify", snapshot, "--config", dir)
	assert.Equal(t, "E141", errors.Code(err))

	_, err = run(t, "verify", page, "--config", dir, "--strategy", "sloppy")
	assert.Equal(t, "E102", errors.Code(err))
}

func TestVerifyUnresolved(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	_, snapshot := writePage(t, dir, "")
	data, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(page, []byte("<p>moved</p>"+resume.EmbedPayload(data)), 0644))

	out, err := run(t, "verify", page, "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "not found in the page: greet")

	_, err = run(t, "verify", page, "--config", dir, "--fail-unresolved")
	assert.Equal(t, "E040", errors.Code(err))
}

func TestVerifyVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resume.yaml"), []byte("snapshot:\n  version: 2.0.0\n"), 0644))
	page, _ := writePage(t, dir, "")

	out, err := run(t, "verify", page, "--config", dir)
	assert.Equal(t, "E030", errors.Code(err))
	assert.Contains(t, out, "fall back to hydration")
}

func TestCompactErrors(t *testing.T) {
	t.Cleanup(func() { compactErrors = false })
	dir := t.TempDir()
	_, snapshot := writePage(t, dir, "")

	_, err := run(t, "verify", snapshot, "--config", dir, "--compact-errors")
	require.Error(t, err)
	require.True(t, compactErrors)

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "E141: ")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestBench(t *testing.T) {
	dir := t.TempDir()
	page, _ := writePage(t, dir, "")

	out, err := run(t, "bench", page, "-n", "5", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "parse")
	assert.Contains(t, out, "resume")
	assert.Contains(t, out, "p99")

	_, err = run(t, "bench", page, "-n", "0", "--config", dir)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, resume.SnapshotVersion)
}
