package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/pdftest"
)

const password = "VIKR1985"

func cardID(t *testing.T) string {
	t.Helper()
	c, err := identity.VerhoeffCheckDigit("45678901234")
	require.NoError(t, err)
	return "45678901234" + string(c)
}

func writeCard(t *testing.T, dir, name string, encrypt bool) string {
	t.Helper()
	id := cardID(t)
	data := pdftest.Text(
		"To",
		"VIKRAM SINGH",
		"Punjab 141001",
		"DOB: 12/12/1985",
		"MALE",
		id[:4]+" "+id[4:8]+" "+id[8:]+" VID : 9123456789012345",
	)
	if encrypt {
		var err error
		data, err = pdftest.Encrypt(data, password)
		require.NoError(t, err)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_TextOutput(t *testing.T) {
	dir := t.TempDir()
	file := writeCard(t, dir, "vikram.pdf", false)

	code, out, _ := runCLI(t, "", file)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `name="VIKRAM SINGH"`)
	assert.Contains(t, out, "dob=12/12/1985")
	assert.Contains(t, out, "gender=Male")
	assert.Contains(t, out, "aadhaar=XXXX XXXX "+cardID(t)[8:])

	code, out, _ = runCLI(t, "", "--reveal", file)
	assert.Equal(t, 0, code)
	id := cardID(t)
	assert.Contains(t, out, id[:4]+" "+id[4:8]+" "+id[8:])
}

func TestRun_JSONOutputKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeCard(t, dir, "a.pdf", false),
		filepath.Join(dir, "missing.pdf"),
		writeCard(t, dir, "c.pdf", false),
	}

	code, out, _ := runCLI(t, "", append([]string{"--format=json", "--workers=3"}, files...)...)
	assert.Equal(t, 1, code, "a missing file fails the run")

	var results []fileResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)

	for i, file := range files {
		assert.Equal(t, file, results[i].File)
	}
	require.NotNil(t, results[0].Result)
	assert.True(t, results[0].Result.Success)
	assert.NotEmpty(t, results[1].Error)
	require.NotNil(t, results[2].Result)
	assert.Equal(t, cardID(t), results[2].Result.Data.IDNumber)
}

func TestRun_Passwords(t *testing.T) {
	dir := t.TempDir()
	first := writeCard(t, dir, "one.pdf", true)
	second := writeCard(t, dir, "two.pdf", true)

	t.Run("no password", func(t *testing.T) {
		code, out, _ := runCLI(t, "", first)
		assert.Equal(t, 1, code)
		assert.Contains(t, out, "password protected")
	})

	t.Run("password flag", func(t *testing.T) {
		code, _, _ := runCLI(t, "", "--password", password, first, second)
		assert.Equal(t, 0, code)
	})

	t.Run("prompted once", func(t *testing.T) {
		code, _, errOut := runCLI(t, password+"\n", "--prompt", "--workers=2", first, second)
		assert.Equal(t, 0, code)
		assert.Equal(t, 1, strings.Count(errOut, "Password:"))
	})
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no files", args: nil, want: 2},
		{name: "bad format", args: []string{"--format=xml", "a.pdf"}, want: 2},
		{name: "bad policy", args: []string{"--fallbackpolicy=maybe", "a.pdf"}, want: 2},
		{name: "bad log level", args: []string{"--loglevel=loud", "a.pdf"}, want: 2},
		{name: "unknown flag", args: []string{"--nope"}, want: 2},
		{name: "help", args: []string{"--help"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, "", tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestOncePrompter(t *testing.T) {
	var out bytes.Buffer
	p := newOncePrompter(strings.NewReader("secret\r\nignored\n"), &out)

	for i := 0; i < 3; i++ {
		got, err := p.PromptPassword(context.Background(), "card.pdf")
		require.NoError(t, err)
		assert.Equal(t, "secret", got)
	}
	assert.Equal(t, 1, strings.Count(out.String(), "Password:"))
}
