package batch

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Render returns the response-file contents for b, one flag per line.
func (b *FileBatch) Render() string {
	var sb strings.Builder
	for _, inc := range b.SystemIncludes() {
		fmt.Fprintf(&sb, "-I%s\n", quote(inc))
	}
	for _, inc := range b.UserIncludes() {
		fmt.Fprintf(&sb, "-I%s\n", quote(inc))
	}
	for _, def := range b.Macros() {
		fmt.Fprintf(&sb, "-D%s\n", quote(def))
	}
	for _, def := range b.ExportMacros() {
		fmt.Fprintf(&sb, "-D%s\n", quote(def))
	}
	if b.Fingerprint.PCH != "" {
		fmt.Fprintf(&sb, "-include %s\n", quote(b.Fingerprint.PCH))
	}
	if b.Fingerprint.RTTI {
		sb.WriteString("-frtti\n")
	} else {
		sb.WriteString("-fno-rtti\n")
	}
	return sb.String()
}

// quote wraps values containing spaces or quotes for the response-file
// tokenizer.
func quote(s string) string {
	if !strings.ContainsAny(s, " \t\"'") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// ReadDefinitions parses a forced-include definitions header into
// NAME=VALUE macros. Lines other than #define are ignored.
func ReadDefinitions(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions %s: %w", path, err)
	}
	return ParseDefinitions(data), nil
}

// ParseDefinitions extracts macros from #define lines. A define without a
// value becomes NAME.
func ParseDefinitions(data []byte) []string {
	var macros []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "#define") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "#define"))
		if len(fields) == 0 {
			continue
		}
		if len(fields) == 1 {
			macros = append(macros, fields[0])
			continue
		}
		macros = append(macros, fields[0]+"="+strings.Join(fields[1:], " "))
	}
	return macros
}
