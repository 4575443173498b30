// Package interactive walks the user through new-project selections with
// numbered menus and free-text prompts on stdin/stdout.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/agentpack-labs/agentpack/internal/manifest"
)

// Result holds the selections made during interactive project creation.
type Result struct {
	Name        string
	Type        string
	Model       string
	Region      string
	Description string
}

// agentTypes are the built-in template sets, in menu order.
var agentTypes = []struct {
	name  string
	label string
}{
	{manifest.TypeChat, "chat — conversational agent with tools"},
	{manifest.TypeRAG, "rag — retrieval-augmented document QA"},
	{manifest.TypeLive, "live — bidirectional audio agent"},
}

// Run collects the project name, agent type, model, region, and description.
// Defaults are offered for everything except the name.
func Run(r io.Reader, w io.Writer, defaultModel, defaultRegion string) (*Result, error) {
	reader := bufio.NewReader(r)

	name, err := readLine(reader, w, "Project name: ")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if err := manifest.ValidateName(name); err != nil {
		return nil, err
	}

	labels := make([]string, len(agentTypes))
	for i, t := range agentTypes {
		labels[i] = t.label
	}
	typeIdx, err := selectFromList(reader, w, "Select agent type:", labels)
	if err != nil {
		return nil, err
	}

	model, err := readLineDefault(reader, w, "Model", defaultModel)
	if err != nil {
		return nil, err
	}
	region, err := readLineDefault(reader, w, "Region", defaultRegion)
	if err != nil {
		return nil, err
	}
	description, err := readLine(reader, w, "Description (optional): ")
	if err != nil {
		return nil, err
	}

	return &Result{
		Name:        name,
		Type:        agentTypes[typeIdx].name,
		Model:       model,
		Region:      region,
		Description: description,
	}, nil
}

// selectFromList presents a numbered list and returns the selected index.
func selectFromList(reader *bufio.Reader, w io.Writer, prompt string, items []string) (int, error) {
	fmt.Fprintf(w, "\n%s\n", prompt)
	for i, item := range items {
		fmt.Fprintf(w, "  %d) %s\n", i+1, item)
	}
	fmt.Fprintf(w, "Enter number [1-%d]: ", len(items))

	line, err := reader.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("reading selection: %w", err)
	}

	num, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || num < 1 || num > len(items) {
		return 0, fmt.Errorf("invalid selection %q: choose 1-%d", strings.TrimSpace(line), len(items))
	}

	return num - 1, nil
}

func readLine(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func readLineDefault(reader *bufio.Reader, w io.Writer, label, def string) (string, error) {
	value, err := readLine(reader, w, fmt.Sprintf("%s [%s]: ", label, def))
	if err != nil {
		return "", err
	}
	if value == "" {
		return def, nil
	}
	return value, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
