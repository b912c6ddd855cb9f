package wizard

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/tcmartin/integrator/pkg/models"
)

// prompter reads answers line by line
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// ask prints the question and returns the trimmed answer
func (p *prompter) ask(question string) (string, error) {
	p.printf("%s", question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// choose asks for a 1-based index into a list of n entries
func (p *prompter) choose(question string, n int) (int, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return 0, err
		}
		choice, err := strconv.Atoi(answer)
		if err == nil && choice >= 1 && choice <= n {
			return choice - 1, nil
		}
		p.printf("Please enter a number between 1 and %d\n", n)
	}
}

// property asks for a property value until it satisfies the definition
func (p *prompter) property(name string, def models.ConfigurationProperty) (string, error) {
	label := def.DisplayName
	if label == "" {
		label = name
	}
	if def.Description != "" {
		p.printf("  %s\n", def.Description)
	}
	if len(def.Enum) > 0 {
		values := make([]string, len(def.Enum))
		for i, e := range def.Enum {
			values[i] = e.Value
		}
		p.printf("  one of: %s\n", strings.Join(values, ", "))
	}

	question := label
	if def.DefaultValue != "" {
		question += fmt.Sprintf(" [%s]", def.DefaultValue)
	}
	if def.Required {
		question += " *"
	}
	question += ": "

	for {
		value, err := p.ask(question)
		if err != nil {
			return "", err
		}
		if value == "" {
			value = def.DefaultValue
		}
		switch {
		case value == "" && def.Required:
			p.printf("%s is required\n", label)
		case value != "" && !def.AllowsValue(value):
			p.printf("%q is not an allowed value\n", value)
		default:
			return value, nil
		}
	}
}

// rankConnections orders connections by fuzzy match of their name against
// query; an empty query keeps every connection sorted by name
func rankConnections(connections []models.Connection, query string) []models.Connection {
	if query == "" {
		out := append([]models.Connection{}, connections...)
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
		return out
	}

	names := make([]string, len(connections))
	for i, c := range connections {
		names[i] = c.Name
	}
	ranks := fuzzy.RankFindFold(query, names)
	sort.Sort(ranks)

	out := make([]models.Connection, len(ranks))
	for i, r := range ranks {
		out[i] = connections[r.OriginalIndex]
	}
	return out
}
