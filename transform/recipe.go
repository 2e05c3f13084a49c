package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goecon/timeseries"
)

// ErrInvalidRecipe is returned when recipe entries are inconsistent.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Entry records how one variable was transformed.
type Entry struct {
	Variable string `yaml:"variable" json:"variable"`
	Order    int    `yaml:"order" json:"order"`
	Output   string `yaml:"output" json:"output"`
}

// OutputName returns the column name for variable differenced order times:
// the name itself for 0, D_<name> for 1 and D<order>_<name> above.
func OutputName(variable string, order int) string {
	switch order {
	case 0:
		return variable
	case 1:
		return "D_" + variable
	default:
		return fmt.Sprintf("D%d_%s", order, variable)
	}
}

// Recipe is the ordered list of per-variable differencing orders learned
// on a training table. It is immutable once built and is replayed on other
// tables with Apply.
type Recipe struct {
	entries []Entry
	index   map[string]int
}

// NewRecipe validates entries and builds a recipe from them.
func NewRecipe(entries ...Entry) (*Recipe, error) {
	r := &Recipe{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	outputs := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Variable == "" {
			return nil, fmt.Errorf("%w: empty variable name", ErrInvalidRecipe)
		}
		if e.Order < 0 {
			return nil, fmt.Errorf("%w: %s has negative order %d", ErrInvalidRecipe, e.Variable, e.Order)
		}
		if e.Output == "" {
			e.Output = OutputName(e.Variable, e.Order)
		}
		if _, dup := r.index[e.Variable]; dup {
			return nil, fmt.Errorf("%w: duplicate variable %s", ErrInvalidRecipe, e.Variable)
		}
		if _, dup := outputs[e.Output]; dup {
			return nil, fmt.Errorf("%w: duplicate output %s", ErrInvalidRecipe, e.Output)
		}
		outputs[e.Output] = struct{}{}
		r.index[e.Variable] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Len returns the number of entries.
func (r *Recipe) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the entries in recipe order.
func (r *Recipe) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Lookup returns the entry for a variable.
func (r *Recipe) Lookup(variable string) (Entry, bool) {
	i, ok := r.index[variable]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Outputs returns the output column names in recipe order.
func (r *Recipe) Outputs() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Output
	}
	return out
}

// Missing returns the recipe variables absent from table.
func (r *Recipe) Missing(table *timeseries.Table) []string {
	var missing []string
	for _, e := range r.entries {
		if !table.Has(e.Variable) {
			missing = append(missing, e.Variable)
		}
	}
	return missing
}

// Apply replays the recipe on table. Every variable present in table is
// copied (order 0) or differenced by its recorded order and stored under
// its output name; variables missing from table are skipped. Rows with a
// missing value in any output column are dropped. Orders are never
// re-estimated on the new data.
func (r *Recipe) Apply(table *timeseries.Table) *timeseries.Table {
	out := timeseries.NewTable()
	out.Index = table.Index
	for _, e := range r.entries {
		s, err := table.Series(e.Variable)
		if err != nil {
			continue
		}
		// outputs are unique and lengths match, so this cannot fail
		_ = out.AddColumn(e.Output, s.DiffN(e.Order).Values)
	}
	return out.DropNaRows()
}

// String renders one line per entry.
func (r *Recipe) String() string {
	var b strings.Builder
	for _, e := range r.entries {
		fmt.Fprintf(&b, "%s: order=%d -> %s\n", e.Variable, e.Order, e.Output)
	}
	return b.String()
}

type recipeDoc struct {
	Entries []Entry `yaml:"entries" json:"entries"`
}

// MarshalYAML implements yaml.Marshaler.
func (r *Recipe) MarshalYAML() (interface{}, error) {
	return recipeDoc{Entries: r.entries}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Recipe) UnmarshalYAML(node *yaml.Node) error {
	var doc recipeDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	built, err := NewRecipe(doc.Entries...)
	if err != nil {
		return err
	}
	*r = *built
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r *Recipe) MarshalJSON() ([]byte, error) {
	return json.Marshal(recipeDoc{Entries: r.entries})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var doc recipeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	built, err := NewRecipe(doc.Entries...)
	if err != nil {
		return err
	}
	*r = *built
	return nil
}

// SaveRecipe writes the recipe to a YAML file.
func SaveRecipe(r *Recipe, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding recipe: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing recipe: %w", err)
	}
	return nil
}

// LoadRecipe reads a recipe written by SaveRecipe.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe: %w", err)
	}
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding recipe: %w", err)
	}
	return &r, nil
}
