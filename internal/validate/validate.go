package validate

// Values maps field paths (dot-joined for nested fields) to raw or
// normalized string values. Absent keys mean the field was not supplied.
type Values map[string]string

// Normalizer rewrites a raw value before checks run.
type Normalizer func(string) string

// Check inspects a normalized value and returns a violation message, or ok.
type Check func(value string) (message string, ok bool)

// Field is one row of the rule table.
type Field struct {
	Path            string
	Required        bool
	RequiredMessage string
	Normalizers     []Normalizer
	Checks          []Check
}

// Schema is a named, ordered set of field rules.
type Schema struct {
	Name   string
	Fields []Field
}

// Result accumulates all violations of one Apply call. FieldErrors preserves
// insertion order of messages per field; Values holds the normalized input
// for fields that were supplied.
type Result struct {
	FieldErrors map[string][]string
	Values      Values

	order []string
}

// OK reports whether the input was accepted as-is.
func (r *Result) OK() bool {
	return len(r.FieldErrors) == 0
}

// Paths returns the violated field paths in first-violation order.
func (r *Result) Paths() []string {
	return r.order
}

func (r *Result) add(path, message string) {
	if _, seen := r.FieldErrors[path]; !seen {
		r.order = append(r.order, path)
	}
	r.FieldErrors[path] = append(r.FieldErrors[path], message)
}

// Apply runs the schema against in. Fields absent from in are only reported
// when Required; supplied fields run their full check chain regardless of
// earlier violations on other fields.
func (s Schema) Apply(in Values) Result {
	res := Result{
		FieldErrors: make(map[string][]string),
		Values:      make(Values, len(in)),
	}

	for _, f := range s.Fields {
		raw, present := in[f.Path]

		value := raw
		for _, n := range f.Normalizers {
			value = n(value)
		}

		if !present || value == "" {
			if f.Required {
				res.add(f.Path, f.RequiredMessage)
			}
			continue
		}

		res.Values[f.Path] = value

		for _, check := range f.Checks {
			if message, ok := check(value); !ok {
				res.add(f.Path, message)
			}
		}
	}

	return res
}
