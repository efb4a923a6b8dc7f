package schema

import (
	"errors"
	"regexp"
	"strings"
)

// Field describes a single model field, including metadata for migration generation.
type Field struct {
	Name          string  // column name as written in the schema
	Type          string  // Go type (e.g., "string", "int", "time.Time", "uuid.UUID")
	Default       *string // Default value expression, if any
	NotNull       bool    // False when the type is optional (trailing '?')
	PrimaryKey    bool
	AutoIncrement bool
}

// Entity describes a model.
type Entity struct {
	Name   string
	Fields []Field
}

// Datasource is the `datasource` block of a schema.
type Datasource struct {
	Provider string
	// URL is the literal url, empty when the url comes from env().
	URL string
	// URLEnv names the environment variable given to env().
	URLEnv string
}

// AST is the parsed schema representation.
type AST struct {
	Datasource Datasource
	Entities   []Entity
}

var (
	modelRe      = regexp.MustCompile(`model\s+(\w+)\s*{([^}]*)}`)
	datasourceRe = regexp.MustCompile(`datasource\s+\w+\s*{([^}]*)}`)
	providerRe   = regexp.MustCompile(`provider\s*=\s*"([^"]+)"`)
	urlRe        = regexp.MustCompile(`url\s*=\s*(?:env\("([^"]+)"\)|"([^"]+)")`)
)

// ErrNoDatasource is returned when a schema has no datasource block.
var ErrNoDatasource = errors.New("no datasource block found")

// ParseDatasource extracts the datasource block only.
func ParseDatasource(input []byte) (Datasource, error) {
	m := datasourceRe.FindStringSubmatch(string(input))
	if m == nil {
		return Datasource{}, ErrNoDatasource
	}
	var ds Datasource
	if p := providerRe.FindStringSubmatch(m[1]); p != nil {
		ds.Provider = p[1]
	}
	u := urlRe.FindStringSubmatch(m[1])
	if u == nil {
		return Datasource{}, errors.New("could not parse datasource url")
	}
	ds.URLEnv, ds.URL = u[1], u[2]
	return ds, nil
}

// ParseSchema parses a Prisma schema into an AST.
func ParseSchema(input []byte) (AST, error) {
	schema := string(input)
	matches := modelRe.FindAllStringSubmatch(schema, -1)
	if len(matches) == 0 {
		return AST{}, errors.New("no model definitions found")
	}

	var ast AST
	if ds, err := ParseDatasource(input); err == nil {
		ast.Datasource = ds
	} else if !errors.Is(err, ErrNoDatasource) {
		return AST{}, err
	}

	for _, m := range matches {
		var fields []Field
		for _, line := range strings.Split(m[2], "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "@@") {
				continue
			}
			// relation fields have no column of their own
			if strings.Contains(line, "@relation") {
				continue
			}
			parts := strings.Fields(line)
			if len(parts) < 2 {
				continue
			}
			fields = append(fields, parseField(parts[0], parts[1], line))
		}

		ast.Entities = append(ast.Entities, Entity{
			Name:   m[1],
			Fields: fields,
		})
	}

	return ast, nil
}

func parseField(name, ptype, line string) Field {
	f := Field{
		Name:    name,
		Type:    goType(ptype, line),
		NotNull: !strings.HasSuffix(ptype, "?"),
	}
	if strings.Contains(line, "@id") {
		f.PrimaryKey = true
	}
	if idx := strings.Index(line, "@default("); idx >= 0 {
		expr := line[idx+len("@default("):]
		if end := matchingParen(expr); end >= 0 {
			def := expr[:end]
			if def == "autoincrement()" {
				f.AutoIncrement = true
			} else {
				f.Default = &def
			}
		}
	}
	return f
}

// matchingParen returns the index of the ')' closing an already opened '('.
func matchingParen(s string) int {
	depth := 1
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func goType(ptype, line string) string {
	switch {
	case strings.HasPrefix(ptype, "String"):
		if strings.Contains(line, "@db.Uuid") {
			return "uuid.UUID"
		}
		return "string"
	case strings.HasPrefix(ptype, "Int"):
		return "int"
	case strings.HasPrefix(ptype, "BigInt"):
		return "int64"
	case strings.HasPrefix(ptype, "Float"):
		return "float64"
	case strings.HasPrefix(ptype, "Boolean"):
		return "bool"
	case strings.HasPrefix(ptype, "DateTime"):
		return "time.Time"
	case strings.HasPrefix(ptype, "Json"):
		return "map[string]interface{}"
	default:
		return strings.TrimSuffix(ptype, "?")
	}
}
