package cypher

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/athapong/docgraph/pkg/graph"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// QuoteIdentifier returns name unchanged when it is a plain identifier and
// back-quoted otherwise, so labels, types and keys with spaces or
// punctuation stay valid.
func QuoteIdentifier(name string) string {
	if identifierPattern.MatchString(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteString renders s as a double-quoted string literal.
func QuoteString(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}

// FormatProperties renders a property bag as a map literal such as
// {name: "R1", value: 10}. Keys keep their insertion order. An empty or nil
// bag yields the empty string so callers can drop the braces entirely.
func FormatProperties(props *graph.Properties) string {
	if graph.PropertyCount(props) == 0 {
		return ""
	}
	return formatOrdered(props)
}

func formatOrdered(props *graph.Properties) string {
	entries := make([]string, 0, props.Len())
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, QuoteIdentifier(pair.Key)+": "+FormatValue(pair.Value))
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

// FormatValue renders a single property value as a literal. Strings are
// quoted and escaped, scalars are written as-is, nested maps and slices
// become map and list literals.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return QuoteString(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	case json.Number:
		return v.String()
	case time.Time:
		return "datetime(" + QuoteString(v.Format(time.RFC3339Nano)) + ")"
	case *graph.Properties:
		if v == nil {
			return "null"
		}
		if v.Len() == 0 {
			return "{}"
		}
		return formatOrdered(v)
	case map[string]interface{}:
		return formatMap(reflect.ValueOf(v))
	case []interface{}:
		return formatList(reflect.ValueOf(v))
	case fmt.Stringer:
		return QuoteString(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "null"
		}
		return formatList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "null"
		}
		return formatMap(rv)
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return FormatValue(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.String:
		return QuoteString(rv.String())
	}
	return fmt.Sprint(value)
}

// formatFloat writes the shortest decimal form. Very large or small
// magnitudes use an exponent without a plus sign, which the literal grammar
// does not accept.
func formatFloat(f float64, bitSize int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strings.Replace(strconv.FormatFloat(f, 'e', -1, bitSize), "e+", "e", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

func formatList(rv reflect.Value) string {
	items := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = FormatValue(rv.Index(i).Interface())
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// formatMap handles plain Go maps, which have no stable order; keys are sorted.
func formatMap(rv reflect.Value) string {
	type entry struct {
		key   string
		value interface{}
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: fmt.Sprint(iter.Key().Interface()), value: iter.Value().Interface()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = QuoteIdentifier(e.key) + ": " + FormatValue(e.value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
