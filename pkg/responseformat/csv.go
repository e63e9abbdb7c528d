package responseformat

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

func (f *Formatter) writeCSV(w http.ResponseWriter, data any) error {
	header, rows, err := csvTable(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/csv")
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvTable converts a struct or a slice of structs into a header row and data
// rows. Column names come from json tags; nested structs are flattened with
// underscore-joined names.
func csvTable(data any) ([]string, [][]string, error) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil, fmt.Errorf("cannot render nil value as CSV")
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		elemType := v.Type().Elem()
		for elemType.Kind() == reflect.Pointer {
			elemType = elemType.Elem()
		}
		if elemType.Kind() != reflect.Struct {
			return nil, nil, fmt.Errorf("cannot render slice of %s as CSV", elemType.Kind())
		}
		header := structHeader(elemType, "")
		rows := make([][]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			for elem.Kind() == reflect.Pointer {
				if elem.IsNil() {
					break
				}
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Struct {
				continue
			}
			rows = append(rows, structRow(elem))
		}
		return header, rows, nil
	case reflect.Struct:
		return structHeader(v.Type(), ""), [][]string{structRow(v)}, nil
	default:
		return nil, nil, fmt.Errorf("cannot render %s as CSV", v.Kind())
	}
}

func structHeader(t reflect.Type, prefix string) []string {
	var header []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, ok := csvFieldName(field)
		if !ok {
			continue
		}
		ft := field.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft != timeType {
			// Anonymous embedded structs flatten without a prefix, matching
			// encoding/json
			if field.Anonymous && field.Tag.Get("json") == "" {
				header = append(header, structHeader(ft, prefix)...)
			} else {
				header = append(header, structHeader(ft, prefix+name+"_")...)
			}
			continue
		}
		header = append(header, prefix+name)
	}
	return header
}

func structRow(v reflect.Value) []string {
	var row []string
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if _, ok := csvFieldName(field); !ok {
			continue
		}
		fv := v.Field(i)
		ft := field.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft != timeType {
			for fv.Kind() == reflect.Pointer && !fv.IsNil() {
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				row = append(row, structRow(fv)...)
			} else {
				// Nil pointer to a nested struct yields empty cells
				row = append(row, make([]string, len(structHeader(ft, "")))...)
			}
			continue
		}
		row = append(row, cellValue(fv))
	}
	return row
}

// csvFieldName returns the column name for a struct field, preferring the json
// tag so the CSV header matches the JSON representation.
func csvFieldName(field reflect.StructField) (string, bool) {
	if field.PkgPath != "" {
		return "", false
	}
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		name = field.Name
	}
	return name, true
}

func cellValue(v reflect.Value) string {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	if v.Type() == timeType {
		return v.Interface().(time.Time).Format(time.RFC3339)
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Slice, reflect.Map:
		// Compound values become a single JSON cell
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(v.Interface())
	}
}
