package dsl

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	entityRe = regexp.MustCompile(`^entity\s+(\w+)\s*(.*?)\s*:$`)
	fieldRe  = regexp.MustCompile(`^\s*([\w_]+):\s*([^\s#]+)(.*)$`)
	enumRe   = regexp.MustCompile(`^enum\[(.*)\]$`)
	arrayRe  = regexp.MustCompile(`^array\[(.+)\]$`)
)

// options tokenizer — делит "k=v k2='v 2' desc=[a b]" на токены, не рвёт по пробелам внутри кавычек/скобок
func splitOptionTokens(s string) []string {
	var out []string
	var buf []rune
	inSingle, inDouble := false, false
	bracketDepth := 0

	flush := func() {
		if len(buf) > 0 {
			out = append(out, string(buf))
			buf = buf[:0]
		}
	}

	for _, r := range s {
		switch r {
		case '\'':
			if !inDouble && bracketDepth == 0 {
				inSingle = !inSingle
			}
			buf = append(buf, r)
		case '"':
			if !inSingle && bracketDepth == 0 {
				inDouble = !inDouble
			}
			buf = append(buf, r)
		case '[':
			if !inSingle && !inDouble {
				bracketDepth++
			}
			buf = append(buf, r)
		case ']':
			if !inSingle && !inDouble && bracketDepth > 0 {
				bracketDepth--
			}
			buf = append(buf, r)
		default:
			// разделитель — пробел и только вне кавычек и [...]
			if (r == ' ' || r == '\t') && !inSingle && !inDouble && bracketDepth == 0 {
				flush()
				continue
			}
			buf = append(buf, r)
		}
	}
	flush()
	return out
}

// parseOptions: флаг без значения -> "true", кавычки снимаются, ключи в нижнем регистре.
func parseOptions(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	if strings.HasPrefix(strings.ToLower(raw), "options:") {
		raw = strings.TrimSpace(raw[len("options:"):])
	}
	opts := map[string]string{}
	for _, tok := range splitOptionTokens(raw) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if !strings.Contains(tok, "=") {
			opts[strings.ToLower(tok)] = "true"
			continue
		}
		kv := strings.SplitN(tok, "=", 2)
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		if len(v) >= 2 {
			if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
				v = v[1 : len(v)-1]
			}
		}
		if k != "" {
			opts[k] = v
		}
	}
	return opts
}

func splitEnum(inside string) (values []string, catalog string) {
	inside = strings.TrimSpace(inside)
	if strings.HasPrefix(inside, "@") {
		return nil, strings.TrimSpace(inside[1:])
	}
	for _, p := range strings.Split(inside, ",") {
		s := strings.Trim(strings.TrimSpace(p), `"'`)
		if s != "" {
			values = append(values, s)
		}
	}
	return values, ""
}

// LoadEntities читает один .dsl файл.
func LoadEntities(path string) ([]*Entity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// Parse разбирает DSL:
//
//	entity Person id=1:
//	  firstName: string id=10 field=first_name max=64 desc='Имя' tags=pii|search
//	  status:    enum[NEW,ACTIVE] id=11 index
//	  roles:     array[enum[@Roles]] id=12
func Parse(r io.Reader) ([]*Entity, error) {
	var entities []*Entity
	var current *Entity

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// entity <Name> id=<n>:
		if m := entityRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				entities = append(entities, current)
			}
			opts := parseOptions(m[2])
			id, err := strconv.ParseInt(opts["id"], 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("line %d: entity %s: id=<positive int> required", lineNo, m[1])
			}
			current = &Entity{Name: m[1], TypeID: id}
			continue
		}
		if current == nil {
			// игнорируем всё вне сущности
			continue
		}

		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: cannot parse %q", lineNo, line)
		}
		rawType := m[2]
		tail := m[3]

		// склейка оборванных типов со скобками: enum[A, B]
		if strings.Count(rawType, "[") > strings.Count(rawType, "]") {
			need := strings.Count(rawType, "[") - strings.Count(rawType, "]")
			idx := -1
			for i, c := range tail {
				if c == ']' {
					need--
					if need == 0 {
						idx = i
						break
					}
				}
			}
			if idx < 0 {
				return nil, fmt.Errorf("line %d: unbalanced brackets in type of %s", lineNo, m[1])
			}
			rawType += tail[:idx+1]
			tail = tail[idx+1:]
		}

		f := Field{
			Property: m[1],
			Type:     rawType,
			Options:  parseOptions(strings.ReplaceAll(tail, ",", " ")),
		}
		if mm := enumRe.FindStringSubmatch(rawType); mm != nil {
			f.Type = "enum"
			f.Enum, f.Catalog = splitEnum(mm[1])
		} else if mm := arrayRe.FindStringSubmatch(rawType); mm != nil {
			f.Type = "array"
			f.ElemType = strings.TrimSpace(mm[1])
			if em := enumRe.FindStringSubmatch(f.ElemType); em != nil {
				f.ElemType = "enum"
				f.Enum, f.Catalog = splitEnum(em[1])
			}
		}
		current.Fields = append(current.Fields, f)
	}

	if current != nil {
		entities = append(entities, current)
	}
	return entities, scanner.Err()
}

// LoadAllEntities обходит root и собирает все *.dsl; ключ — имя сущности.
func LoadAllEntities(root string) (map[string]*Entity, error) {
	result := make(map[string]*Entity)
	typeIDs := make(map[int64]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".dsl") {
			return nil
		}

		ents, err := LoadEntities(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for _, e := range ents {
			if _, exists := result[e.Name]; exists {
				return fmt.Errorf("duplicate entity %q (file: %s)", e.Name, path)
			}
			if prev, exists := typeIDs[e.TypeID]; exists {
				return fmt.Errorf("entity %q reuses id %d of %q (file: %s)", e.Name, e.TypeID, prev, path)
			}
			result[e.Name] = e
			typeIDs[e.TypeID] = e.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
