package reference

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadEnumCatalog читает все enum-справочники из папки (*.yaml, *.yml).
// Отсутствующая папка — пустой каталог.
func LoadEnumCatalog(dir string) (map[string]EnumDirectory, error) {
	result := make(map[string]EnumDirectory)
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, err
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(file.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var enumDir EnumDirectory
		if err := yaml.Unmarshal(data, &enumDir); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		// Имя справочника — из enumDir.Name или из имени файла
		enumName := enumDir.Name
		if enumName == "" {
			enumName = strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
			enumDir.Name = enumName
		}
		if err := validate(enumDir); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		result[enumName] = enumDir
	}
	return result, nil
}

func validate(d EnumDirectory) error {
	codes := map[string]struct{}{}
	ords := map[int]struct{}{}
	for _, v := range d.Values() {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("enum %s: item with empty code", d.Name)
		}
		if _, dup := codes[v.Name]; dup {
			return fmt.Errorf("enum %s: duplicate code %q", d.Name, v.Name)
		}
		if _, dup := ords[v.Ordinal]; dup {
			return fmt.Errorf("enum %s: duplicate ordinal %d", d.Name, v.Ordinal)
		}
		codes[v.Name] = struct{}{}
		ords[v.Ordinal] = struct{}{}
	}
	return nil
}
