package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-importer/internal/model"
)

// fieldFile is the on-disk layout of a schema field file. JSON files parse
// too, since YAML is a superset.
type fieldFile struct {
	Fields []model.TargetField `yaml:"fields"`
}

// LoadFieldsFromFile reads target field definitions from a YAML or JSON
// file. Unknown accepted types fall back to text.
func LoadFieldsFromFile(path string) ([]model.TargetField, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read fields file")
	}

	var ff fieldFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal fields file")
	}

	for i := range ff.Fields {
		f := &ff.Fields[i]
		for j, t := range f.Accepts {
			f.Accepts[j] = model.ParseDataType(string(t))
		}
		ref, err := model.ParseFieldRef(f.ID)
		if err != nil {
			return nil, eris.Wrapf(err, "registry: field %d", i+1)
		}
		f.Ref = ref
		f.ID = ref.String()
	}
	return ff.Fields, nil
}
