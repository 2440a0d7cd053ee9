package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/service"
)

// addMappingFlags registers the flags shared by analyze, preview, import,
// and template save.
func addMappingFlags(cmd *cobra.Command) {
	cmd.Flags().String("template", "", "apply the named import template")
	cmd.Flags().StringArray("map", nil, `set a column's target, "Column=fieldId" (empty fieldId clears it); repeatable`)
	cmd.Flags().StringArray("transform", nil, `set a column's transforms, "Column=trim,lower,split:first,join:A|B,sep:-,date:YYYY-MM-DD"; repeatable`)
}

// requestFromFlags builds a service request from the mapping flags.
func requestFromFlags(cmd *cobra.Command) (service.Request, error) {
	tmpl, _ := cmd.Flags().GetString("template")
	maps, _ := cmd.Flags().GetStringArray("map")
	transforms, _ := cmd.Flags().GetStringArray("transform")

	req := service.Request{Template: tmpl}
	var err error
	if req.Mappings, err = parseMappings(maps); err != nil {
		return req, err
	}
	if req.Transforms, err = parseTransforms(transforms); err != nil {
		return req, err
	}
	return req, nil
}

// parseMappings parses "Column=fieldId" pairs. The last "=" separates the
// field ID so column names may contain "=".
func parseMappings(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndex(p, "=")
		if i <= 0 {
			return nil, eris.Errorf("invalid --map %q, want Column=fieldId", p)
		}
		out[p[:i]] = strings.TrimSpace(p[i+1:])
	}
	return out, nil
}

// parseTransforms parses "Column=op,op,..." transform specs.
func parseTransforms(pairs []string) (map[string]*model.TransformSpec, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]*model.TransformSpec, len(pairs))
	for _, p := range pairs {
		col, ops, ok := strings.Cut(p, "=")
		if !ok || col == "" {
			return nil, eris.Errorf("invalid --transform %q, want Column=ops", p)
		}
		spec, err := parseTransformOps(ops)
		if err != nil {
			return nil, eris.Wrapf(err, "--transform %q", col)
		}
		out[col] = spec
	}
	return out, nil
}

func parseTransformOps(ops string) (*model.TransformSpec, error) {
	spec := &model.TransformSpec{}
	for _, op := range strings.Split(ops, ",") {
		name, arg, _ := strings.Cut(strings.TrimSpace(op), ":")
		switch name {
		case "":
		case "trim":
			spec.Trim = true
		case "upper":
			spec.Case = model.CaseUpper
		case "lower":
			spec.Case = model.CaseLower
		case "title":
			spec.Case = model.CaseTitle
		case "split":
			switch model.NamePart(arg) {
			case model.NamePartFirst, model.NamePartLast:
				spec.SplitName = model.NamePart(arg)
			default:
				return nil, eris.Errorf("split wants first or last, got %q", arg)
			}
		case "join":
			if arg == "" {
				return nil, eris.New("join wants columns, e.g. join:First|Last")
			}
			spec.JoinColumns = strings.Split(arg, "|")
		case "sep":
			spec.JoinSeparator = arg
		case "date":
			if arg == "" {
				return nil, eris.New("date wants a format, e.g. date:YYYY-MM-DD")
			}
			spec.DateFormat = arg
		default:
			return nil, eris.Errorf("unknown transform %q", name)
		}
	}
	return spec, nil
}
