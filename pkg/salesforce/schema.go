package salesforce

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-importer/internal/model"
)

// skippedTypes are SObject field types a spreadsheet column cannot populate.
var skippedTypes = map[string]bool{
	"id":        true,
	"reference": true,
	"address":   true,
	"location":  true,
	"base64":    true,
}

// DescribeFields converts the describe metadata of sObjectName into import
// target fields. Only createable, non-calculated fields are returned. The
// field named uniqueField (usually Email) is flagged unique so it keys
// upserts.
func DescribeFields(ctx context.Context, c Client, sObjectName, uniqueField string) ([]model.TargetField, error) {
	desc, err := c.Describe(ctx, sObjectName)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: describe fields %s", sObjectName))
	}

	fields := make([]model.TargetField, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		if !f.Createable || f.Calculated || skippedTypes[f.Type] {
			continue
		}
		tf := model.TargetField{
			Label:    f.Label,
			Required: !f.Nillable && !f.DefaultedOnCreate && f.Type != "boolean",
			Accepts:  []model.DataType{dataType(f.Type)},
			Unique:   f.Unique || f.Name == uniqueField,
			Category: "standard",
		}
		if f.Custom {
			tf.Ref = model.Custom(f.Name)
			tf.Category = "custom"
		} else {
			tf.Ref = model.Standard(f.Name)
		}
		tf.ID = tf.Ref.String()
		fields = append(fields, tf)
	}
	return fields, nil
}

func dataType(sfType string) model.DataType {
	switch sfType {
	case "email":
		return model.TypeEmail
	case "phone":
		return model.TypePhone
	case "date", "datetime":
		return model.TypeDate
	case "double", "currency", "int", "long", "percent":
		return model.TypeNumber
	case "url":
		return model.TypeURL
	default:
		return model.TypeText
	}
}
