package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks a package's models as a whole: every model has exactly one
// primary key and every foreign field references a model of the package
// whose primary key type matches the foreign key type.
func Validate(infos []*StructInfo) error {
	var errs []error
	for _, info := range infos {
		if _, err := info.PrimaryKeyField(); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, f := range info.ForeignFields() {
			target := findStructInfo(infos, f.Foreign)
			if target == nil {
				errs = append(errs, fmt.Errorf("%s.%s: foreign model %q not found", info.Name, f.Name, f.Foreign))
				continue
			}
			targetPK, err := target.PrimaryKeyField()
			if err != nil {
				continue // reported when target itself is visited
			}
			if fkType := strings.TrimPrefix(f.GoType, "*"); fkType != targetPK.GoType {
				errs = append(errs, fmt.Errorf(
					"%s.%s: foreign key type %s does not match %s.%s type %s",
					info.Name, f.Name, fkType, target.Name, targetPK.Name, targetPK.GoType,
				))
			}
		}
	}
	return errors.Join(errs...)
}
